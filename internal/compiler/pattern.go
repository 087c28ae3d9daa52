package compiler

import (
	"slices"
	"strconv"

	"cuelang.org/go/cue"

	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/pattern"
	"github.com/roach88/matchdag/internal/types"
)

// Pattern encodings. A pattern is the string "_" (discard), the string
// ".." (a slice without a sub-pattern), or a struct whose keys select the
// shape:
//
//	{var: "x", inner?: P}
//	{decl: "int", name?: "i"}
//	{const: 42, type?: "Color"}           // const: null, {float: "NaN"}, {char: "a"}
//	{rel: "<", value: 10, type?: "long"}
//	{is?: "Point", positional?: [P...], properties?: {X: P}, name?: "p"}
//	{list: [P...], is?: "int[]", name?: "xs"}
//	{slice: P}
//	{not: P}
//	{and: [P, P...]}
//	{or: [P, P...]}
var patternKeys = map[string][]string{
	"var":   {"var", "inner"},
	"decl":  {"decl", "name"},
	"const": {"const", "type"},
	"rel":   {"rel", "value", "type"},
	"list":  {"list", "is", "name"},
	"slice": {"slice"},
	"not":   {"not"},
	"and":   {"and"},
	"or":    {"or"},
}

var recursiveKeys = []string{"is", "positional", "properties", "name"}

type patternCompiler struct {
	u *types.Universe
}

// CompilePattern compiles one pattern value against u.
func CompilePattern(u *types.Universe, v cue.Value) (pattern.Pattern, error) {
	pc := &patternCompiler{u: u}
	return pc.compile(v, "pattern")
}

func (pc *patternCompiler) compile(v cue.Value, field string) (pattern.Pattern, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, _ := v.String()
		switch s {
		case "_":
			return pattern.D(), nil
		case "..":
			return pattern.S(nil), nil
		}
		return nil, errorf(field, v, "string pattern %q: only \"_\" and \"..\" are strings; write constants as {const: ...}", s)
	case cue.StructKind:
	default:
		return nil, errorf(field, v, "pattern must be a string or a struct, got %v", v.Kind())
	}

	keys, err := fieldNames(v)
	if err != nil {
		return nil, err
	}
	shape := ""
	for _, k := range keys {
		if _, ok := patternKeys[k]; !ok {
			continue
		}
		if shape != "" {
			return nil, errorf(field, v, "pattern has both %q and %q", shape, k)
		}
		shape = k
	}
	allowed := recursiveKeys
	if shape != "" {
		allowed = patternKeys[shape]
	}
	for _, k := range keys {
		if !slices.Contains(allowed, k) {
			return nil, errorf(field+"."+k, v, "unexpected key %q in %s pattern", k, shapeName(shape))
		}
	}
	if len(keys) == 0 {
		return nil, errorf(field, v, "empty pattern; write \"_\" to match anything")
	}

	switch shape {
	case "var":
		p := &pattern.Var{}
		if p.Name, err = pc.str(v, "var", field); err != nil {
			return nil, err
		}
		if iv := v.LookupPath(cue.ParsePath("inner")); iv.Exists() {
			if p.Inner, err = pc.compile(iv, field+".inner"); err != nil {
				return nil, err
			}
		}
		return p, nil

	case "decl":
		p := &pattern.Declaration{}
		if p.Type, err = pc.typ(v, "decl", field); err != nil {
			return nil, err
		}
		if p.Name, err = pc.optStr(v, "name", field); err != nil {
			return nil, err
		}
		return p, nil

	case "const":
		p := &pattern.Constant{}
		if p.Value, err = pc.value(v.LookupPath(cue.ParsePath("const")), field+".const"); err != nil {
			return nil, err
		}
		if p.Type, err = pc.optType(v, "type", field); err != nil {
			return nil, err
		}
		return p, nil

	case "rel":
		p := &pattern.Relational{}
		op, err := pc.str(v, "rel", field)
		if err != nil {
			return nil, err
		}
		if p.Op, err = ir.ParseRelOp(op); err != nil {
			return nil, errorf(field+".rel", v, "%v", err)
		}
		if p.Op == ir.OpEq {
			return nil, errorf(field+".rel", v, "relational patterns use <, <=, > or >=; write equality as {const: ...}")
		}
		vv := v.LookupPath(cue.ParsePath("value"))
		if !vv.Exists() {
			return nil, errorf(field, v, "relational pattern needs a value")
		}
		if p.Value, err = pc.value(vv, field+".value"); err != nil {
			return nil, err
		}
		if p.Type, err = pc.optType(v, "type", field); err != nil {
			return nil, err
		}
		return p, nil

	case "list":
		p := &pattern.List{}
		if p.Elements, err = pc.list(v.LookupPath(cue.ParsePath("list")), field+".list", 0); err != nil {
			return nil, err
		}
		if p.Type, err = pc.optType(v, "is", field); err != nil {
			return nil, err
		}
		if p.Name, err = pc.optStr(v, "name", field); err != nil {
			return nil, err
		}
		return p, nil

	case "slice":
		inner, err := pc.compile(v.LookupPath(cue.ParsePath("slice")), field+".slice")
		if err != nil {
			return nil, err
		}
		return pattern.S(inner), nil

	case "not":
		inner, err := pc.compile(v.LookupPath(cue.ParsePath("not")), field+".not")
		if err != nil {
			return nil, err
		}
		return pattern.Not(inner), nil

	case "and", "or":
		ops, err := pc.list(v.LookupPath(cue.ParsePath(shape)), field+"."+shape, 2)
		if err != nil {
			return nil, err
		}
		if shape == "and" {
			return pattern.AndOf(ops[0], ops[1:]...), nil
		}
		return pattern.OrOf(ops[0], ops[1:]...), nil
	}
	return pc.recursive(v, field)
}

func (pc *patternCompiler) recursive(v cue.Value, field string) (pattern.Pattern, error) {
	p := &pattern.Recursive{}
	var err error
	if p.Type, err = pc.optType(v, "is", field); err != nil {
		return nil, err
	}
	if p.Name, err = pc.optStr(v, "name", field); err != nil {
		return nil, err
	}
	if pv := v.LookupPath(cue.ParsePath("positional")); pv.Exists() {
		elems, err := pc.list(pv, field+".positional", 0)
		if err != nil {
			return nil, err
		}
		// An empty list still means "()".
		p.Positional = append([]pattern.Pattern{}, elems...)
	}
	if pv := v.LookupPath(cue.ParsePath("properties")); pv.Exists() {
		iter, err := pv.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.Properties = []pattern.Property{}
		for iter.Next() {
			name := iter.Selector().Unquoted()
			sub, err := pc.compile(iter.Value(), field+".properties."+name)
			if err != nil {
				return nil, err
			}
			p.Properties = append(p.Properties, pattern.P(name, sub))
		}
	}
	if p.Positional == nil && p.Properties == nil {
		if p.Type != nil {
			return nil, errorf(field, v, "{is: %s} alone is a type test; add positional or properties, or use {decl: %q}", p.Type.Name, p.Type.Name)
		}
		return nil, errorf(field, v, "recursive pattern needs positional or properties; write { } as {properties: {}}")
	}
	return p, nil
}

func (pc *patternCompiler) list(v cue.Value, field string, atLeast int) ([]pattern.Pattern, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []pattern.Pattern
	for i := 0; iter.Next(); i++ {
		p, err := pc.compile(iter.Value(), field+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(out) < atLeast {
		return nil, errorf(field, v, "needs at least %d patterns, got %d", atLeast, len(out))
	}
	return out, nil
}

func (pc *patternCompiler) str(v cue.Value, key, field string) (string, error) {
	s, err := v.LookupPath(cue.ParsePath(key)).String()
	if err != nil {
		return "", errorf(field+"."+key, v, "must be a string")
	}
	return s, nil
}

func (pc *patternCompiler) optStr(v cue.Value, key, field string) (string, error) {
	if !v.LookupPath(cue.ParsePath(key)).Exists() {
		return "", nil
	}
	return pc.str(v, key, field)
}

func (pc *patternCompiler) typ(v cue.Value, key, field string) (*types.Type, error) {
	name, err := pc.str(v, key, field)
	if err != nil {
		return nil, err
	}
	t, err := pc.u.Lookup(name)
	if err != nil {
		return nil, errorf(field+"."+key, v, "%v", err)
	}
	return t, nil
}

func (pc *patternCompiler) optType(v cue.Value, key, field string) (*types.Type, error) {
	if !v.LookupPath(cue.ParsePath(key)).Exists() {
		return nil, nil
	}
	return pc.typ(v, key, field)
}

func (pc *patternCompiler) value(v cue.Value, field string) (ir.IRValue, error) {
	return Value(v, field)
}

// Value converts a concrete CUE value into a runtime value, accepting the
// tagged forms of ir.ConvertToIRValue.
func Value(v cue.Value, field string) (ir.IRValue, error) {
	raw, err := goValue(v)
	if err != nil {
		return nil, err
	}
	out, err := ir.ConvertToIRValue(raw)
	if err != nil {
		return nil, errorf(field, v, "%v", err)
	}
	return out, nil
}

func goValue(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		b, err := v.Bool()
		return b, formatCUEError(err)
	case cue.IntKind:
		n, err := v.Int64()
		return n, formatCUEError(err)
	case cue.FloatKind:
		f, err := v.Float64()
		return f, formatCUEError(err)
	case cue.StringKind:
		s, err := v.String()
		return s, formatCUEError(err)
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := []any{}
		for iter.Next() {
			e, err := goValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := map[string]any{}
		for iter.Next() {
			e, err := goValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Selector().Unquoted()] = e
		}
		return out, nil
	}
	return nil, errorf("value", v, "value must be concrete, got %v", v.Kind())
}

func fieldNames(v cue.Value) ([]string, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var keys []string
	for iter.Next() {
		keys = append(keys, iter.Selector().Unquoted())
	}
	return keys, nil
}

func shapeName(shape string) string {
	if shape == "" {
		return "recursive"
	}
	return shape
}
