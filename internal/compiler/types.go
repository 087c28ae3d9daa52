package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/matchdag/internal/types"
)

type declared struct {
	t *types.Type
	v cue.Value
}

// compileTypes defines every type of the types struct in u. Names are
// registered first so members, bases and deconstruction parameters may
// refer to any declared type, including the type itself.
func compileTypes(u *types.Universe, v cue.Value) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	var decls []declared
	for iter.Next() {
		name := iter.Selector().Unquoted()
		tv := iter.Value()
		kindName, err := tv.LookupPath(cue.ParsePath("kind")).String()
		if err != nil {
			return formatCUEError(err)
		}
		kind, err := types.ParseKind(kindName)
		if err != nil {
			return errorf("types."+name+".kind", tv, "%v", err)
		}
		t := &types.Type{Name: name, Kind: kind}
		if err := u.Define(t); err != nil {
			return errorf("types."+name, tv, "%v", err)
		}
		decls = append(decls, declared{t: t, v: tv})
	}

	for _, d := range decls {
		if err := fillType(u, d.t, d.v); err != nil {
			return err
		}
	}
	if cycles := InheritanceCycles(u.Types()); len(cycles) > 0 {
		c := cycles[0]
		return &CompileError{Field: "types." + c.Path[0] + ".base", Message: c.Message}
	}
	return nil
}

func fillType(u *types.Universe, t *types.Type, v cue.Value) error {
	field := "types." + t.Name
	lookup := func(sub string, tv cue.Value) (*types.Type, error) {
		name, err := tv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		found, err := u.Lookup(name)
		if err != nil {
			return nil, errorf(field+"."+sub, tv, "%v", err)
		}
		return found, nil
	}

	if bv := v.LookupPath(cue.ParsePath("base")); bv.Exists() {
		base, err := lookup("base", bv)
		if err != nil {
			return err
		}
		if t.Kind != types.KindClass || base.Kind != types.KindClass {
			return errorf(field+".base", bv, "only classes derive from classes; %s is a %s", base.Name, base.Kind)
		}
		if base.Sealed {
			return errorf(field+".base", bv, "cannot derive from sealed class %s", base.Name)
		}
		t.Base = base
	}
	if sv := v.LookupPath(cue.ParsePath("sealed")); sv.Exists() {
		sealed, err := sv.Bool()
		if err != nil {
			return formatCUEError(err)
		}
		t.Sealed = t.Sealed || sealed
	}
	if rv := v.LookupPath(cue.ParsePath("ref_like")); rv.Exists() {
		refLike, err := rv.Bool()
		if err != nil {
			return formatCUEError(err)
		}
		if refLike && t.Kind != types.KindStruct {
			return errorf(field+".ref_like", rv, "only structs can be ref-like")
		}
		t.ByRefLike = refLike
	}

	if iv := v.LookupPath(cue.ParsePath("interfaces")); iv.Exists() {
		items, err := iv.List()
		if err != nil {
			return formatCUEError(err)
		}
		for items.Next() {
			it, err := lookup("interfaces", items.Value())
			if err != nil {
				return err
			}
			if it.Kind != types.KindInterface {
				return errorf(field+".interfaces", items.Value(), "%s is not an interface", it.Name)
			}
			t.Interfaces = append(t.Interfaces, it)
		}
	}

	if mv := v.LookupPath(cue.ParsePath("members")); mv.Exists() {
		iter, err := mv.Fields()
		if err != nil {
			return formatCUEError(err)
		}
		for iter.Next() {
			mt, err := lookup("members", iter.Value())
			if err != nil {
				return err
			}
			t.Members = append(t.Members, types.Member{Name: iter.Selector().Unquoted(), Type: mt})
		}
	}

	if ev := v.LookupPath(cue.ParsePath("values")); ev.Exists() {
		if t.Kind != types.KindEnum {
			return errorf(field+".values", ev, "only enums have values")
		}
		iter, err := ev.Fields()
		if err != nil {
			return formatCUEError(err)
		}
		for iter.Next() {
			n, err := iter.Value().Int64()
			if err != nil {
				return formatCUEError(err)
			}
			t.EnumMembers = append(t.EnumMembers, types.EnumMember{Name: iter.Selector().Unquoted(), Value: n})
		}
	}
	if uv := v.LookupPath(cue.ParsePath("underlying")); uv.Exists() {
		elem, err := lookup("underlying", uv)
		if err != nil {
			return err
		}
		if t.Kind != types.KindEnum || elem.Kind != types.KindInt {
			return errorf(field+".underlying", uv, "only enums have an underlying integer type")
		}
		t.Elem = elem
	}

	for _, ext := range []bool{false, true} {
		key := "deconstruct"
		if ext {
			key = "extension_deconstruct"
		}
		dv := v.LookupPath(cue.ParsePath(key))
		if !dv.Exists() {
			continue
		}
		sigs, err := dv.List()
		if err != nil {
			return formatCUEError(err)
		}
		for sigs.Next() {
			d, err := compileDeconstructor(u, t, field+"."+key, sigs.Value())
			if err != nil {
				return err
			}
			d.Owner = t
			d.Extension = ext
			t.Deconstructors = append(t.Deconstructors, *d)
		}
	}

	if lv := v.LookupPath(cue.ParsePath("list")); lv.Exists() {
		shape := &types.ListShape{}
		length, err := lv.LookupPath(cue.ParsePath("length")).String()
		if err != nil {
			return formatCUEError(err)
		}
		if m, ok := member(t, length); !ok || m.Type.Kind != types.KindInt {
			return errorf(field+".list.length", lv, "length member %q must be an int member of %s", length, t.Name)
		}
		shape.LengthMember = length
		if shape.Elem, err = lookup("list.elem", lv.LookupPath(cue.ParsePath("elem"))); err != nil {
			return err
		}
		if sv := lv.LookupPath(cue.ParsePath("slice")); sv.Exists() {
			if shape.Slice, err = lookup("list.slice", sv); err != nil {
				return err
			}
		}
		t.List = shape
	}
	return nil
}

// compileDeconstructor reads one signature. A parameter given as a bare
// name takes its type from the member of that name.
func compileDeconstructor(u *types.Universe, t *types.Type, field string, v cue.Value) (*types.Deconstructor, error) {
	params, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	d := &types.Deconstructor{}
	for params.Next() {
		pv := params.Value()
		if name, err := pv.String(); err == nil {
			m, ok := member(t, name)
			if !ok {
				return nil, errorf(field, pv, "%s has no member %q to deconstruct", t.Name, name)
			}
			d.Params = append(d.Params, types.Param{Name: name, Type: m.Type})
			continue
		}
		var p struct {
			Name  string `json:"name"`
			Type  string `json:"type"`
			Field string `json:"field"`
		}
		if err := pv.Decode(&p); err != nil {
			return nil, formatCUEError(err)
		}
		pt, err := u.Lookup(p.Type)
		if err != nil {
			return nil, errorf(field, pv, "%v", err)
		}
		if p.Field != "" {
			if _, ok := member(t, p.Field); !ok {
				return nil, errorf(field, pv, "%s has no member %q", t.Name, p.Field)
			}
		} else if _, ok := member(t, p.Name); !ok {
			return nil, errorf(field, pv, "parameter %q needs a field: %s has no member of that name", p.Name, t.Name)
		}
		d.Params = append(d.Params, types.Param{Name: p.Name, Type: pt, Field: p.Field})
	}
	return d, nil
}

func member(t *types.Type, name string) (types.Member, bool) {
	for _, m := range t.Members {
		if m.Name == name {
			return m, true
		}
	}
	return types.Member{}, false
}
