package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/matchdag/internal/analysis"
	"github.com/roach88/matchdag/internal/decision"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/pattern"
	"github.com/roach88/matchdag/internal/types"
)

// Construct is one is-expression or switch with its arms.
type Construct struct {
	Name  string
	Kind  analysis.Kind
	Input *types.Type
	Arms  []decision.Arm
	// Inputs are sample values for running the construct's plan.
	Inputs []ir.IRValue
	Pos    token.Pos
}

// CompileConstruct compiles the construct value v, resolving type names
// in u.
func CompileConstruct(u *types.Universe, name string, v cue.Value) (*Construct, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	field := "construct." + name
	c := &Construct{Name: name, Pos: v.Pos()}

	kind, err := v.LookupPath(cue.ParsePath("kind")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if c.Kind, err = analysis.ParseKind(kind); err != nil {
		return nil, errorf(field+".kind", v, "%v", err)
	}

	iv := v.LookupPath(cue.ParsePath("input"))
	input, err := iv.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if c.Input, err = u.Lookup(input); err != nil {
		return nil, errorf(field+".input", iv, "%v", err)
	}

	arms, err := v.LookupPath(cue.ParsePath("arms")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; arms.Next(); i++ {
		av := arms.Value()
		armField := fmt.Sprintf("%s.arms[%d]", field, i)
		p, err := (&patternCompiler{u: u}).compile(av.LookupPath(cue.ParsePath("pattern")), armField+".pattern")
		if err != nil {
			return nil, err
		}
		arm := decision.Arm{Pattern: p}
		if wv := av.LookupPath(cue.ParsePath("when")); wv.Exists() {
			if arm.Guard, err = wv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if tv := av.LookupPath(cue.ParsePath("text")); tv.Exists() {
			if arm.Text, err = tv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		c.Arms = append(c.Arms, arm)
	}
	if len(c.Arms) == 0 {
		return nil, errorf(field+".arms", v, "at least one arm is required")
	}

	if inputs := v.LookupPath(cue.ParsePath("inputs")); inputs.Exists() {
		iter, err := inputs.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			val, err := Value(iter.Value(), fmt.Sprintf("%s.inputs[%d]", field, i))
			if err != nil {
				return nil, err
			}
			c.Inputs = append(c.Inputs, pattern.ConvertConstant(val, c.Input))
		}
	}
	return c, nil
}

// Fingerprint identifies the construct together with the declared types it
// is compiled against. Equal fingerprints build equal graphs.
func (c *Construct) Fingerprint(u *types.Universe) string {
	arms := make([]any, len(c.Arms))
	for i, a := range c.Arms {
		arms[i] = map[string]any{
			"pattern": pattern.Format(a.Pattern),
			"when":    a.Guard,
			"text":    a.Text,
		}
	}
	decls := []any{}
	for _, t := range u.Types() {
		decls = append(decls, typeSignature(t))
	}
	return ir.MustFingerprint(ir.DomainConstruct, map[string]any{
		"kind":  c.Kind.String(),
		"input": c.Input.Name,
		"arms":  arms,
		"types": decls,
	})
}

func typeSignature(t *types.Type) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", t.Kind, t.Name)
	if t.Base != nil {
		fmt.Fprintf(&b, " : %s", t.Base.Name)
	}
	for _, it := range t.Interfaces {
		fmt.Fprintf(&b, " +%s", it.Name)
	}
	if t.Sealed {
		b.WriteString(" sealed")
	}
	if t.ByRefLike {
		b.WriteString(" ref")
	}
	for _, m := range t.Members {
		fmt.Fprintf(&b, " %s:%s", m.Name, m.Type.Name)
	}
	for i := range t.Deconstructors {
		d := &t.Deconstructors[i]
		b.WriteString(" " + d.String())
		for _, p := range d.Params {
			if p.Field != "" {
				fmt.Fprintf(&b, " %s=%s", p.Name, p.Field)
			}
		}
	}
	for _, m := range t.EnumMembers {
		fmt.Fprintf(&b, " %s=%d", m.Name, m.Value)
	}
	if t.List != nil {
		fmt.Fprintf(&b, " list(%s, %s", t.List.LengthMember, t.List.Elem.Name)
		if t.List.Slice != nil {
			b.WriteString(", " + t.List.Slice.Name)
		}
		b.WriteString(")")
	}
	return b.String()
}
