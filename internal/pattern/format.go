package pattern

import (
	"strings"

	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/types"
)

// Format renders p in the surface syntax: _, var x, T x, 42, < 5,
// T (a, b) { P: p } x, [a, .., b], not p, a and b, a or b.
func Format(p Pattern) string {
	var b strings.Builder
	format(&b, p, 0)
	return b.String()
}

// binding strength, used to decide parenthesization
const (
	precOr = iota + 1
	precAnd
	precUnary
)

func format(b *strings.Builder, p Pattern, outer int) {
	switch n := p.(type) {
	case nil:
		b.WriteString("_")
	case *Discard:
		b.WriteString("_")
	case *Var:
		if n.Inner == nil {
			b.WriteString("var " + n.Name)
			return
		}
		paren(b, outer > precAnd, func() {
			format(b, n.Inner, precAnd)
			b.WriteString(" and var " + n.Name)
		})
	case *Declaration:
		b.WriteString(n.Type.Name)
		if n.Name != "" {
			b.WriteString(" " + n.Name)
		}
	case *Constant:
		b.WriteString(FormatConstant(n.Value, n.Type))
	case *Relational:
		b.WriteString(n.Op.String() + " " + FormatConstant(n.Value, n.Type))
	case *Recursive:
		var parts []string
		if n.Type != nil {
			parts = append(parts, n.Type.Name)
		}
		if n.Positional != nil {
			items := make([]string, len(n.Positional))
			for i, sub := range n.Positional {
				items[i] = Format(sub)
			}
			parts = append(parts, "("+strings.Join(items, ", ")+")")
		}
		if n.Properties != nil || n.Positional == nil {
			props := make([]string, len(n.Properties))
			for i, prop := range n.Properties {
				props[i] = prop.Name + ": " + Format(prop.Pattern)
			}
			if len(props) == 0 {
				parts = append(parts, "{ }")
			} else {
				parts = append(parts, "{ "+strings.Join(props, ", ")+" }")
			}
		}
		if n.Name != "" {
			parts = append(parts, n.Name)
		}
		b.WriteString(strings.Join(parts, " "))
	case *List:
		items := make([]string, len(n.Elements))
		for i, e := range n.Elements {
			items[i] = Format(e)
		}
		if n.Type != nil {
			b.WriteString(n.Type.Name + " ")
		}
		b.WriteString("[" + strings.Join(items, ", ") + "]")
		if n.Name != "" {
			b.WriteString(" " + n.Name)
		}
	case *Slice:
		b.WriteString("..")
		if n.Inner != nil {
			b.WriteString(" ")
			format(b, n.Inner, precUnary)
		}
	case *Negated:
		b.WriteString("not ")
		format(b, n.Inner, precUnary)
	case *Binary:
		prec := precOr
		if n.Kind == And {
			prec = precAnd
		}
		paren(b, outer > prec, func() {
			format(b, n.Left, prec)
			b.WriteString(" " + n.Kind.String() + " ")
			// Right operands of the same kind nest explicitly.
			format(b, n.Right, prec+1)
		})
	}
}

func paren(b *strings.Builder, need bool, body func()) {
	if need {
		b.WriteString("(")
	}
	body()
	if need {
		b.WriteString(")")
	}
}

// FormatConstant renders a constant, naming enum members.
func FormatConstant(v ir.IRValue, t *types.Type) string {
	if t != nil {
		if ut := t.Underlying(); ut.Kind == types.KindEnum {
			if iv, ok := ir.Unwrap(v).(ir.IRInt); ok {
				if name, ok := ut.EnumMemberName(int64(iv)); ok {
					return ut.Name + "." + name
				}
			}
		}
		if ut := t.Underlying(); ut.Kind == types.KindFloat && ut.Bits == 32 {
			if f, ok := ir.Unwrap(v).(ir.IRFloat); ok && ir.IsNaN(f) {
				return "float.NaN"
			}
		}
	}
	return ir.Format(v)
}
