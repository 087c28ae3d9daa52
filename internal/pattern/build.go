package pattern

import (
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/types"
)

// Constructors for building patterns in code and tests.

// D returns the discard pattern.
func D() Pattern { return &Discard{} }

// V returns var name.
func V(name string) Pattern { return &Var{Name: name} }

// Decl returns a type pattern, binding name if non-empty.
func Decl(t *types.Type, name string) Pattern { return &Declaration{Type: t, Name: name} }

// C returns a constant pattern converted to the input type.
func C(v ir.IRValue) Pattern { return &Constant{Value: v} }

// CT returns a constant pattern of an explicit type.
func CT(v ir.IRValue, t *types.Type) Pattern { return &Constant{Value: v, Type: t} }

// Null returns the null constant pattern.
func Null() Pattern { return &Constant{Value: ir.IRNull{}} }

// Rel returns a relational pattern converted to the input type.
func Rel(op ir.RelOp, v ir.IRValue) Pattern { return &Relational{Op: op, Value: v} }

// Pos returns a positional pattern with an optional type.
func Pos(t *types.Type, elems ...Pattern) *Recursive {
	if elems == nil {
		elems = []Pattern{}
	}
	return &Recursive{Type: t, Positional: elems}
}

// Props returns a property pattern with an optional type.
func Props(t *types.Type, props ...Property) *Recursive {
	if props == nil {
		props = []Property{}
	}
	return &Recursive{Type: t, Properties: props}
}

// P returns one property sub-pattern.
func P(name string, p Pattern) Property { return Property{Name: name, Pattern: p} }

// L returns a list pattern.
func L(elems ...Pattern) *List { return &List{Elements: elems} }

// S returns a slice element, optionally with a nested pattern.
func S(inner Pattern) Pattern { return &Slice{Inner: inner} }

// Not negates p.
func Not(p Pattern) Pattern { return &Negated{Inner: p} }

// AndOf folds patterns left-associatively with and.
func AndOf(first Pattern, rest ...Pattern) Pattern {
	return fold(And, first, rest)
}

// OrOf folds patterns left-associatively with or.
func OrOf(first Pattern, rest ...Pattern) Pattern {
	return fold(Or, first, rest)
}

func fold(kind BinaryKind, first Pattern, rest []Pattern) Pattern {
	acc := first
	for _, r := range rest {
		acc = &Binary{Kind: kind, Left: acc, Right: r}
	}
	return acc
}
