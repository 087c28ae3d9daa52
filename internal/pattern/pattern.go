package pattern

import (
	"fmt"

	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/types"
)

// Pattern is a sealed interface over pattern shapes. Only the types in
// this file implement it. Patterns are immutable once built; every node
// is a pointer so it has identity (analysis reports findings against
// specific sub-patterns).
type Pattern interface {
	pattern() // Sealed - only these types implement it
	// Source returns the text the pattern was written as, if known.
	Source() string
}

// Discard matches anything and binds nothing: _
type Discard struct {
	Src string
}

// Var always matches and binds Name. With Inner set it matches Inner
// first and binds the same value.
type Var struct {
	Name  string
	Inner Pattern
	Src   string
}

// Declaration matches a non-null value of Type and optionally binds it.
type Declaration struct {
	Type *types.Type
	Name string
	Src  string
}

// Constant matches by value equality. A null Value matches null; a NaN
// floating constant matches NaN. Type is the constant's type; nil means
// the constant was converted to the input type.
type Constant struct {
	Value ir.IRValue
	Type  *types.Type
	Src   string
}

// Relational matches by ordered comparison against Value.
type Relational struct {
	Op    ir.RelOp
	Value ir.IRValue
	Type  *types.Type
	Src   string
}

// Property is one named sub-pattern of a recursive pattern. Name may be a
// dotted path (A.B.C).
type Property struct {
	Name    string
	Pattern Pattern
}

// Recursive is a structural pattern: an optional type test, optional
// positional sub-patterns obtained by deconstruction (nil means absent,
// empty means "()"), and property sub-patterns.
type Recursive struct {
	Type       *types.Type
	Positional []Pattern
	Properties []Property
	Name       string
	Src        string
}

// List matches sequences element-wise. At most one element may be a
// *Slice.
type List struct {
	Type     *types.Type
	Elements []Pattern
	Name     string
	Src      string
}

// Slice matches the remaining middle span of a list: .. or .. inner
type Slice struct {
	Inner Pattern
	Src   string
}

// Negated matches iff Inner does not: not inner
type Negated struct {
	Inner Pattern
	Src   string
}

// BinaryKind distinguishes and/or.
type BinaryKind uint8

const (
	And BinaryKind = iota
	Or
)

func (k BinaryKind) String() string {
	switch k {
	case And:
		return "and"
	case Or:
		return "or"
	default:
		return fmt.Sprintf("binary(%d)", uint8(k))
	}
}

// Binary combines two patterns.
type Binary struct {
	Kind        BinaryKind
	Left, Right Pattern
	Src         string
}

func (*Discard) pattern()     {}
func (*Var) pattern()         {}
func (*Declaration) pattern() {}
func (*Constant) pattern()    {}
func (*Relational) pattern()  {}
func (*Recursive) pattern()   {}
func (*List) pattern()        {}
func (*Slice) pattern()       {}
func (*Negated) pattern()     {}
func (*Binary) pattern()      {}

func (p *Discard) Source() string     { return p.Src }
func (p *Var) Source() string         { return p.Src }
func (p *Declaration) Source() string { return p.Src }
func (p *Constant) Source() string    { return p.Src }
func (p *Relational) Source() string  { return p.Src }
func (p *Recursive) Source() string   { return p.Src }
func (p *List) Source() string        { return p.Src }
func (p *Slice) Source() string       { return p.Src }
func (p *Negated) Source() string     { return p.Src }
func (p *Binary) Source() string      { return p.Src }

// Text returns the source text of p, or its canonical rendering.
func Text(p Pattern) string {
	if p == nil {
		return ""
	}
	if s := p.Source(); s != "" {
		return s
	}
	return Format(p)
}

// Capture returns the name p binds directly, if any.
func Capture(p Pattern) string {
	switch n := p.(type) {
	case *Var:
		return n.Name
	case *Declaration:
		return n.Name
	case *Recursive:
		return n.Name
	case *List:
		return n.Name
	}
	return ""
}

// Children returns the direct sub-patterns of p in source order.
func Children(p Pattern) []Pattern {
	switch n := p.(type) {
	case *Var:
		if n.Inner != nil {
			return []Pattern{n.Inner}
		}
	case *Recursive:
		var out []Pattern
		out = append(out, n.Positional...)
		for _, prop := range n.Properties {
			out = append(out, prop.Pattern)
		}
		return out
	case *List:
		return n.Elements
	case *Slice:
		if n.Inner != nil {
			return []Pattern{n.Inner}
		}
	case *Negated:
		return []Pattern{n.Inner}
	case *Binary:
		return []Pattern{n.Left, n.Right}
	}
	return nil
}

// Walk calls fn for p and each descendant in pre-order. Returning false
// skips the node's children.
func Walk(p Pattern, fn func(Pattern) bool) {
	if p == nil || !fn(p) {
		return
	}
	for _, c := range Children(p) {
		Walk(c, fn)
	}
}

// Captures returns every name bound anywhere in p, in source order.
func Captures(p Pattern) []string {
	var names []string
	Walk(p, func(n Pattern) bool {
		if name := Capture(n); name != "" {
			names = append(names, name)
		}
		return true
	})
	return names
}

// TestsNull reports whether p contains an explicit null constant.
func TestsNull(p Pattern) bool {
	found := false
	Walk(p, func(n Pattern) bool {
		if c, ok := n.(*Constant); ok && ir.IsNull(c.Value) {
			found = true
		}
		return !found
	})
	return found
}
