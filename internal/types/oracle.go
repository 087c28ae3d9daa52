package types

import (
	"fmt"

	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/ir"
)

// Oracle answers the symbol questions graph construction needs. It is
// read-only; the builder never mutates it.
type Oracle interface {
	// DeconstructCandidates returns the deconstruction members of t with
	// the given arity, instance members before extension members.
	DeconstructCandidates(t *Type, arity int) []*Deconstructor
	// StructuralTuple reports whether t may satisfy the structural tuple
	// contract (a Length and an integer indexer) at run time.
	StructuralTuple(t *Type) bool
	// StructuralContract returns the contract type itself.
	StructuralContract() *Type
	// Member finds a readable member by name.
	Member(t *Type, name string) (Member, bool)
	// ListShape returns how list patterns read t, or nil.
	ListShape(t *Type) *ListShape
	// ConstantType returns the natural type of a constant.
	ConstantType(v ir.IRValue) *Type
	// LengthType returns the type of length probes and structural items.
	LengthType() *Type
	// ObjectType returns the root of the type hierarchy.
	ObjectType() *Type
}

var _ Oracle = (*Universe)(nil)

// DeconstructCandidates implements Oracle.
func (u *Universe) DeconstructCandidates(t *Type, arity int) []*Deconstructor {
	var instance, extension []*Deconstructor
	for cur := t.Underlying(); cur != nil; cur = cur.Base {
		for i := range cur.Deconstructors {
			d := &cur.Deconstructors[i]
			if d.Arity() != arity {
				continue
			}
			if d.Extension {
				extension = append(extension, d)
			} else {
				instance = append(instance, d)
			}
		}
		// Members declared on a derived type hide base members.
		if len(instance) > 0 {
			break
		}
	}
	return append(instance, extension...)
}

// StructuralTuple implements Oracle.
func (u *Universe) StructuralTuple(t *Type) bool {
	t = t.Underlying()
	if t.ByRefLike || t.Kind == KindPointer {
		return false
	}
	return t.Kind == KindObject || AssignableTo(t, u.ITuple)
}

// StructuralContract implements Oracle.
func (u *Universe) StructuralContract() *Type { return u.ITuple }

// Member implements Oracle.
func (u *Universe) Member(t *Type, name string) (Member, bool) {
	t = t.Underlying()
	for cur := t; cur != nil; cur = cur.Base {
		for _, m := range cur.Members {
			if m.Name == name {
				return m, true
			}
		}
	}
	if t.Kind == KindInterface {
		for _, i := range t.Interfaces {
			if m, ok := u.Member(i, name); ok {
				return m, true
			}
		}
	}
	return Member{}, false
}

// ListShape implements Oracle.
func (u *Universe) ListShape(t *Type) *ListShape {
	t = t.Underlying()
	for cur := t; cur != nil; cur = cur.Base {
		if cur.List != nil {
			return cur.List
		}
	}
	return nil
}

// ConstantType implements Oracle.
func (u *Universe) ConstantType(v ir.IRValue) *Type {
	switch val := v.(type) {
	case ir.IRBool:
		return u.Bool
	case ir.IRInt:
		return u.Int
	case ir.IRFloat:
		return u.Double
	case ir.IRChar:
		return u.Char
	case ir.IRString:
		return u.String
	case ir.IRTyped:
		if t, err := u.Lookup(val.Type); err == nil {
			return t
		}
	}
	return nil
}

// LengthType implements Oracle.
func (u *Universe) LengthType() *Type { return u.Int }

// ObjectType implements Oracle.
func (u *Universe) ObjectType() *Type { return u.Object }

// DeconstructKind says how positional sub-patterns read their values.
type DeconstructKind uint8

const (
	// DeconstructTuple reads tuple elements directly.
	DeconstructTuple DeconstructKind = iota
	// DeconstructMember calls a deconstruction member once.
	DeconstructMember
	// DeconstructStructural uses the structural tuple contract.
	DeconstructStructural
)

func (k DeconstructKind) String() string {
	switch k {
	case DeconstructTuple:
		return "tuple"
	case DeconstructMember:
		return "member"
	case DeconstructStructural:
		return "structural"
	default:
		return fmt.Sprintf("deconstruct(%d)", uint8(k))
	}
}

// Resolution is the chosen deconstruction mechanism for (type, arity).
type Resolution struct {
	Kind    DeconstructKind
	Method  *Deconstructor // DeconstructMember only
	Outputs []*Type        // static types of the positional values
	// Contract is set when the structural contract must be established by
	// a runtime type test first.
	Contract *Type
}

// ResolveError reports why no deconstruction could be chosen.
type ResolveError struct {
	Code       string
	Type       *Type
	Arity      int
	Candidates []*Deconstructor
}

func (e *ResolveError) Error() string {
	switch e.Code {
	case diag.CodeAmbiguousDeconstruct:
		return fmt.Sprintf("ambiguous deconstruction of %s with %d elements: %s and %s",
			e.Type, e.Arity, e.Candidates[0], e.Candidates[1])
	default:
		return fmt.Sprintf("no deconstruction of %s with %d elements", e.Type, e.Arity)
	}
}

// ResolveDeconstruction chooses how to deconstruct t into arity values:
// a tuple type reads its elements; otherwise a unique applicable member
// wins (instance before extension, two candidates at the same level are
// ambiguous); otherwise the structural contract is used if t may satisfy
// it. A member of the wrong arity never blocks the structural fallback.
func ResolveDeconstruction(o Oracle, t *Type, arity int) (Resolution, error) {
	t = t.Underlying()
	if t.Kind == KindTuple {
		if len(t.Elems) != arity {
			return Resolution{}, &ResolveError{Code: diag.CodeMissingDeconstruct, Type: t, Arity: arity}
		}
		return Resolution{Kind: DeconstructTuple, Outputs: t.Elems}, nil
	}

	candidates := o.DeconstructCandidates(t, arity)
	if len(candidates) > 0 {
		first := candidates[0]
		if len(candidates) > 1 && candidates[1].Extension == first.Extension {
			return Resolution{}, &ResolveError{
				Code:       diag.CodeAmbiguousDeconstruct,
				Type:       t,
				Arity:      arity,
				Candidates: candidates[:2],
			}
		}
		outputs := make([]*Type, len(first.Params))
		for i, p := range first.Params {
			outputs[i] = p.Type
		}
		return Resolution{Kind: DeconstructMember, Method: first, Outputs: outputs}, nil
	}

	if o.StructuralTuple(t) {
		contract := o.StructuralContract()
		res := Resolution{Kind: DeconstructStructural, Outputs: make([]*Type, arity)}
		for i := range res.Outputs {
			res.Outputs[i] = o.ObjectType()
		}
		if !AssignableTo(t, contract) {
			res.Contract = contract
		}
		return res, nil
	}

	return Resolution{}, &ResolveError{Code: diag.CodeMissingDeconstruct, Type: t, Arity: arity}
}
