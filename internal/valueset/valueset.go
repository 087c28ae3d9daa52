// Package valueset represents sets of scalar values per domain. The graph
// builder records what a path has learned about a value as a Set, and the
// analyzer samples witnesses from what remains uncovered.
//
// Every Set belongs to one Domain; combining sets of different domains is
// a programming error.
package valueset

import (
	"math"

	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/types"
)

// Set is an immutable set of values of one domain.
type Set interface {
	IsEmpty() bool
	IsFull() bool
	Contains(v ir.IRValue) bool
	Intersect(o Set) Set
	Union(o Set) Set
	Complement() Set
	// Sample returns a representative member: zero when present, else the
	// value nearest zero, else an infinity, else NaN.
	Sample() (ir.IRValue, bool)
	// Values enumerates a finite set; ok is false for sets too large to list.
	Values() (vals []ir.IRValue, ok bool)
	String() string
}

// Domain is the universe of values of one scalar type.
type Domain interface {
	Name() string
	All() Set
	None() Set
	// Related returns the values x with "x op v".
	Related(op ir.RelOp, v ir.IRValue) Set
	Ordered() bool
	Finite() bool
}

// Subset reports whether a is contained in b.
func Subset(a, b Set) bool {
	return a.Intersect(b.Complement()).IsEmpty()
}

// Disjoint reports whether a and b share no value.
func Disjoint(a, b Set) bool {
	return a.Intersect(b).IsEmpty()
}

// For returns the value domain of a type, looking through nullability.
func For(t *types.Type) (Domain, bool) {
	t = t.Underlying()
	switch t.Kind {
	case types.KindBool:
		return boolDomain, true
	case types.KindChar:
		return &intDomain{name: t.Name, min: 0, max: 0xFFFF, char: true}, true
	case types.KindInt:
		lo, hi := intBounds(t.Bits, t.Unsigned)
		return &intDomain{name: t.Name, min: lo, max: hi}, true
	case types.KindFloat:
		return &floatDomain{name: t.Name, bits: t.Bits}, true
	case types.KindString:
		return stringDomain{}, true
	case types.KindEnum:
		vals := make([]ir.IRValue, len(t.EnumMembers))
		names := make([]string, len(t.EnumMembers))
		for i, m := range t.EnumMembers {
			vals[i] = ir.IRInt(m.Value)
			names[i] = t.Name + "." + m.Name
		}
		return &finiteDomain{name: t.Name, universe: vals, labels: names, ordered: true}, true
	}
	return nil, false
}

// Length returns the domain of length probes: [0, int.MaxValue].
func Length() Domain {
	return lengthDomain
}

var lengthDomain = &intDomain{name: "length", min: 0, max: math.MaxInt32}

var boolDomain = &finiteDomain{
	name:     "bool",
	universe: []ir.IRValue{ir.IRBool(false), ir.IRBool(true)},
	labels:   []string{"false", "true"},
}

func intBounds(bits int, unsigned bool) (int64, int64) {
	if bits <= 0 || bits > 64 {
		bits = 64
	}
	if unsigned {
		if bits == 64 {
			// ulong values above long.MaxValue are not representable.
			return 0, math.MaxInt64
		}
		return 0, int64(1)<<bits - 1
	}
	if bits == 64 {
		return math.MinInt64, math.MaxInt64
	}
	return -(int64(1) << (bits - 1)), int64(1)<<(bits-1) - 1
}
