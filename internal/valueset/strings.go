package valueset

import (
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/matchdag/internal/ir"
)

type stringDomain struct{}

// stringSet is either a finite set (include) or the complement of one.
type stringSet struct {
	include bool
	elems   []string // sorted, unique
}

func (stringDomain) Name() string  { return "string" }
func (stringDomain) Ordered() bool { return false }
func (stringDomain) Finite() bool  { return false }
func (stringDomain) All() Set      { return &stringSet{include: false} }
func (stringDomain) None() Set     { return &stringSet{include: true} }

func (d stringDomain) Related(op ir.RelOp, v ir.IRValue) Set {
	s, ok := ir.Unwrap(v).(ir.IRString)
	if !ok || op != ir.OpEq {
		return d.None()
	}
	return &stringSet{include: true, elems: []string{string(s)}}
}

func (s *stringSet) IsEmpty() bool { return s.include && len(s.elems) == 0 }
func (s *stringSet) IsFull() bool  { return !s.include && len(s.elems) == 0 }

func (s *stringSet) Contains(v ir.IRValue) bool {
	str, ok := ir.Unwrap(v).(ir.IRString)
	if !ok {
		return false
	}
	_, found := slices.BinarySearch(s.elems, string(str))
	return found == s.include
}

func (s *stringSet) Intersect(o Set) Set {
	other := o.(*stringSet)
	switch {
	case s.include && other.include:
		return &stringSet{include: true, elems: intersectSorted(s.elems, other.elems)}
	case s.include:
		return &stringSet{include: true, elems: subtractSorted(s.elems, other.elems)}
	case other.include:
		return &stringSet{include: true, elems: subtractSorted(other.elems, s.elems)}
	default:
		return &stringSet{include: false, elems: unionSorted(s.elems, other.elems)}
	}
}

func (s *stringSet) Union(o Set) Set {
	return s.Complement().Intersect(o.Complement()).Complement()
}

func (s *stringSet) Complement() Set {
	return &stringSet{include: !s.include, elems: s.elems}
}

func (s *stringSet) Sample() (ir.IRValue, bool) {
	if s.include {
		if len(s.elems) == 0 {
			return nil, false
		}
		return ir.IRString(s.elems[0]), true
	}
	candidates := []string{"", "a", "b", "c"}
	for i := 0; ; i++ {
		var c string
		if i < len(candidates) {
			c = candidates[i]
		} else {
			c = "s" + strconv.Itoa(i)
		}
		if _, found := slices.BinarySearch(s.elems, c); !found {
			return ir.IRString(c), true
		}
	}
}

func (s *stringSet) Values() ([]ir.IRValue, bool) {
	if !s.include {
		return nil, false
	}
	out := make([]ir.IRValue, len(s.elems))
	for i, e := range s.elems {
		out[i] = ir.IRString(e)
	}
	return out, true
}

func (s *stringSet) String() string {
	parts := make([]string, len(s.elems))
	for i, e := range s.elems {
		parts[i] = strconv.Quote(e)
	}
	body := "{" + strings.Join(parts, ", ") + "}"
	if s.include {
		return body
	}
	return "not " + body
}

func intersectSorted(a, b []string) []string {
	var out []string
	for _, x := range a {
		if _, ok := slices.BinarySearch(b, x); ok {
			out = append(out, x)
		}
	}
	return out
}

func subtractSorted(a, b []string) []string {
	var out []string
	for _, x := range a {
		if _, ok := slices.BinarySearch(b, x); !ok {
			out = append(out, x)
		}
	}
	return out
}

func unionSorted(a, b []string) []string {
	out := append(append([]string(nil), a...), b...)
	slices.Sort(out)
	return slices.Compact(out)
}
