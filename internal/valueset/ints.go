package valueset

import (
	"fmt"
	"strings"

	"github.com/roach88/matchdag/internal/ir"
)

type intDomain struct {
	name     string
	min, max int64
	char     bool
}

type interval struct{ lo, hi int64 }

// intSet is a sorted list of disjoint, non-adjacent closed intervals.
type intSet struct {
	dom *intDomain
	iv  []interval
}

func (d *intDomain) Name() string  { return d.name }
func (d *intDomain) Ordered() bool { return true }
func (d *intDomain) Finite() bool  { return false }

func (d *intDomain) All() Set  { return &intSet{dom: d, iv: []interval{{d.min, d.max}}} }
func (d *intDomain) None() Set { return &intSet{dom: d} }

func (d *intDomain) Related(op ir.RelOp, v ir.IRValue) Set {
	x, ok := toInt(v)
	if !ok {
		return d.None()
	}
	lo, hi := d.min, d.max
	switch op {
	case ir.OpEq:
		lo, hi = x, x
	case ir.OpLt:
		if x <= d.min {
			return d.None()
		}
		hi = x - 1
	case ir.OpLe:
		hi = x
	case ir.OpGt:
		if x >= d.max {
			return d.None()
		}
		lo = x + 1
	case ir.OpGe:
		lo = x
	}
	lo, hi = max(lo, d.min), min(hi, d.max)
	if lo > hi {
		return d.None()
	}
	return &intSet{dom: d, iv: []interval{{lo, hi}}}
}

func (d *intDomain) value(x int64) ir.IRValue {
	if d.char {
		return ir.IRChar(rune(x))
	}
	return ir.IRInt(x)
}

func toInt(v ir.IRValue) (int64, bool) {
	switch val := ir.Unwrap(v).(type) {
	case ir.IRInt:
		return int64(val), true
	case ir.IRChar:
		return int64(val), true
	}
	return 0, false
}

func (s *intSet) IsEmpty() bool { return len(s.iv) == 0 }

func (s *intSet) IsFull() bool {
	return len(s.iv) == 1 && s.iv[0].lo == s.dom.min && s.iv[0].hi == s.dom.max
}

func (s *intSet) Contains(v ir.IRValue) bool {
	x, ok := toInt(v)
	if !ok {
		return false
	}
	for _, r := range s.iv {
		if x >= r.lo && x <= r.hi {
			return true
		}
	}
	return false
}

func (s *intSet) Intersect(o Set) Set {
	other := o.(*intSet)
	var out []interval
	i, j := 0, 0
	for i < len(s.iv) && j < len(other.iv) {
		a, b := s.iv[i], other.iv[j]
		lo, hi := max(a.lo, b.lo), min(a.hi, b.hi)
		if lo <= hi {
			out = append(out, interval{lo, hi})
		}
		if a.hi < b.hi {
			i++
		} else {
			j++
		}
	}
	return &intSet{dom: s.dom, iv: out}
}

func (s *intSet) Union(o Set) Set {
	return s.Complement().Intersect(o.Complement()).Complement()
}

func (s *intSet) Complement() Set {
	var out []interval
	next := s.dom.min
	atEnd := false
	for _, r := range s.iv {
		if r.lo > next {
			out = append(out, interval{next, r.lo - 1})
		}
		if r.hi == s.dom.max {
			atEnd = true
			break
		}
		next = r.hi + 1
	}
	if !atEnd {
		out = append(out, interval{next, s.dom.max})
	}
	return &intSet{dom: s.dom, iv: out}
}

func (s *intSet) Sample() (ir.IRValue, bool) {
	if len(s.iv) == 0 {
		return nil, false
	}
	best, found := int64(0), false
	abs := func(x int64) uint64 {
		if x < 0 {
			return uint64(-(x + 1)) + 1
		}
		return uint64(x)
	}
	for _, r := range s.iv {
		var c int64
		switch {
		case r.lo <= 0 && r.hi >= 0:
			return s.dom.value(0), true
		case r.lo > 0:
			c = r.lo
		default:
			c = r.hi
		}
		if !found || abs(c) < abs(best) || (abs(c) == abs(best) && c > best) {
			best, found = c, true
		}
	}
	return s.dom.value(best), true
}

func (s *intSet) Values() ([]ir.IRValue, bool) {
	const limit = 64
	var out []ir.IRValue
	for _, r := range s.iv {
		if uint64(r.hi-r.lo) >= limit || len(out)+int(r.hi-r.lo)+1 > limit {
			return nil, false
		}
		for x := r.lo; x <= r.hi; x++ {
			out = append(out, s.dom.value(x))
		}
	}
	return out, true
}

func (s *intSet) String() string {
	if len(s.iv) == 0 {
		return "{}"
	}
	parts := make([]string, len(s.iv))
	for i, r := range s.iv {
		if r.lo == r.hi {
			parts[i] = ir.Format(s.dom.value(r.lo))
		} else {
			parts[i] = fmt.Sprintf("[%s..%s]", ir.Format(s.dom.value(r.lo)), ir.Format(s.dom.value(r.hi)))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
