package valueset

import (
	"math"
	"strings"

	"github.com/roach88/matchdag/internal/ir"
)

type floatDomain struct {
	name string
	bits int
}

type finterval struct{ lo, hi float64 }

// floatSet is a sorted list of disjoint closed intervals over the ordered
// floats (infinities included) plus a separate NaN member.
type floatSet struct {
	dom *floatDomain
	iv  []finterval
	nan bool
}

func (d *floatDomain) Name() string  { return d.name }
func (d *floatDomain) Ordered() bool { return true }
func (d *floatDomain) Finite() bool  { return false }

func (d *floatDomain) All() Set {
	return &floatSet{dom: d, iv: []finterval{{math.Inf(-1), math.Inf(1)}}, nan: true}
}

func (d *floatDomain) None() Set { return &floatSet{dom: d} }

// Related never includes NaN for an ordered operator; NaN == NaN only for
// the equality of a NaN constant.
func (d *floatDomain) Related(op ir.RelOp, v ir.IRValue) Set {
	x, ok := toFloat(v)
	if !ok {
		return d.None()
	}
	if math.IsNaN(x) {
		if op == ir.OpEq {
			return &floatSet{dom: d, nan: true}
		}
		return d.None()
	}
	if x == 0 {
		x = 0 // fold -0
	}
	lo, hi := math.Inf(-1), math.Inf(1)
	switch op {
	case ir.OpEq:
		lo, hi = x, x
	case ir.OpLt:
		if math.IsInf(x, -1) {
			return d.None()
		}
		hi = d.prev(x)
	case ir.OpLe:
		hi = x
	case ir.OpGt:
		if math.IsInf(x, 1) {
			return d.None()
		}
		lo = d.next(x)
	case ir.OpGe:
		lo = x
	}
	return &floatSet{dom: d, iv: []finterval{{lo, hi}}}
}

func (d *floatDomain) next(x float64) float64 {
	if d.bits == 32 {
		return float64(math.Nextafter32(float32(x), float32(math.Inf(1))))
	}
	return math.Nextafter(x, math.Inf(1))
}

func (d *floatDomain) prev(x float64) float64 {
	if d.bits == 32 {
		return float64(math.Nextafter32(float32(x), float32(math.Inf(-1))))
	}
	return math.Nextafter(x, math.Inf(-1))
}

func toFloat(v ir.IRValue) (float64, bool) {
	switch val := ir.Unwrap(v).(type) {
	case ir.IRFloat:
		return float64(val), true
	case ir.IRInt:
		return float64(val), true
	}
	return 0, false
}

func (s *floatSet) IsEmpty() bool { return len(s.iv) == 0 && !s.nan }

func (s *floatSet) IsFull() bool {
	return s.nan && len(s.iv) == 1 && math.IsInf(s.iv[0].lo, -1) && math.IsInf(s.iv[0].hi, 1)
}

func (s *floatSet) Contains(v ir.IRValue) bool {
	x, ok := toFloat(v)
	if !ok {
		return false
	}
	if math.IsNaN(x) {
		return s.nan
	}
	for _, r := range s.iv {
		if x >= r.lo && x <= r.hi {
			return true
		}
	}
	return false
}

func (s *floatSet) Intersect(o Set) Set {
	other := o.(*floatSet)
	out := &floatSet{dom: s.dom, nan: s.nan && other.nan}
	i, j := 0, 0
	for i < len(s.iv) && j < len(other.iv) {
		a, b := s.iv[i], other.iv[j]
		lo, hi := math.Max(a.lo, b.lo), math.Min(a.hi, b.hi)
		if lo <= hi {
			out.iv = append(out.iv, finterval{lo, hi})
		}
		if a.hi < b.hi {
			i++
		} else {
			j++
		}
	}
	return out
}

func (s *floatSet) Union(o Set) Set {
	return s.Complement().Intersect(o.Complement()).Complement()
}

func (s *floatSet) Complement() Set {
	out := &floatSet{dom: s.dom, nan: !s.nan}
	next := math.Inf(-1)
	atEnd := false
	for _, r := range s.iv {
		if r.lo > next {
			out.iv = append(out.iv, finterval{next, s.dom.prev(r.lo)})
		}
		if math.IsInf(r.hi, 1) {
			atEnd = true
			break
		}
		next = s.dom.next(r.hi)
	}
	if !atEnd {
		out.iv = append(out.iv, finterval{next, math.Inf(1)})
	}
	return out
}

func (s *floatSet) Sample() (ir.IRValue, bool) {
	best, found := 0.0, false
	for _, r := range s.iv {
		var c float64
		switch {
		case r.lo <= 0 && r.hi >= 0:
			return ir.IRFloat(0), true
		case r.lo > 0:
			c = r.lo
		default:
			c = r.hi
		}
		if math.IsInf(c, 0) {
			continue
		}
		if !found || math.Abs(c) < math.Abs(best) || (math.Abs(c) == math.Abs(best) && c > best) {
			best, found = c, true
		}
	}
	if found {
		return ir.IRFloat(best), true
	}
	for _, r := range s.iv {
		if math.IsInf(r.hi, 1) {
			return ir.IRFloat(math.Inf(1)), true
		}
	}
	if len(s.iv) > 0 {
		return ir.IRFloat(math.Inf(-1)), true
	}
	if s.nan {
		return ir.IRFloat(math.NaN()), true
	}
	return nil, false
}

func (s *floatSet) Values() ([]ir.IRValue, bool) {
	var out []ir.IRValue
	for _, r := range s.iv {
		if r.lo != r.hi {
			return nil, false
		}
		out = append(out, ir.IRFloat(r.lo))
	}
	if s.nan {
		out = append(out, ir.IRFloat(math.NaN()))
	}
	return out, true
}

func (s *floatSet) String() string {
	var parts []string
	for _, r := range s.iv {
		if r.lo == r.hi {
			parts = append(parts, ir.FormatFloat(r.lo))
		} else {
			parts = append(parts, "["+ir.FormatFloat(r.lo)+".."+ir.FormatFloat(r.hi)+"]")
		}
	}
	if s.nan {
		parts = append(parts, "NaN")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
