package valueset

import (
	"strings"

	"github.com/roach88/matchdag/internal/ir"
)

// finiteDomain enumerates every value: bool and closed enums.
type finiteDomain struct {
	name     string
	universe []ir.IRValue
	labels   []string
	ordered  bool
}

type finiteSet struct {
	dom *finiteDomain
	in  []bool
}

func (d *finiteDomain) Name() string  { return d.name }
func (d *finiteDomain) Ordered() bool { return d.ordered }
func (d *finiteDomain) Finite() bool  { return true }

func (d *finiteDomain) All() Set {
	in := make([]bool, len(d.universe))
	for i := range in {
		in[i] = true
	}
	return &finiteSet{dom: d, in: in}
}

func (d *finiteDomain) None() Set {
	return &finiteSet{dom: d, in: make([]bool, len(d.universe))}
}

func (d *finiteDomain) Related(op ir.RelOp, v ir.IRValue) Set {
	in := make([]bool, len(d.universe))
	for i, u := range d.universe {
		in[i] = d.relate(u, op, v)
	}
	return &finiteSet{dom: d, in: in}
}

func (d *finiteDomain) relate(u ir.IRValue, op ir.RelOp, v ir.IRValue) bool {
	if op == ir.OpEq {
		return ir.Equal(u, v)
	}
	x, ok1 := toInt(u)
	y, ok2 := toInt(v)
	if !ok1 || !ok2 {
		return false
	}
	switch op {
	case ir.OpLt:
		return x < y
	case ir.OpLe:
		return x <= y
	case ir.OpGt:
		return x > y
	case ir.OpGe:
		return x >= y
	}
	return false
}

// Label returns the display name of a value of a finite domain, e.g. an
// enum member name.
func Label(d Domain, v ir.IRValue) string {
	if fd, ok := d.(*finiteDomain); ok {
		for i, u := range fd.universe {
			if ir.Equal(u, v) {
				return fd.labels[i]
			}
		}
	}
	return ir.Format(v)
}

func (s *finiteSet) IsEmpty() bool {
	for _, b := range s.in {
		if b {
			return false
		}
	}
	return true
}

func (s *finiteSet) IsFull() bool {
	for _, b := range s.in {
		if !b {
			return false
		}
	}
	return true
}

func (s *finiteSet) Contains(v ir.IRValue) bool {
	for i, u := range s.dom.universe {
		if s.in[i] && ir.Equal(u, v) {
			return true
		}
	}
	return false
}

func (s *finiteSet) combine(o Set, f func(a, b bool) bool) Set {
	other := o.(*finiteSet)
	in := make([]bool, len(s.in))
	for i := range in {
		in[i] = f(s.in[i], other.in[i])
	}
	return &finiteSet{dom: s.dom, in: in}
}

func (s *finiteSet) Intersect(o Set) Set {
	return s.combine(o, func(a, b bool) bool { return a && b })
}

func (s *finiteSet) Union(o Set) Set {
	return s.combine(o, func(a, b bool) bool { return a || b })
}

func (s *finiteSet) Complement() Set {
	in := make([]bool, len(s.in))
	for i, b := range s.in {
		in[i] = !b
	}
	return &finiteSet{dom: s.dom, in: in}
}

// Sample returns the first member in declaration order.
func (s *finiteSet) Sample() (ir.IRValue, bool) {
	for i, b := range s.in {
		if b {
			return s.dom.universe[i], true
		}
	}
	return nil, false
}

func (s *finiteSet) Values() ([]ir.IRValue, bool) {
	var out []ir.IRValue
	for i, b := range s.in {
		if b {
			out = append(out, s.dom.universe[i])
		}
	}
	return out, true
}

func (s *finiteSet) String() string {
	var parts []string
	for i, b := range s.in {
		if b {
			parts = append(parts, s.dom.labels[i])
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
