package decision

import (
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/matchdag/internal/types"
	"github.com/roach88/matchdag/internal/valueset"
)

type outcome struct {
	test  *Test
	value bool
}

// Facts is what one path through the graph has learned: the outcome of
// every test taken and the set of evaluations performed. Facts are
// immutable; Learn and Perform return extended copies.
//
// Everything else (nullness, narrowed types, remaining value sets) is
// derived from the outcomes, so two paths that took the same tests know
// the same things.
type Facts struct {
	outcomes []outcome // sorted by test ID
	done     []int     // sorted evaluation IDs
	key      string
}

// NewFacts returns the empty knowledge of a path at the root.
func NewFacts() *Facts { return &Facts{} }

// Key identifies the facts canonically.
func (f *Facts) Key() string {
	if f.key == "" && (len(f.outcomes) > 0 || len(f.done) > 0) {
		var b strings.Builder
		for _, o := range f.outcomes {
			b.WriteString(strconv.Itoa(o.test.ID))
			if o.value {
				b.WriteByte('+')
			} else {
				b.WriteByte('-')
			}
		}
		b.WriteByte('/')
		for _, id := range f.done {
			b.WriteString(strconv.Itoa(id))
			b.WriteByte(',')
		}
		f.key = b.String()
	}
	return f.key
}

// Learn returns f extended with the outcome of t.
func (f *Facts) Learn(t *Test, value bool) *Facts {
	i := sort.Search(len(f.outcomes), func(i int) bool { return f.outcomes[i].test.ID >= t.ID })
	out := make([]outcome, 0, len(f.outcomes)+1)
	out = append(out, f.outcomes[:i]...)
	out = append(out, outcome{test: t, value: value})
	if i < len(f.outcomes) && f.outcomes[i].test.ID == t.ID {
		i++
	}
	out = append(out, f.outcomes[i:]...)
	return &Facts{outcomes: out, done: f.done}
}

// Perform returns f extended with e having been evaluated.
func (f *Facts) Perform(e *Evaluation) *Facts {
	if f.Evaluated(e) {
		return f
	}
	done := append(append([]int(nil), f.done...), e.ID)
	sort.Ints(done)
	return &Facts{outcomes: f.outcomes, done: done}
}

// Evaluated reports whether e was performed on this path.
func (f *Facts) Evaluated(e *Evaluation) bool {
	i := sort.SearchInts(f.done, e.ID)
	return i < len(f.done) && f.done[i] == e.ID
}

// Outcome returns the recorded outcome of t, if the path took it.
func (f *Facts) Outcome(t *Test) (bool, bool) {
	i := sort.Search(len(f.outcomes), func(i int) bool { return f.outcomes[i].test.ID >= t.ID })
	if i < len(f.outcomes) && f.outcomes[i].test.ID == t.ID {
		return f.outcomes[i].value, true
	}
	return false, false
}

// Tests returns the tests taken on temp with their outcomes, ordered by
// test ID.
func (f *Facts) Tests(temp *Temp) (tests []*Test, values []bool) {
	for _, o := range f.outcomes {
		if o.test.Temp == temp {
			tests = append(tests, o.test)
			values = append(values, o.value)
		}
	}
	return tests, values
}

// Resolve decides t from the facts when possible.
func (f *Facts) Resolve(t *Test) (value, known bool) {
	if v, ok := f.Outcome(t); ok {
		return v, true
	}
	switch t.Kind {
	case TestNonNull:
		return f.NonNull(t.Temp)
	case TestType:
		return f.isType(t.Temp, t.Type)
	default:
		return f.resolveValue(t)
	}
}

// NonNull reports whether temp is known to be non-null (or known null).
func (f *Facts) NonNull(temp *Temp) (value, known bool) {
	if !temp.Type.CanBeNull() {
		return true, true
	}
	for _, o := range f.outcomes {
		if o.test.Temp != temp {
			continue
		}
		switch {
		case o.test.Kind == TestNonNull:
			return o.value, true
		case o.value:
			// A successful type or value test implies non-null.
			return true, true
		}
	}
	return false, false
}

// isType decides whether temp holds a non-null instance of t.
func (f *Facts) isType(temp *Temp, t *types.Type) (value, known bool) {
	nn, nnKnown := f.NonNull(temp)
	if nnKnown && !nn {
		return false, true
	}
	static := temp.Type.Underlying()
	if types.Disjoint(static, t) {
		return false, true
	}
	for _, o := range f.outcomes {
		if o.test.Temp != temp || o.test.Kind == TestNonNull {
			continue
		}
		known := o.test.Type
		if o.test.Kind == TestValue {
			known = o.test.DomainType
		}
		switch {
		case o.value && types.AssignableTo(known, t):
			return true, true
		case o.value && types.Disjoint(known, t):
			return false, true
		case !o.value && o.test.Kind == TestType && types.AssignableTo(t, known):
			return false, true
		}
	}
	if nnKnown && types.AssignableTo(static, t) {
		return true, true
	}
	return false, false
}

func (f *Facts) resolveValue(t *Test) (value, known bool) {
	in, inKnown := f.isType(t.Temp, t.DomainType)
	if inKnown && !in {
		return false, true
	}
	s := f.valueSet(t.Temp, t.Domain, inKnown)
	r := t.Related()
	if valueset.Disjoint(s, r) {
		return false, true
	}
	if inKnown && valueset.Subset(s, r) {
		return true, true
	}
	return false, false
}

// valueSet intersects what the outcomes on temp say about its value in d.
// Failed tests only narrow the set once the value is known to belong to
// the domain's type.
func (f *Facts) valueSet(temp *Temp, d valueset.Domain, inDomain bool) valueset.Set {
	s := d.All()
	for _, o := range f.outcomes {
		if o.test.Temp != temp || o.test.Kind != TestValue || o.test.Domain.Name() != d.Name() {
			continue
		}
		if o.value {
			s = s.Intersect(o.test.Related())
		} else if inDomain {
			s = s.Intersect(o.test.Related().Complement())
		}
	}
	return s
}

// Values returns the domain of temp's value and the set of values still
// possible on this path. ok is false when the path has not established
// which domain the value belongs to.
func (f *Facts) Values(temp *Temp) (d valueset.Domain, dt *types.Type, s valueset.Set, ok bool) {
	for _, o := range f.outcomes {
		if o.test.Temp == temp && o.test.Kind == TestValue {
			if in, known := f.isType(temp, o.test.DomainType); known && in {
				return o.test.Domain, o.test.DomainType, f.valueSet(temp, o.test.Domain, true), true
			}
		}
	}
	if d, ok := valueset.For(temp.Type); ok {
		if in, known := f.isType(temp, temp.Type.Underlying()); known && in {
			return d, temp.Type.Underlying(), f.valueSet(temp, d, true), true
		}
	}
	return nil, nil, nil, false
}

// Narrowed returns the most specific type temp is known to have, or nil.
func (f *Facts) Narrowed(temp *Temp) *types.Type {
	var best *types.Type
	for _, o := range f.outcomes {
		if o.test.Temp != temp || !o.value || o.test.Kind != TestType {
			continue
		}
		if best == nil || types.AssignableTo(o.test.Type, best) {
			best = o.test.Type
		}
	}
	return best
}

// Satisfiable reports whether some extension of f makes c true. The search
// is bounded by budget branch points; an exhausted search answers true.
func (f *Facts) Satisfiable(c *Cond, budget int) bool {
	return f.satisfiable(c, &budget)
}

func (f *Facts) satisfiable(c *Cond, budget *int) bool {
	c = c.simplify(f)
	switch c.kind {
	case condTrue:
		return true
	case condFalse:
		return false
	}
	if *budget <= 0 {
		return true
	}
	*budget--
	t, e := c.next()
	if e != nil {
		return f.Perform(e).satisfiable(c, budget)
	}
	return f.Learn(t, true).satisfiable(c, budget) || f.Learn(t, false).satisfiable(c, budget)
}
