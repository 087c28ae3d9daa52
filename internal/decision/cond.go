package decision

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/pattern"
	"github.com/roach88/matchdag/internal/types"
	"github.com/roach88/matchdag/internal/valueset"
)

// TestKind is the predicate a Test node asks.
type TestKind uint8

const (
	// TestNonNull asks temp != null.
	TestNonNull TestKind = iota
	// TestType asks temp is Type.
	TestType
	// TestValue asks temp op Value, compared in Domain. A value test is
	// true only for non-null values of DomainType.
	TestValue
)

func (k TestKind) String() string {
	switch k {
	case TestNonNull:
		return "non-null"
	case TestType:
		return "type"
	case TestValue:
		return "value"
	default:
		return fmt.Sprintf("test(%d)", uint8(k))
	}
}

// Test is an interned predicate over one temp.
type Test struct {
	ID         int
	Kind       TestKind
	Temp       *Temp
	Type       *types.Type // TestType
	Op         ir.RelOp
	Value      ir.IRValue
	Domain     valueset.Domain
	DomainType *types.Type
	key        string
}

// String renders the predicate as it appears in dumps, with the temp's
// creation name.
func (t *Test) String() string {
	return t.render(t.Temp.String())
}

func (t *Test) render(temp string) string {
	switch t.Kind {
	case TestNonNull:
		return temp + " != null"
	case TestType:
		return temp + " is " + t.Type.Name
	default:
		return temp + " " + t.Op.String() + " " + pattern.FormatConstant(t.Value, t.DomainType)
	}
}

// Related returns the set of domain values the test accepts.
func (t *Test) Related() valueset.Set {
	return t.Domain.Related(t.Op, t.Value)
}

type condKind uint8

const (
	condTrue condKind = iota
	condFalse
	condTest
	condEval
	condNot
	condAnd
	condOr
)

// Cond is the condition under which (part of) a pattern matches, built from
// Tests and Evaluations. An Evaluation in a Cond is semantically true; it
// marks where the derivation must happen relative to the tests around it.
// Conds are immutable and constructed through the simplifying helpers.
type Cond struct {
	kind condKind
	test *Test
	eval *Evaluation
	args []*Cond
	key  string
}

var (
	condTrueV  = &Cond{kind: condTrue, key: "T"}
	condFalseV = &Cond{kind: condFalse, key: "F"}
)

// True returns the condition that always holds.
func True() *Cond { return condTrueV }

// False returns the condition that never holds.
func False() *Cond { return condFalseV }

func testCond(t *Test) *Cond {
	return &Cond{kind: condTest, test: t, key: "t" + strconv.Itoa(t.ID)}
}

func evalCond(e *Evaluation) *Cond {
	return &Cond{kind: condEval, eval: e, key: "e" + strconv.Itoa(e.ID)}
}

// IsTrue reports whether c is the constant true.
func (c *Cond) IsTrue() bool { return c.kind == condTrue }

// IsFalse reports whether c is the constant false.
func (c *Cond) IsFalse() bool { return c.kind == condFalse }

// Key is a canonical string identifying the condition's structure.
func (c *Cond) Key() string { return c.key }

// Not negates c.
func Not(c *Cond) *Cond {
	switch c.kind {
	case condTrue:
		return condFalseV
	case condFalse:
		return condTrueV
	case condNot:
		return c.args[0]
	}
	return &Cond{kind: condNot, args: []*Cond{c}, key: "!" + c.key}
}

// And conjoins conditions left to right.
func And(cs ...*Cond) *Cond {
	var args []*Cond
	for _, c := range cs {
		switch c.kind {
		case condTrue:
			continue
		case condFalse:
			return condFalseV
		case condAnd:
			args = append(args, c.args...)
		default:
			args = append(args, c)
		}
	}
	return junction(condAnd, "&", args, condTrueV)
}

// Or disjoins conditions left to right.
func Or(cs ...*Cond) *Cond {
	var args []*Cond
	for _, c := range cs {
		switch c.kind {
		case condFalse:
			continue
		case condTrue:
			return condTrueV
		case condOr:
			args = append(args, c.args...)
		default:
			args = append(args, c)
		}
	}
	return junction(condOr, "|", args, condFalseV)
}

func junction(kind condKind, op string, args []*Cond, empty *Cond) *Cond {
	switch len(args) {
	case 0:
		return empty
	case 1:
		return args[0]
	}
	keys := make([]string, len(args))
	for i, a := range args {
		keys[i] = a.key
	}
	return &Cond{kind: kind, args: args, key: op + "(" + strings.Join(keys, ",") + ")"}
}

// Tests returns every test c mentions, in order of first mention.
func (c *Cond) Tests() []*Test {
	var out []*Test
	seen := map[int]bool{}
	var walk func(*Cond)
	walk = func(c *Cond) {
		if c.kind == condTest && !seen[c.test.ID] {
			seen[c.test.ID] = true
			out = append(out, c.test)
		}
		for _, a := range c.args {
			walk(a)
		}
	}
	walk(c)
	return out
}

// simplify rewrites c under what f knows: resolved tests become constants,
// done evaluations become true.
func (c *Cond) simplify(f *Facts) *Cond {
	switch c.kind {
	case condTrue, condFalse:
		return c
	case condTest:
		if v, ok := f.Resolve(c.test); ok {
			if v {
				return condTrueV
			}
			return condFalseV
		}
		return c
	case condEval:
		if f.Evaluated(c.eval) {
			return condTrueV
		}
		return c
	case condNot:
		inner := c.args[0].simplify(f)
		if inner == c.args[0] {
			return c
		}
		return Not(inner)
	}

	changed := false
	args := make([]*Cond, len(c.args))
	for i, a := range c.args {
		args[i] = a.simplify(f)
		if args[i] != a {
			changed = true
		}
		// Short-circuit: nothing after a decided operand matters.
		if (c.kind == condAnd && args[i].kind == condFalse) || (c.kind == condOr && args[i].kind == condTrue) {
			return args[i]
		}
	}
	if !changed {
		return c
	}
	if c.kind == condAnd {
		return And(args...)
	}
	return Or(args...)
}

// next returns the first undecided primitive of a simplified condition:
// either a test to branch on or an evaluation to perform.
func (c *Cond) next() (*Test, *Evaluation) {
	switch c.kind {
	case condTest:
		return c.test, nil
	case condEval:
		return nil, c.eval
	case condNot, condAnd, condOr:
		return c.args[0].next()
	}
	return nil, nil
}
