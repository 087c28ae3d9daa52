package decision

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/pattern"
	"github.com/roach88/matchdag/internal/types"
	"github.com/roach88/matchdag/internal/valueset"
)

// Arm is one candidate of a construct, in source order.
type Arm struct {
	Pattern pattern.Pattern
	// Guard is the text of the arm's when-clause. Empty or "true" means no
	// guard; "false" makes the arm unable to match.
	Guard string
	// Text is the arm's source text for dumps; defaults to the pattern text.
	Text string
}

// HasGuard reports whether the arm's guard needs evaluating.
func (a Arm) HasGuard() bool {
	g := strings.TrimSpace(a.Guard)
	return g != "" && g != "true"
}

// GuardFalse reports whether the guard is the constant false.
func (a Arm) GuardFalse() bool {
	return strings.TrimSpace(a.Guard) == "false"
}

// ArmInfo is an arm after conversion.
type ArmInfo struct {
	Arm
	Index int
	// Cond is the condition under which the arm's pattern matches,
	// ignoring the guard.
	Cond *Cond
	// Bindings maps each capture to the temp it is bound to.
	Bindings map[string]*Temp
	// Problems are structural errors found in this arm.
	Problems diag.List
}

// builder holds the per-build tables. A builder is used for one graph.
type builder struct {
	oracle      types.Oracle
	temps       *Temps
	tests       []*Test
	testsByKey  map[string]*Test
	combinators []Combinator

	arms  []*ArmInfo
	nodes []Node
	// intern maps a node's structural key to its index.
	intern map[string]int
	// memo maps a build state to the node built for it.
	memo  map[string]int
	steps int
}

// maxSteps bounds graph construction; a build that exceeds it is cut off
// with a no-match node and reported.
const maxSteps = 1 << 16

func (b *builder) test(t *Test) *Cond {
	t.key = testKey(t)
	if existing, ok := b.testsByKey[t.key]; ok {
		return testCond(existing)
	}
	t.ID = len(b.tests)
	b.tests = append(b.tests, t)
	b.testsByKey[t.key] = t
	return testCond(t)
}

func testKey(t *Test) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%d", t.Kind, t.Temp.ID)
	switch t.Kind {
	case TestType:
		sb.WriteString("|" + t.Type.Name)
	case TestValue:
		fmt.Fprintf(&sb, "|%s|%s|%s", t.Domain.Name(), t.Op, ir.Format(t.Value))
	}
	return sb.String()
}

func (b *builder) nonNull(temp *Temp) *Cond {
	return b.test(&Test{Kind: TestNonNull, Temp: temp})
}

func (b *builder) lengthTest(temp *Temp, op ir.RelOp, n int) *Cond {
	return b.test(&Test{
		Kind:       TestValue,
		Temp:       temp,
		Op:         op,
		Value:      ir.IRInt(n),
		Domain:     valueset.Length(),
		DomainType: temp.Type,
	})
}

// Build constructs the decision graph for matching a scrutinee of static
// type input against arms in order. Structural errors are returned in
// Graph.Problems; the graph is still built, with offending sub-patterns
// treated as never matching.
func Build(o types.Oracle, input *types.Type, arms []Arm) *Graph {
	b := &builder{
		oracle:     o,
		temps:      NewTemps(input),
		testsByKey: make(map[string]*Test),
		intern:     make(map[string]int),
		memo:       make(map[string]int),
	}

	var problems diag.List
	for i, a := range arms {
		info := &ArmInfo{Arm: a, Index: i, Bindings: map[string]*Temp{}}
		if info.Text == "" {
			info.Text = pattern.Text(a.Pattern)
		}
		info.Problems = pattern.Validate(a.Pattern, i)
		if len(info.Problems) == 0 {
			c := &converter{b: b, arm: i, binds: info.Bindings}
			info.Cond = c.convert(a.Pattern, b.temps.Input(), True(), 0)
			info.Problems = c.problems
		} else {
			info.Cond = False()
		}
		problems = append(problems, info.Problems...)
		b.arms = append(b.arms, info)
	}

	cases := make([]*caseState, 0, len(b.arms))
	for _, a := range b.arms {
		if a.GuardFalse() {
			continue
		}
		cases = append(cases, &caseState{arm: a.Index, cond: a.Cond})
	}
	root := b.build(cases, NewFacts())
	if b.steps > maxSteps {
		problems = append(problems, diag.New(diag.CodeUnsupportedDomain, diag.SeverityError, "",
			"decision graph exceeds %d construction steps", maxSteps))
	}

	g := &Graph{
		Input:       b.temps.Input(),
		Arms:        b.arms,
		Temps:       b.temps,
		Tests:       b.tests,
		Combinators: b.combinators,
		Problems:    problems,
		oracle:      o,
	}
	g.Nodes, g.Root = renumber(b.nodes, root)
	return g
}

type caseState struct {
	arm  int
	cond *Cond
}

// build returns the node deciding the first matching case under facts.
func (b *builder) build(cases []*caseState, f *Facts) int {
	b.steps++

	var live []*caseState
	for _, cs := range cases {
		c := cs.cond.simplify(f)
		if c.IsFalse() {
			continue
		}
		if c == cs.cond {
			live = append(live, cs)
		} else {
			live = append(live, &caseState{arm: cs.arm, cond: c})
		}
	}
	if len(live) == 0 || b.steps > maxSteps {
		return b.node(Node{Kind: NodeNoMatch})
	}

	key := stateKey(live, f)
	if n, ok := b.memo[key]; ok {
		return n
	}

	var n int
	first := live[0]
	switch {
	case first.cond.IsTrue():
		leaf := b.node(Node{Kind: NodeLeaf, Arm: first.arm})
		if !b.arms[first.arm].HasGuard() {
			n = leaf
			break
		}
		rest := b.build(live[1:], f)
		n = b.node(Node{Kind: NodeWhen, Arm: first.arm, True: leaf, False: rest})
	default:
		t, e := first.cond.next()
		if e != nil {
			next := b.build(live, f.Perform(e))
			n = b.node(Node{Kind: NodeEval, Eval: e, Next: next})
		} else {
			yes := b.build(live, f.Learn(t, true))
			no := b.build(live, f.Learn(t, false))
			if yes == no {
				n = yes
			} else {
				n = b.node(Node{Kind: NodeTest, Test: t, True: yes, False: no})
			}
		}
	}
	b.memo[key] = n
	return n
}

func stateKey(cases []*caseState, f *Facts) string {
	var sb strings.Builder
	sb.WriteString(f.Key())
	for _, cs := range cases {
		sb.WriteString(";" + strconv.Itoa(cs.arm) + ":" + cs.cond.Key())
	}
	return sb.String()
}

// node interns n so structurally equal nodes share one index.
func (b *builder) node(n Node) int {
	key := n.key()
	if i, ok := b.intern[key]; ok {
		return i
	}
	b.nodes = append(b.nodes, n)
	i := len(b.nodes) - 1
	b.intern[key] = i
	return i
}
