package lower

import (
	"sort"
	"strings"

	"github.com/roach88/matchdag/internal/analysis"
	"github.com/roach88/matchdag/internal/decision"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/types"
)

// Options tunes lowering.
type Options struct {
	// DispatchThreshold is the shortest equality chain lowered to a
	// dispatch.
	DispatchThreshold int
	// FailureTypes lists the exception types the target runtime offers.
	FailureTypes []string
}

// DefaultOptions returns the lowering defaults.
func DefaultOptions() Options {
	return Options{
		DispatchThreshold: 4,
		FailureTypes:      []string{SwitchExpressionException, InvalidOperationException},
	}
}

// Lower linearizes g in its canonical node order. Evaluations are emitted
// exactly where the graph has them. Chains of equality tests on one temp
// in a totally ordered domain become a dispatch; every other test keeps
// its place, so ordered comparisons on floating values run in source
// order. The no-match terminal raises the selected failure for switch
// expressions and ends the match otherwise.
func Lower(g *decision.Graph, kind analysis.Kind, opts Options) *Plan {
	if opts.DispatchThreshold < 2 {
		opts.DispatchThreshold = 2
	}
	p := &Plan{
		Kind:    kind,
		Failure: ChooseFailure(opts.FailureTypes),
		graph:   g,
		names:   g.TempNames(),
	}

	chains, absorbed := findChains(g, opts.DispatchThreshold)

	var order []int
	for i := range g.Nodes {
		if !absorbed[i] {
			order = append(order, i)
		}
	}

	// Targets are node indices until every node has its op index.
	start := make(map[int]int, len(order))
	for k, i := range order {
		start[i] = len(p.Ops)
		n := g.Nodes[i]
		switch n.Kind {
		case decision.NodeEval:
			p.Ops = append(p.Ops, Op{Kind: OpEval, Node: i, Eval: n.Eval})
			if k+1 >= len(order) || order[k+1] != n.Next {
				p.Ops = append(p.Ops, Op{Kind: OpJump, Node: -1, Target: n.Next})
			}
		case decision.NodeTest:
			if chain, ok := chains[i]; ok {
				p.Ops = append(p.Ops, dispatchOp(g, i, chain))
				continue
			}
			p.Ops = append(p.Ops, Op{Kind: OpBranch, Node: i, Test: n.Test, True: n.True, False: n.False})
		case decision.NodeWhen:
			p.Ops = append(p.Ops, Op{Kind: OpGuard, Node: i, Arm: n.Arm, True: n.True, False: n.False})
		case decision.NodeLeaf:
			p.Ops = append(p.Ops, Op{Kind: OpArm, Node: i, Arm: n.Arm})
		default:
			if kind == analysis.SwitchExpression {
				p.Ops = append(p.Ops, Op{Kind: OpFail, Node: i})
			} else {
				p.Ops = append(p.Ops, Op{Kind: OpNoMatch, Node: i})
			}
		}
	}

	for k := range p.Ops {
		op := &p.Ops[k]
		switch op.Kind {
		case OpJump:
			op.Target = start[op.Target]
		case OpBranch, OpGuard:
			op.True, op.False = start[op.True], start[op.False]
		case OpDispatch:
			for c := range op.Cases {
				op.Cases[c].Target = start[op.Cases[c].Target]
			}
			op.Default = start[op.Default]
		}
	}
	return p
}

// findChains finds maximal runs of equality tests linked through their
// false branches: same temp, same domain, a dispatchable domain type, and
// no other way into the run's interior. Runs of at least threshold tests
// are returned keyed by their head, with the interior nodes marked
// absorbed.
func findChains(g *decision.Graph, threshold int) (map[int][]int, map[int]bool) {
	indeg := make([]int, len(g.Nodes))
	for _, n := range g.Nodes {
		for _, s := range n.Successors() {
			indeg[s]++
		}
	}

	chains := map[int][]int{}
	absorbed := map[int]bool{}
	for i, n := range g.Nodes {
		if absorbed[i] || !dispatchable(n) {
			continue
		}
		chain := []int{i}
		for next := n.False; ; {
			m := g.Nodes[next]
			if indeg[next] != 1 || !dispatchable(m) || m.Test.Temp != n.Test.Temp || m.Test.Domain.Name() != n.Test.Domain.Name() {
				break
			}
			chain = append(chain, next)
			next = m.False
		}
		if len(chain) < threshold {
			continue
		}
		chains[i] = chain
		for _, j := range chain[1:] {
			absorbed[j] = true
		}
	}
	return chains, absorbed
}

// dispatchable reports equality tests whose domain is totally ordered and
// so safe to search in sorted order. Floating domains are excluded: NaN
// equals nothing.
func dispatchable(n decision.Node) bool {
	if n.Kind != decision.NodeTest || n.Test.Kind != decision.TestValue || n.Test.Op != ir.OpEq {
		return false
	}
	switch n.Test.DomainType.Underlying().Kind {
	case types.KindInt, types.KindChar, types.KindEnum, types.KindString:
		return true
	}
	return false
}

func dispatchOp(g *decision.Graph, head int, chain []int) Op {
	op := Op{Kind: OpDispatch, Node: head, Temp: g.Nodes[head].Test.Temp}
	for _, i := range chain {
		n := g.Nodes[i]
		op.Cases = append(op.Cases, Case{Value: n.Test.Value, Test: n.Test, Target: n.True})
	}
	op.Default = g.Nodes[chain[len(chain)-1]].False
	sort.SliceStable(op.Cases, func(a, b int) bool {
		return compareKeys(op.Cases[a].Value, op.Cases[b].Value) < 0
	})
	return op
}

// compareKeys orders dispatch keys: integers (and chars, enum members) by
// value, strings ordinally.
func compareKeys(a, b ir.IRValue) int {
	a, b = ir.Unwrap(a), ir.Unwrap(b)
	if x, ok := asInt(a); ok {
		if y, ok := asInt(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	if x, ok := a.(ir.IRString); ok {
		if y, ok := b.(ir.IRString); ok {
			return strings.Compare(string(x), string(y))
		}
	}
	return strings.Compare(ir.Format(a), ir.Format(b))
}

func asInt(v ir.IRValue) (int64, bool) {
	switch x := v.(type) {
	case ir.IRInt:
		return int64(x), true
	case ir.IRChar:
		return int64(x), true
	}
	return 0, false
}
