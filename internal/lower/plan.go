package lower

import (
	"fmt"
	"strings"

	"github.com/roach88/matchdag/internal/analysis"
	"github.com/roach88/matchdag/internal/decision"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/pattern"
)

// OpKind tags a plan operation.
type OpKind uint8

const (
	// OpEval performs an evaluation and falls through.
	OpEval OpKind = iota
	// OpBranch tests and jumps to True or False.
	OpBranch
	// OpDispatch looks the temp's value up among equality cases by binary
	// search and jumps to the matching case's target, else to Default.
	OpDispatch
	// OpGuard evaluates an arm's guard and jumps to True or False.
	OpGuard
	// OpArm ends the match on an arm.
	OpArm
	// OpFail raises the plan's failure with the unmatched value.
	OpFail
	// OpNoMatch ends the match without an arm.
	OpNoMatch
	// OpJump continues at Target.
	OpJump
)

func (k OpKind) String() string {
	switch k {
	case OpEval:
		return "eval"
	case OpBranch:
		return "branch"
	case OpDispatch:
		return "dispatch"
	case OpGuard:
		return "guard"
	case OpArm:
		return "arm"
	case OpFail:
		return "fail"
	case OpNoMatch:
		return "no-match"
	case OpJump:
		return "jump"
	default:
		return fmt.Sprintf("op(%d)", uint8(k))
	}
}

// Case is one equality arm of a dispatch.
type Case struct {
	Value  ir.IRValue
	Test   *decision.Test
	Target int
}

// Op is one operation of a plan. Targets are op indices.
type Op struct {
	Kind OpKind
	// Node is the graph node the op was lowered from, -1 for jumps.
	Node int

	Eval *decision.Evaluation // OpEval
	Test *decision.Test       // OpBranch
	Temp *decision.Temp       // OpDispatch
	// Cases are sorted by value.
	Cases   []Case // OpDispatch
	Default int    // OpDispatch
	Arm     int    // OpGuard, OpArm

	True, False int // OpBranch, OpGuard
	Target      int // OpJump
}

// Plan is a graph linearized into operations, entered at op 0.
type Plan struct {
	Kind    analysis.Kind
	Ops     []Op
	Failure Failure

	graph *decision.Graph
	names map[*decision.Temp]string
}

// Graph returns the graph the plan was lowered from.
func (p *Plan) Graph() *decision.Graph { return p.graph }

// String renders the plan one op per line:
//
//	0: t0 != null ? @1 : @5
//	1: t1 = t0.Prop1
//	2: t1 == 42 ? @3 : @5
//	3: arm 0 `{ Prop1: 42 }`
//	4: fail SwitchExpressionException(t0)
func (p *Plan) String() string {
	var b strings.Builder
	for i, op := range p.Ops {
		fmt.Fprintf(&b, "%d: %s\n", i, p.describe(op))
	}
	return b.String()
}

func (p *Plan) describe(op Op) string {
	g := p.graph
	switch op.Kind {
	case OpEval:
		return g.Describe(op.Node, p.names)
	case OpBranch, OpGuard:
		return fmt.Sprintf("%s ? @%d : @%d", g.Describe(op.Node, p.names), op.True, op.False)
	case OpDispatch:
		cases := make([]string, len(op.Cases))
		for i, c := range op.Cases {
			cases[i] = fmt.Sprintf("%s: @%d", pattern.FormatConstant(c.Value, c.Test.DomainType), c.Target)
		}
		return fmt.Sprintf("dispatch %s { %s } else @%d", p.tempName(op.Temp), strings.Join(cases, ", "), op.Default)
	case OpArm:
		return fmt.Sprintf("arm %d `%s`", op.Arm, g.Arms[op.Arm].Text)
	case OpFail:
		return "fail " + p.Failure.String()
	case OpNoMatch:
		return "no match"
	case OpJump:
		return fmt.Sprintf("jump @%d", op.Target)
	}
	return op.Kind.String()
}

func (p *Plan) tempName(t *decision.Temp) string {
	if n, ok := p.names[t]; ok {
		return n
	}
	return t.String()
}

// Fingerprint identifies the plan's operations; equal fingerprints mean
// the same linearization.
func (p *Plan) Fingerprint() string {
	return ir.MustFingerprint(ir.DomainPlan, p.String())
}

// Dispatches counts the dispatch operations in the plan.
func (p *Plan) Dispatches() int {
	n := 0
	for _, op := range p.Ops {
		if op.Kind == OpDispatch {
			n++
		}
	}
	return n
}
