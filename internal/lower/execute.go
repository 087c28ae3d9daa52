package lower

import (
	"fmt"
	"sort"

	"github.com/roach88/matchdag/internal/decision"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/pattern"
	"github.com/roach88/matchdag/internal/rt"
)

// Outcome is the result of executing a plan.
type Outcome struct {
	Arm      int // -1 when no arm matched
	Bindings pattern.Bindings
	// Trace lists the op indices executed, in order.
	Trace []int
}

// Matched reports whether some arm matched.
func (o Outcome) Matched() bool { return o.Arm >= 0 }

// Execute runs v through the plan. An unmatched switch expression returns
// a *MatchFailure error; other constructs report Arm -1.
func (p *Plan) Execute(r *rt.Runtime, v ir.IRValue, guard decision.GuardFunc) (Outcome, error) {
	env := map[*decision.Temp]ir.IRValue{p.graph.Input: v}
	out := Outcome{Arm: -1}
	pc := 0
	for steps := 0; steps <= len(p.Ops); steps++ {
		if pc < 0 || pc >= len(p.Ops) {
			return out, fmt.Errorf("plan jumps outside its %d ops to @%d", len(p.Ops), pc)
		}
		out.Trace = append(out.Trace, pc)
		op := p.Ops[pc]
		switch op.Kind {
		case OpEval:
			vals, err := decision.Perform(r, op.Eval, env[op.Eval.Input])
			if err != nil {
				return out, fmt.Errorf("op %d: %w", pc, err)
			}
			for k, t := range op.Eval.Outputs {
				env[t] = vals[k]
			}
			pc++
		case OpJump:
			pc = op.Target
		case OpBranch:
			if decision.EvalTest(r, op.Test, env[op.Test.Temp]) {
				pc = op.True
			} else {
				pc = op.False
			}
		case OpDispatch:
			pc = op.lookup(r, env[op.Temp])
		case OpGuard:
			ok := true
			if guard != nil {
				var err error
				ok, err = guard(op.Arm, p.bindings(op.Arm, env))
				if err != nil {
					return out, fmt.Errorf("guard of arm %d: %w", op.Arm, err)
				}
			}
			if ok {
				pc = op.True
			} else {
				pc = op.False
			}
		case OpArm:
			out.Arm = op.Arm
			out.Bindings = p.bindings(op.Arm, env)
			return out, nil
		case OpNoMatch:
			return out, nil
		case OpFail:
			f := &MatchFailure{Failure: p.Failure}
			if p.Failure.Kind == FailureWithValue {
				f.Payload = ir.Format(v)
			}
			return out, f
		default:
			return out, fmt.Errorf("op %d: unknown kind %s", pc, op.Kind)
		}
	}
	return out, fmt.Errorf("plan did not terminate within %d ops", len(p.Ops))
}

// lookup binary-searches the sorted cases.
func (op Op) lookup(r *rt.Runtime, v ir.IRValue) int {
	if len(op.Cases) == 0 || !decision.InDomain(r, op.Cases[0].Test, v) {
		return op.Default
	}
	i := sort.Search(len(op.Cases), func(i int) bool {
		return compareKeys(op.Cases[i].Value, v) >= 0
	})
	if i < len(op.Cases) && rt.Compare(v, ir.OpEq, op.Cases[i].Value) {
		return op.Cases[i].Target
	}
	return op.Default
}

func (p *Plan) bindings(arm int, env map[*decision.Temp]ir.IRValue) pattern.Bindings {
	out := pattern.Bindings{}
	for name, t := range p.graph.Arms[arm].Bindings {
		out[name] = env[t]
	}
	return out
}
