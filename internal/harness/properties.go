package harness

import (
	"errors"
	"fmt"

	"github.com/roach88/matchdag/internal/compiler"
	"github.com/roach88/matchdag/internal/decision"
	"github.com/roach88/matchdag/internal/engine"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/lower"
	"github.com/roach88/matchdag/internal/pattern"
	"github.com/roach88/matchdag/internal/rt"
	"github.com/roach88/matchdag/internal/types"
)

// CheckEquivalence runs every value three ways: through the decision graph,
// through the lowered plan, and by testing the arms one after another. The
// three must pick the same arm. It returns one message per disagreement.
func CheckEquivalence(u *types.Universe, c *compiler.Construct, p *lower.Plan, values []ir.IRValue, guards map[int]bool) []string {
	r := rt.New(u)
	guard := engine.GuardTable(guards)
	var out []string
	for _, v := range values {
		v = pattern.ConvertConstant(v, c.Input)
		in := ir.Format(v)

		want, err := FirstMatch(u, r, c, v, guard)
		if err != nil {
			out = append(out, fmt.Sprintf("%s: first-match: %v", in, err))
			continue
		}
		walked, err := p.Graph().Walk(r, v, guard)
		if err != nil {
			out = append(out, fmt.Sprintf("%s: graph: %v", in, err))
			continue
		}
		executed, err := p.Execute(r, v, guard)
		var mf *lower.MatchFailure
		if err != nil && !errors.As(err, &mf) {
			out = append(out, fmt.Sprintf("%s: plan: %v", in, err))
			continue
		}
		if walked.Arm != want || executed.Arm != want {
			out = append(out, fmt.Sprintf("%s: first-match arm %d, graph arm %d, plan arm %d", in, want, walked.Arm, executed.Arm))
		}
	}
	return out
}

// FirstMatch returns the first arm whose pattern matches v and whose guard
// passes, or -1. Arms guarded by a constant false never match.
func FirstMatch(u *types.Universe, r *rt.Runtime, c *compiler.Construct, v ir.IRValue, guard decision.GuardFunc) (int, error) {
	for i, arm := range c.Arms {
		if arm.GuardFalse() {
			continue
		}
		ok, binds, err := pattern.Match(u, r, arm.Pattern, v, c.Input)
		if err != nil {
			return -1, fmt.Errorf("arm %d: %w", i, err)
		}
		if !ok {
			continue
		}
		if arm.HasGuard() && guard != nil {
			pass, err := guard(i, binds)
			if err != nil {
				return -1, err
			}
			if !pass {
				continue
			}
		}
		return i, nil
	}
	return -1, nil
}
