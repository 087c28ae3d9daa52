package analysis

import (
	"github.com/roach88/matchdag/internal/decision"
	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/pattern"
)

// redundancy flags right operands of and/or that cannot change the
// combinator's outcome wherever it is evaluated:
//
//	L or R   R is redundant when no value satisfies pre, not L and R
//	L and R  R is redundant when no value satisfies pre, L and not R
func (a *analyzer) redundancy() {
	for _, c := range a.g.Combinators {
		if a.unreachable[c.Arm] || len(a.g.Arms[c.Arm].Problems) > 0 {
			continue
		}
		if trivial(c.Pattern.Right) || len(pattern.Captures(c.Pattern.Right)) > 0 {
			continue
		}
		if !a.g.Satisfiable(c.Pre) {
			continue
		}

		var witness *decision.Cond
		verb := "already matches"
		if c.Pattern.Kind == pattern.Or {
			witness = decision.And(c.Pre, decision.Not(c.Left), c.Right)
		} else {
			witness = decision.And(c.Pre, c.Left, decision.Not(c.Right))
			verb = "already implies"
		}
		if a.g.Satisfiable(witness) {
			continue
		}

		right := pattern.Text(c.Pattern.Right)
		left := pattern.Text(c.Pattern.Left)
		if c.Depth == 0 && !onlyNullChecks(c.Right) {
			a.report(c.Arm, diag.CodeRedundant, diag.SeverityWarning, right,
				"pattern %q is redundant: %q %s it", right, left, verb)
			continue
		}
		a.report(c.Arm, diag.CodeRedundantNested, a.opts.NestedRedundancySeverity, right,
			"pattern %q is redundant: %q %s it", right, left, verb)
	}
}

// onlyNullChecks reports whether c tests nothing but non-nullness, i.e. its
// only test is one the builder synthesized.
func onlyNullChecks(c *decision.Cond) bool {
	tests := c.Tests()
	if len(tests) == 0 {
		return false
	}
	for _, t := range tests {
		if t.Kind != decision.TestNonNull {
			return false
		}
	}
	return true
}
