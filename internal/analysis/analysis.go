package analysis

import (
	"fmt"
	"strings"

	"github.com/roach88/matchdag/internal/decision"
	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/pattern"
)

// Kind is the construct a graph was built for.
type Kind uint8

const (
	IsExpression Kind = iota
	SwitchStatement
	SwitchExpression
)

func (k Kind) String() string {
	switch k {
	case IsExpression:
		return "is"
	case SwitchStatement:
		return "switch-statement"
	case SwitchExpression:
		return "switch-expression"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind parses a construct kind as written in input documents.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "is", "is-expression":
		return IsExpression, nil
	case "switch-statement", "statement":
		return SwitchStatement, nil
	case "switch-expression", "switch", "expression":
		return SwitchExpression, nil
	default:
		return IsExpression, fmt.Errorf("unknown construct kind %q", s)
	}
}

// Options tunes the analyzer.
type Options struct {
	// NestedRedundancySeverity is the severity of PM0104.
	NestedRedundancySeverity diag.Severity
	// WitnessMaxPaths bounds the no-match paths examined for a witness.
	WitnessMaxPaths int
}

// DefaultOptions returns the analyzer defaults.
func DefaultOptions() Options {
	return Options{
		NestedRedundancySeverity: diag.SeverityInfo,
		WitnessMaxPaths:          64,
	}
}

// Result is the analysis of one construct.
type Result struct {
	Diagnostics diag.List
	// Unreachable lists arms no value reaches, in order.
	Unreachable []int
	// Exhaustive is true when every non-null value reaches some arm.
	Exhaustive bool
	// Witness is an unmatched value when the construct is not exhaustive.
	Witness string
	// Missing lists the uncovered values of a finite scrutinee domain.
	Missing []string
}

// Analyze reports the diagnostics of a built graph. Structural problems the
// builder found are included first; advisory findings follow, sorted by arm.
func Analyze(g *decision.Graph, kind Kind, opts Options) Result {
	if opts.WitnessMaxPaths <= 0 {
		opts.WitnessMaxPaths = DefaultOptions().WitnessMaxPaths
	}
	a := &analyzer{g: g, kind: kind, opts: opts, unreachable: map[int]bool{}}
	res := Result{Exhaustive: true}

	if kind != IsExpression {
		a.reachability(&res)
	}
	a.redundancy()
	if kind == IsExpression {
		a.isExpression()
	} else if !g.Problems.HasErrors() {
		a.exhaustiveness(&res)
	}

	a.found.Sort()
	res.Diagnostics = append(append(diag.List{}, g.Problems...), a.found...)
	return res
}

type analyzer struct {
	g           *decision.Graph
	kind        Kind
	opts        Options
	unreachable map[int]bool
	found       diag.List
}

func (a *analyzer) report(arm int, code string, sev diag.Severity, subject, format string, args ...any) {
	d := diag.New(code, sev, subject, format, args...)
	d.Arm = arm
	a.found = append(a.found, d)
}

// reachability reports arms without a leaf. An arm whose own pattern (or
// guard) cannot hold is impossible; otherwise earlier arms subsume it.
func (a *analyzer) reachability(res *Result) {
	for _, arm := range a.g.Arms {
		if a.g.Leaf(arm.Index) >= 0 {
			continue
		}
		a.unreachable[arm.Index] = true
		res.Unreachable = append(res.Unreachable, arm.Index)
		if len(arm.Problems) > 0 {
			continue
		}
		switch {
		case arm.GuardFalse():
			a.report(arm.Index, diag.CodeArmImpossible, diag.SeverityWarning, arm.Text,
				"arm %q is never taken: its guard is always false", arm.Text)
		case !a.g.Satisfiable(arm.Cond):
			a.report(arm.Index, diag.CodeArmImpossible, diag.SeverityError, arm.Text,
				"pattern %q matches no value of type %s", arm.Text, a.g.Input.Type)
		default:
			a.report(arm.Index, diag.CodeArmSubsumed, diag.SeverityError, arm.Text,
				"pattern %q has already been handled by previous arms", arm.Text)
		}
	}
}

// isExpression reports an is-pattern that is decided by the static type
// alone.
func (a *analyzer) isExpression() {
	if len(a.g.Arms) == 0 {
		return
	}
	arm := a.g.Arms[0]
	if len(arm.Problems) > 0 {
		return
	}
	if a.g.Leaf(0) < 0 {
		a.report(0, diag.CodeNeverMatches, diag.SeverityError, arm.Text,
			"no value of type %s matches %q", a.g.Input.Type, arm.Text)
		return
	}
	if a.g.NoMatch() >= 0 || trivial(arm.Pattern) {
		return
	}
	a.report(0, diag.CodeAlwaysMatches, diag.SeverityWarning, arm.Text,
		"every value of type %s matches %q", a.g.Input.Type, arm.Text)
}

// trivial reports patterns written to always match; they are not flagged.
func trivial(p pattern.Pattern) bool {
	switch n := p.(type) {
	case *pattern.Discard:
		return true
	case *pattern.Var:
		return n.Inner == nil
	}
	return false
}
