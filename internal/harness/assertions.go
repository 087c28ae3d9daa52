package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/ir"
)

// AssertionError describes a failed assertion with context for debugging.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error formats the assertion failure.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion of the scenario against the
// processed construct. Returns a list of error messages for failed
// assertions.
func EvaluateAssertions(h *Harness, scenario *Scenario, result *Result) []string {
	var errs []string
	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(h, scenario, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(h *Harness, scenario *Scenario, a Assertion) error {
	switch a.Type {
	case AssertDiagnostic:
		return assertDiagnostic(h.processed.Diagnostics(), a)
	case AssertSharedNodes:
		return assertSharedNodes(h, a)
	case AssertGraphContains:
		return assertContains(a.Type, h.processed.GraphDump, a.Text)
	case AssertPlanContains:
		return assertContains(a.Type, h.processed.PlanListing, a.Text)
	case AssertDispatches:
		if got := h.processed.Plan.Dispatches(); got != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d dispatch operations", a.Count),
				Actual:   fmt.Sprintf("%d in\n%s", got, h.processed.PlanListing),
			}
		}
		return nil
	case AssertEquivalence:
		return assertEquivalence(h, scenario, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertDiagnostic(l diag.List, a Assertion) error {
	for _, d := range l.WithCode(a.Code) {
		if a.Subject != "" && d.Subject != a.Subject {
			continue
		}
		if a.Severity != "" {
			sev, _ := diag.ParseSeverity(a.Severity)
			if d.Severity != sev {
				continue
			}
		}
		if a.Arm != nil && d.Arm != *a.Arm {
			continue
		}
		return nil
	}
	want := a.Code
	if a.Subject != "" {
		want += fmt.Sprintf(" subject %q", a.Subject)
	}
	if a.Severity != "" {
		want += " severity " + a.Severity
	}
	if a.Arm != nil {
		want += fmt.Sprintf(" arm %d", *a.Arm)
	}
	return &AssertionError{Type: a.Type, Expected: want, Actual: describeDiagnostics(l)}
}

func describeDiagnostics(l diag.List) string {
	if len(l) == 0 {
		return "no diagnostics"
	}
	lines := make([]string, len(l))
	for i, d := range l {
		lines[i] = d.String()
		if d.Subject != "" {
			lines[i] += fmt.Sprintf(" (subject %q)", d.Subject)
		}
	}
	return strings.Join(lines, "; ")
}

// assertSharedNodes checks that the listed arms reach their leaves through
// at least Min common nodes, i.e. the graph shares their tests.
func assertSharedNodes(h *Harness, a Assertion) error {
	g := h.processed.Graph
	shared := g.ArmNodes(a.Arms[0])
	for _, arm := range a.Arms[1:] {
		nodes := g.ArmNodes(arm)
		shared = slices.DeleteFunc(shared, func(n int) bool { return !slices.Contains(nodes, n) })
	}
	want := a.Min
	if want == 0 {
		want = 1
	}
	if len(shared) < want {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("arms %v share at least %d nodes", a.Arms, want),
			Actual:   fmt.Sprintf("shared %v in\n%s", shared, h.processed.GraphDump),
		}
	}
	return nil
}

func assertContains(typ, haystack, text string) error {
	if !strings.Contains(haystack, text) {
		return &AssertionError{Type: typ, Expected: fmt.Sprintf("text %q", text), Actual: haystack}
	}
	return nil
}

func assertEquivalence(h *Harness, scenario *Scenario, a Assertion) error {
	var mismatches []string
	// Run inputs are checked with their own guard values.
	for i, step := range scenario.Runs {
		v, err := h.input(step.Input)
		if err != nil {
			return fmt.Errorf("runs[%d]: %w", i, err)
		}
		mismatches = append(mismatches, CheckEquivalence(h.universe(), h.construct, h.processed.Plan, []ir.IRValue{v}, step.Guards)...)
	}
	var inputs []ir.IRValue
	for i, raw := range a.Values {
		v, err := h.input(raw)
		if err != nil {
			return fmt.Errorf("values[%d]: %w", i, err)
		}
		inputs = append(inputs, v)
	}
	inputs = append(inputs, h.construct.Inputs...)
	mismatches = append(mismatches, CheckEquivalence(h.universe(), h.construct, h.processed.Plan, inputs, nil)...)

	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     a.Type,
			Expected: "graph, plan and first-match evaluation agree",
			Actual:   strings.Join(mismatches, "; "),
		}
	}
	return nil
}
