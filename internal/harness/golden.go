package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/matchdag/internal/ir"
)

// Snapshot captures everything a scenario produced. It is serialized with
// canonical JSON so golden files are byte-stable.
type Snapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. Dumps are split into lines to keep golden diffs readable.
func (s *Snapshot) toCanonicalMap() map[string]any {
	r := s.Result
	diags := make([]any, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		m := map[string]any{
			"code":     d.Code,
			"severity": d.Severity.String(),
			"message":  d.Message,
			"arm":      d.Arm,
		}
		if d.Subject != "" {
			m["subject"] = d.Subject
		}
		if len(d.Args) > 0 {
			m["args"] = d.Args
		}
		diags[i] = m
	}
	runs := make([]any, len(r.Runs))
	for i, run := range r.Runs {
		runs[i] = map[string]any{
			"input":   run.Input,
			"outcome": run.Outcome,
		}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"construct":     r.Construct,
		"kind":          r.Kind,
		"graph":         lines(r.Graph),
		"plan":          lines(r.Plan),
		"diagnostics":   diags,
		"runs":          runs,
	}
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

// Marshal returns the canonical JSON form of the snapshot.
func (s *Snapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{ScenarioName: scenarioName, Result: result}
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
