package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/matchdag/internal/diag"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestPlan creates a plan record with minimal required fields.
func createTestPlan(construct, constructFP, optionsFP string, seq int64) PlanRecord {
	return PlanRecord{
		Key:                  Key(constructFP, optionsFP),
		Construct:            construct,
		ConstructFingerprint: constructFP,
		OptionsFingerprint:   optionsFP,
		GraphFingerprint:     "graph-" + constructFP,
		PlanFingerprint:      "plan-" + constructFP,
		Graph:                "[0]: leaf `_`\n",
		Plan:                 "0: arm 0 `_`\n",
		Diagnostics: diag.List{{
			Code:     diag.CodeRedundant,
			Severity: diag.SeverityWarning,
			Message:  "the pattern is redundant",
			Subject:  "43",
			Arm:      0,
		}},
		Exhaustive: true,
		Seq:        seq,
	}
}
