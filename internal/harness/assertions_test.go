package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/matchdag/internal/diag"
)

func TestAssertDiagnostic(t *testing.T) {
	l := diag.List{
		{Code: diag.CodeRedundant, Severity: diag.SeverityWarning, Subject: "43", Arm: 0},
		{Code: diag.CodeNonExhaustive, Severity: diag.SeverityInfo, Arm: -1},
	}
	zero, one := 0, 1

	tests := []struct {
		name string
		a    Assertion
		ok   bool
	}{
		{"code", Assertion{Code: diag.CodeRedundant}, true},
		{"code and subject", Assertion{Code: diag.CodeRedundant, Subject: "43"}, true},
		{"wrong subject", Assertion{Code: diag.CodeRedundant, Subject: "42"}, false},
		{"severity", Assertion{Code: diag.CodeNonExhaustive, Severity: "info"}, true},
		{"wrong severity", Assertion{Code: diag.CodeNonExhaustive, Severity: "warning"}, false},
		{"arm", Assertion{Code: diag.CodeRedundant, Arm: &zero}, true},
		{"wrong arm", Assertion{Code: diag.CodeRedundant, Arm: &one}, false},
		{"absent code", Assertion{Code: diag.CodeArmSubsumed}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.a.Type = AssertDiagnostic
			err := assertDiagnostic(l, tt.a)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var ae *AssertionError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, AssertDiagnostic, ae.Type)
			assert.Contains(t, ae.Actual, "PM0103")
		})
	}
}

func TestAssertionError(t *testing.T) {
	err := &AssertionError{Type: "dispatches", Expected: "1", Actual: "0"}
	assert.Equal(t, "Assertion failed: dispatches\n  Expected: 1\n  Actual: 0", err.Error())
}

func TestAssertContains(t *testing.T) {
	assert.NoError(t, assertContains(AssertGraphContains, "[0]: leaf `_`", "leaf"))
	assert.Error(t, assertContains(AssertGraphContains, "[0]: leaf `_`", "t0 is int"))
}

func TestDescribeDiagnostics(t *testing.T) {
	assert.Equal(t, "no diagnostics", describeDiagnostics(nil))
	l := diag.List{{Code: diag.CodeRedundant, Severity: diag.SeverityWarning, Subject: "43", Arm: 0, Message: "m"}}
	assert.Equal(t, `warning [PM0103] arm 0: m (subject "43")`, describeDiagnostics(l))
}
