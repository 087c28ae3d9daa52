package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/matchdag/internal/diag"
)

func TestSnapshotMarshal(t *testing.T) {
	r := NewResult()
	r.Construct = "Pair"
	r.Kind = "switch-expression"
	r.Graph = "[0]: leaf `_`\n"
	r.Plan = "0: arm 0\n"
	r.Diagnostics = diag.List{{Code: diag.CodeNonExhaustive, Severity: diag.SeverityWarning, Message: "m", Arm: -1, Args: []string{"(0, _)"}}}
	r.Runs = []RunRecord{{Input: "(1, 2)", Outcome: "no match"}}

	data, err := (&Snapshot{ScenarioName: "pair", Result: r}).Marshal()
	require.NoError(t, err)
	assert.Equal(t,
		`{"construct":"Pair","diagnostics":[{"args":["(0, _)"],"arm":-1,"code":"PM0107","message":"m","severity":"warning"}],`+
			`"graph":["[0]: leaf `+"`_`"+`"],"kind":"switch-expression","plan":["0: arm 0"],`+
			`"runs":[{"input":"(1, 2)","outcome":"no match"}],"scenario_name":"pair"}`,
		string(data))
}

func TestNewResult(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
