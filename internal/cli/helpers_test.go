package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const pairsSpec = `
construct: {
	Pair: {
		kind:  "switch-expression"
		input: "(int, int)"
		arms: [{ pattern: { positional: [{ const: 3 }, { const: 4 }] } }]
		inputs: [{ tuple: [3, 4] }, { tuple: [1, 2] }]
	}
	Digits: {
		kind:  "switch-statement"
		input: "int"
		arms: [
			{ pattern: { const: 1 } },
			{ pattern: { const: 2 } },
			{ pattern: { const: 3 } },
			{ pattern: { const: 4 } },
			{ pattern: { var: "n" }, when: "n > 100" },
			{ pattern: "_" },
		]
	}
}
`

// writeFile writes content to name inside dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
