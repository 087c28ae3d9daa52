package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/ir"
)

// marshalDiagnostics converts diagnostics to JSON TEXT.
// Diagnostic is a struct (not IRValue), so encoding/json is used with HTML
// escaping disabled; struct fields keep declaration order.
func marshalDiagnostics(ds diag.List) (string, error) {
	if ds == nil {
		ds = diag.List{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // patterns contain < and >
	if err := enc.Encode(ds); err != nil {
		return "", fmt.Errorf("marshal diagnostics: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// marshalMissing converts the missing-value list to canonical JSON TEXT.
func marshalMissing(missing []string) (string, error) {
	arr := make([]any, len(missing))
	for i, m := range missing {
		arr[i] = m
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal missing: %w", err)
	}
	return string(data), nil
}

// marshalUnreachable converts unreachable arm indices to canonical JSON TEXT.
func marshalUnreachable(arms []int) (string, error) {
	arr := make([]any, len(arms))
	for i, a := range arms {
		arr[i] = a
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal unreachable: %w", err)
	}
	return string(data), nil
}

// unmarshalDiagnostics parses JSON TEXT to diagnostics.
func unmarshalDiagnostics(data string) (diag.List, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var ds diag.List
	if err := json.Unmarshal([]byte(data), &ds); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	return ds, nil
}

// unmarshalMissing parses JSON TEXT to the missing-value list.
func unmarshalMissing(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var missing []string
	if err := json.Unmarshal([]byte(data), &missing); err != nil {
		return nil, fmt.Errorf("unmarshal missing: %w", err)
	}
	return missing, nil
}

// unmarshalUnreachable parses JSON TEXT to unreachable arm indices.
func unmarshalUnreachable(data string) ([]int, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var arms []int
	if err := json.Unmarshal([]byte(data), &arms); err != nil {
		return nil, fmt.Errorf("unmarshal unreachable: %w", err)
	}
	return arms, nil
}
