package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"null", IRNull{}, "null"},
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"max int64", IRInt(9223372036854775807), "9223372036854775807"},
		{"min int64", IRInt(-9223372036854775808), "-9223372036854775808"},
		{"bool true", IRBool(true), "true"},
		{"bool false", IRBool(false), "false"},
		{"empty array", IRArray{}, "[]"},
		{"array of ints", IRArray{IRInt(1), IRInt(2), IRInt(3)}, "[1,2,3]"},
		{"char", IRChar('a'), `{"$char":"a"}`},
		{"tuple", IRTuple{IRInt(1), IRBool(true)}, `{"$tuple":[1,true]}`},
		{"typed", IRTyped{Type: "long", Value: IRInt(7)}, `{"$type":"long","value":7}`},
		{"plain map", map[string]any{"b": 1, "a": "x"}, `{"a":"x","b":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalFloats(t *testing.T) {
	tests := []struct {
		name     string
		input    IRFloat
		expected string
	}{
		{"integral", 1, `{"$float":"1"}`},
		{"fraction", 1.5, `{"$float":"1.5"}`},
		{"nan", IRFloat(math.NaN()), `{"$float":"NaN"}`},
		{"plus inf", IRFloat(math.Inf(1)), `{"$float":"+Inf"}`},
		{"minus inf", IRFloat(math.Inf(-1)), `{"$float":"-Inf"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalFloatDistinctFromInt(t *testing.T) {
	f, err := MarshalCanonical(IRFloat(1))
	require.NoError(t, err)
	i, err := MarshalCanonical(IRInt(1))
	require.NoError(t, err)
	assert.NotEqual(t, string(f), string(i))
}

func TestMarshalCanonicalRecordSortedKeys(t *testing.T) {
	rec := IRRecord{Type: "Point", Fields: map[string]IRValue{
		"Y": IRInt(2),
		"X": IRInt(1),
	}}

	result, err := MarshalCanonical(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"$type":"Point","fields":{"X":1,"Y":2}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 vs U+10000 - UTF-16 order differs from UTF-8
	obj := map[string]any{
		"\uE000": IRInt(1),
		"𐀀":      IRInt(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)

	// UTF-16 order: 0xD800 < 0xE000, so 𐀀 comes first
	expected := `{"𐀀":2,"` + "\uE000" + `":1}`
	assert.Equal(t, expected, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(IRString("<a&b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "é" as e + combining acute vs precomposed
	decomposed, err := MarshalCanonical(IRString("e\u0301"))
	require.NoError(t, err)
	composed, err := MarshalCanonical(IRString("\u00e9"))
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}

func TestMarshalCanonicalUnsupported(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}
