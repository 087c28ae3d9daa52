package rt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/types"
)

func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	u := types.NewUniverse()
	require.NoError(t, u.Define(&types.Type{
		Name: "Point", Kind: types.KindStruct,
		Members: []types.Member{{Name: "X", Type: u.Int}, {Name: "Y", Type: u.Int}},
		Deconstructors: []types.Deconstructor{{Params: []types.Param{
			{Name: "a", Type: u.Int, Field: "X"}, {Name: "b", Type: u.Int, Field: "Y"},
		}}},
	}))
	return New(u)
}

func point(x, y int64) ir.IRValue {
	return ir.IRRecord{Type: "Point", Fields: map[string]ir.IRValue{"X": ir.IRInt(x), "Y": ir.IRInt(y)}}
}

func TestTypeOf(t *testing.T) {
	r := newRuntime(t)
	tests := []struct {
		v    ir.IRValue
		want string
	}{
		{ir.IRInt(1), "int"},
		{ir.IRFloat(1), "double"},
		{ir.IRString("s"), "string"},
		{ir.IRTyped{Type: "long", Value: ir.IRInt(1)}, "long"},
		{ir.IRTyped{Type: "int?", Value: ir.IRInt(1)}, "int"},
		{ir.IRTuple{ir.IRInt(1), ir.IRBool(true)}, "(int, bool)"},
		{ir.IRArray{ir.IRInt(1), ir.IRInt(2)}, "int[]"},
		{ir.IRArray{ir.IRInt(1), ir.IRString("x")}, "object[]"},
		{point(1, 2), "Point"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			typ, err := r.TypeOf(tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, typ.Name)
		})
	}

	_, err := r.TypeOf(ir.IRNull{})
	assert.ErrorIs(t, err, ErrNullReference)
}

func TestIsInstance(t *testing.T) {
	r := newRuntime(t)
	u := r.Universe()
	assert.True(t, r.IsInstance(ir.IRInt(1), u.Object))
	assert.True(t, r.IsInstance(ir.IRInt(1), u.MustLookup("int?")))
	assert.False(t, r.IsInstance(ir.IRInt(1), u.Long))
	assert.False(t, r.IsInstance(ir.IRNull{}, u.Object))
	assert.True(t, r.IsInstance(ir.IRTuple{ir.IRInt(1), ir.IRInt(2)}, u.ITuple))
}

func TestMemberAndDeconstruct(t *testing.T) {
	r := newRuntime(t)

	v, err := r.Member(point(3, 4), "Y")
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(4), v)

	v, err = r.Member(ir.IRString("héllo"), "Length")
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(5), v, "length counts characters")

	v, err = r.Member(ir.IRTuple{ir.IRInt(1), ir.IRInt(2)}, "Item2")
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(2), v)

	_, err = r.Member(ir.IRNull{}, "X")
	assert.ErrorIs(t, err, ErrNullReference)

	_, err = r.Member(point(1, 2), "Z")
	assert.Error(t, err)

	pt := r.Universe().MustLookup("Point")
	out, err := r.Deconstruct(point(5, 6), &pt.Deconstructors[0])
	require.NoError(t, err)
	assert.Equal(t, []ir.IRValue{ir.IRInt(5), ir.IRInt(6)}, out)
}

func TestIndexAndSlice(t *testing.T) {
	r := newRuntime(t)
	arr := ir.IRArray{ir.IRInt(10), ir.IRInt(20), ir.IRInt(30)}

	v, err := r.Index(arr, 0, false)
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(10), v)

	v, err = r.Index(arr, 1, true)
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(30), v)

	_, err = r.Index(arr, 3, false)
	assert.Error(t, err)

	s, err := r.Slice(arr, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, ir.IRArray{ir.IRInt(20)}, s)

	s, err = r.Slice(ir.IRString("abcd"), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("bc"), s)

	c, err := r.Index(ir.IRString("ab"), 1, true)
	require.NoError(t, err)
	assert.Equal(t, ir.IRChar('b'), c)
}

func TestCompareNaN(t *testing.T) {
	nan := ir.IRFloat(math.NaN())
	for _, op := range []ir.RelOp{ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe} {
		assert.False(t, Compare(nan, op, ir.IRFloat(0)), "NaN %s 0", op)
		assert.False(t, Compare(ir.IRFloat(0), op, nan), "0 %s NaN", op)
	}
	assert.True(t, Compare(nan, ir.OpEq, nan), "NaN constant matches NaN")
	assert.False(t, Compare(ir.IRFloat(1), ir.OpEq, nan))
	assert.True(t, Compare(ir.IRFloat(math.Inf(1)), ir.OpGe, ir.IRFloat(10)))
}

func TestCompareScalars(t *testing.T) {
	tests := []struct {
		name string
		v    ir.IRValue
		op   ir.RelOp
		c    ir.IRValue
		want bool
	}{
		{"int eq", ir.IRInt(42), ir.OpEq, ir.IRInt(42), true},
		{"int lt", ir.IRInt(4), ir.OpLt, ir.IRInt(5), true},
		{"char ge", ir.IRChar('b'), ir.OpGe, ir.IRChar('a'), true},
		{"string eq", ir.IRString("a"), ir.OpEq, ir.IRString("a"), true},
		{"string vs int", ir.IRString("1"), ir.OpEq, ir.IRInt(1), false},
		{"bool", ir.IRBool(true), ir.OpEq, ir.IRBool(false), false},
		{"enum typed", ir.IRTyped{Type: "Color", Value: ir.IRInt(1)}, ir.OpEq, ir.IRInt(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.v, tt.op, tt.c))
		})
	}
}
