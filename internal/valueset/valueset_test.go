package valueset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/types"
)

func domainFor(t *testing.T, name string) Domain {
	t.Helper()
	u := types.NewUniverse()
	require.NoError(t, u.Define(&types.Type{Name: "Color", Kind: types.KindEnum, EnumMembers: []types.EnumMember{
		{Name: "Red", Value: 0}, {Name: "Green", Value: 1}, {Name: "Blue", Value: 2},
	}}))
	d, ok := For(u.MustLookup(name))
	require.True(t, ok, "no domain for %s", name)
	return d
}

func TestForUnsupported(t *testing.T) {
	u := types.NewUniverse()
	_, ok := For(u.Object)
	assert.False(t, ok)
	_, ok = For(u.MustLookup("int[]"))
	assert.False(t, ok)

	d, ok := For(u.MustLookup("int?"))
	require.True(t, ok, "nullable looks through to the underlying domain")
	assert.Equal(t, "int", d.Name())
}

func TestIntSetAlgebra(t *testing.T) {
	d := domainFor(t, "int")

	lt0 := d.Related(ir.OpLt, ir.IRInt(0))
	ge10 := d.Related(ir.OpGe, ir.IRInt(10))
	covered := lt0.Union(ge10)
	rest := covered.Complement()

	assert.Equal(t, "{[0..9]}", rest.String())
	assert.True(t, rest.Contains(ir.IRInt(5)))
	assert.False(t, rest.Contains(ir.IRInt(10)))
	assert.True(t, covered.Union(rest).IsFull())
	assert.True(t, Subset(d.Related(ir.OpEq, ir.IRInt(3)), rest))
	assert.True(t, Disjoint(lt0, ge10))

	vals, ok := rest.Values()
	require.True(t, ok)
	assert.Len(t, vals, 10)
	_, ok = lt0.Values()
	assert.False(t, ok, "unbounded sets do not enumerate")
}

func TestIntBounds(t *testing.T) {
	b := domainFor(t, "byte")
	assert.True(t, b.Related(ir.OpLt, ir.IRInt(0)).IsEmpty())
	assert.True(t, b.Related(ir.OpGe, ir.IRInt(0)).IsFull())
	assert.True(t, b.Related(ir.OpGt, ir.IRInt(255)).IsEmpty())

	long := domainFor(t, "long")
	assert.True(t, long.Related(ir.OpLe, ir.IRInt(math.MaxInt64)).IsFull())
	assert.True(t, long.All().Complement().IsEmpty())
}

func TestIntSample(t *testing.T) {
	d := domainFor(t, "int")
	tests := []struct {
		name string
		set  Set
		want ir.IRValue
	}{
		{"zero preferred", d.All(), ir.IRInt(0)},
		{"nearest zero above", d.Related(ir.OpEq, ir.IRInt(0)).Complement().Intersect(d.Related(ir.OpGe, ir.IRInt(0))), ir.IRInt(1)},
		{"nearest zero below", d.Related(ir.OpLt, ir.IRInt(-3)), ir.IRInt(-4)},
		{"tie prefers positive", d.Related(ir.OpEq, ir.IRInt(0)).Complement(), ir.IRInt(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.set.Sample()
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := d.None().Sample()
	assert.False(t, ok)
}

func TestCharSet(t *testing.T) {
	d := domainFor(t, "char")
	s := d.Related(ir.OpEq, ir.IRChar('a')).Complement()
	got, ok := s.Sample()
	require.True(t, ok)
	assert.Equal(t, ir.IRChar(0), got)
	assert.False(t, s.Contains(ir.IRChar('a')))
}

func TestFloatNaN(t *testing.T) {
	d := domainFor(t, "double")
	nan := ir.IRFloat(math.NaN())

	lt0 := d.Related(ir.OpLt, ir.IRFloat(0))
	mid := d.Related(ir.OpGe, ir.IRFloat(0)).Intersect(d.Related(ir.OpLt, ir.IRFloat(10)))
	ge10 := d.Related(ir.OpGe, ir.IRFloat(10))
	ordered := lt0.Union(mid).Union(ge10)

	assert.False(t, ordered.Contains(nan), "no ordered comparison admits NaN")
	rest := ordered.Complement()
	assert.True(t, rest.Contains(nan))
	vals, ok := rest.Values()
	require.True(t, ok)
	require.Len(t, vals, 1)
	assert.True(t, ir.IsNaN(vals[0]))

	assert.True(t, d.Related(ir.OpGe, nan).IsEmpty())
	assert.True(t, d.Related(ir.OpEq, nan).Contains(nan))
	assert.True(t, ordered.Union(d.Related(ir.OpEq, nan)).IsFull())
}

func TestFloatSample(t *testing.T) {
	d := domainFor(t, "double")
	nan := ir.IRFloat(math.NaN())

	got, ok := d.Related(ir.OpGt, ir.IRFloat(2)).Sample()
	require.True(t, ok)
	assert.Greater(t, float64(got.(ir.IRFloat)), 2.0)

	got, ok = d.Related(ir.OpEq, ir.IRFloat(math.Inf(1))).Sample()
	require.True(t, ok)
	assert.True(t, math.IsInf(float64(got.(ir.IRFloat)), 1))

	got, ok = d.Related(ir.OpEq, nan).Sample()
	require.True(t, ok)
	assert.True(t, ir.IsNaN(got))
}

func TestFloatPointExclusion(t *testing.T) {
	d := domainFor(t, "double")
	not1 := d.Related(ir.OpEq, ir.IRFloat(1)).Complement()
	assert.False(t, not1.Contains(ir.IRFloat(1)))
	assert.True(t, not1.Contains(ir.IRFloat(math.Nextafter(1, 2))))
	assert.True(t, not1.Contains(ir.IRFloat(math.Nextafter(1, 0))))
}

func TestStringSet(t *testing.T) {
	d := domainFor(t, "string")
	a := d.Related(ir.OpEq, ir.IRString("a"))
	empty := d.Related(ir.OpEq, ir.IRString(""))
	rest := a.Union(empty).Complement()

	assert.False(t, rest.Contains(ir.IRString("a")))
	assert.True(t, rest.Contains(ir.IRString("z")))
	got, ok := rest.Sample()
	require.True(t, ok)
	assert.Equal(t, ir.IRString("b"), got)
	assert.Equal(t, `not {"", "a"}`, rest.String())

	assert.True(t, d.Related(ir.OpLt, ir.IRString("a")).IsEmpty(), "strings are unordered")
	assert.True(t, a.Intersect(rest).IsEmpty())
}

func TestBoolAndEnum(t *testing.T) {
	b := domainFor(t, "bool")
	onlyTrue := b.Related(ir.OpEq, ir.IRBool(true))
	missing := onlyTrue.Complement()
	vals, ok := missing.Values()
	require.True(t, ok)
	assert.Equal(t, []ir.IRValue{ir.IRBool(false)}, vals)
	assert.True(t, b.Finite())

	c := domainFor(t, "Color")
	notRed := c.Related(ir.OpGt, ir.IRInt(0))
	assert.Equal(t, "{Color.Green, Color.Blue}", notRed.String())
	assert.Equal(t, "Color.Blue", Label(c, ir.IRInt(2)))
	got, ok := notRed.Sample()
	require.True(t, ok)
	assert.Equal(t, ir.IRInt(1), got)
}

func TestLengthDomain(t *testing.T) {
	l := Length()
	assert.True(t, l.Related(ir.OpGe, ir.IRInt(0)).IsFull())
	atLeast2 := l.Related(ir.OpGe, ir.IRInt(2))
	rest := atLeast2.Complement()
	assert.Equal(t, "{[0..1]}", rest.String())
}
