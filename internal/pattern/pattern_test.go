package pattern

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/rt"
	"github.com/roach88/matchdag/internal/testutil"
)

func TestFormat(t *testing.T) {
	u := testutil.Universe()

	tests := []struct {
		name string
		p    Pattern
		want string
	}{
		{"discard", D(), "_"},
		{"var", V("x"), "var x"},
		{"declaration", Decl(u.MustLookup("Circle"), "c"), "Circle c"},
		{"declaration without name", Decl(u.MustLookup("Circle"), ""), "Circle"},
		{"constant", C(ir.IRInt(42)), "42"},
		{"string constant", C(ir.IRString("a")), `"a"`},
		{"null", Null(), "null"},
		{"relational", Rel(ir.OpLt, ir.IRInt(5)), "< 5"},
		{"enum member", CT(ir.IRInt(1), u.MustLookup("Color")), "Color.Green"},
		{"float nan", CT(ir.IRFloat(math.NaN()), u.Float), "float.NaN"},
		{"double nan", CT(ir.IRFloat(math.NaN()), u.Double), "double.NaN"},
		{"or chain", OrOf(C(ir.IRInt(1)), C(ir.IRInt(2)), C(ir.IRInt(3))), "1 or 2 or 3"},
		{"or under and", AndOf(OrOf(C(ir.IRInt(1)), C(ir.IRInt(2))), C(ir.IRInt(3))), "(1 or 2) and 3"},
		{"not of or", Not(OrOf(C(ir.IRInt(1)), C(ir.IRInt(2)))), "not (1 or 2)"},
		{"not null", Not(Null()), "not null"},
		{"positional", Pos(u.MustLookup("Point"), V("x"), D()), "Point (var x, _)"},
		{"empty positional", Pos(nil), "()"},
		{"property", Props(nil, P("Prop1", C(ir.IRInt(1)))), "{ Prop1: 1 }"},
		{"empty property", Props(nil), "{ }"},
		{"list with slice", L(C(ir.IRInt(1)), S(nil), C(ir.IRInt(2))), "[1, .., 2]"},
		{"slice with inner", L(S(V("rest"))), "[.. var rest]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.p))
		})
	}
}

func TestText_PrefersSource(t *testing.T) {
	p := &Constant{Value: ir.IRInt(1), Src: "0x01"}
	assert.Equal(t, "0x01", Text(p))
	assert.Equal(t, "1", Text(C(ir.IRInt(1))))
	assert.Equal(t, "", Text(nil))
}

func TestCapturesAndTestsNull(t *testing.T) {
	u := testutil.Universe()
	p := Pos(u.MustLookup("Point"), V("x"), AndOf(Decl(u.Int, "y"), Not(Null())))

	assert.Equal(t, []string{"x", "y"}, Captures(p))
	assert.True(t, TestsNull(p))
	assert.False(t, TestsNull(C(ir.IRInt(0))))
}

func TestValidate(t *testing.T) {
	u := testutil.Universe()
	circle := u.MustLookup("Circle")

	tests := []struct {
		name  string
		p     Pattern
		codes []string
	}{
		{"capture under or", OrOf(V("x"), C(ir.IRInt(1))), []string{diag.CodeCaptureUnderCombinator}},
		{"capture under not", Not(Decl(circle, "c")), []string{diag.CodeCaptureUnderCombinator}},
		{"capture nested under or", OrOf(Pos(nil, V("a")), D()), []string{diag.CodeCaptureUnderCombinator}},
		{"capture under and", AndOf(V("x"), C(ir.IRInt(1))), nil},
		{"slice at top level", S(nil), []string{diag.CodeMisplacedSlice}},
		{"two slices", L(S(nil), S(nil)), []string{diag.CodeMisplacedSlice}},
		{"slice in positional", Pos(nil, S(nil)), []string{diag.CodeMisplacedSlice}},
		{"slice in list", L(C(ir.IRInt(1)), S(nil)), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := Validate(tt.p, 3)
			if tt.codes == nil {
				assert.Empty(t, problems.Codes())
			} else {
				assert.Equal(t, tt.codes, problems.Codes())
			}
			for _, d := range problems {
				assert.Equal(t, 3, d.Arm)
				assert.Equal(t, diag.SeverityError, d.Severity)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	u := testutil.Universe()
	r := rt.New(u)
	circle := u.MustLookup("Circle")
	point := u.MustLookup("Point")
	node := u.MustLookup("Node")

	circleVal := ir.IRRecord{Type: "Circle", Fields: map[string]ir.IRValue{"Radius": ir.IRFloat(1)}}
	leaf := ir.IRRecord{Type: "Node", Fields: map[string]ir.IRValue{"Next": ir.IRNull{}, "Value": ir.IRInt(5)}}
	chain := ir.IRRecord{Type: "Node", Fields: map[string]ir.IRValue{"Next": leaf, "Value": ir.IRInt(1)}}

	tests := []struct {
		name   string
		p      Pattern
		v      ir.IRValue
		static string
		want   bool
		binds  Bindings
	}{
		{"discard", D(), ir.IRNull{}, "object", true, Bindings{}},
		{"var binds null", V("x"), ir.IRNull{}, "object", true, Bindings{"x": ir.IRNull{}}},
		{"type test", Decl(circle, "c"), circleVal, "Shape", true, Bindings{"c": circleVal}},
		{"type test fails on null", Decl(circle, "c"), ir.IRNull{}, "Shape", false, nil},
		{"null constant", Null(), ir.IRNull{}, "object", true, Bindings{}},
		{"not null", Not(Null()), ir.IRInt(1), "object", true, Bindings{}},
		{"constant", C(ir.IRInt(42)), ir.IRInt(42), "int", true, Bindings{}},
		{"constant mismatch", C(ir.IRInt(42)), ir.IRInt(43), "int", false, nil},
		{"int constant in double domain", Rel(ir.OpGt, ir.IRInt(0)), ir.IRFloat(0.5), "double", true, Bindings{}},
		{"nan constant", C(ir.IRFloat(math.NaN())), ir.IRFloat(math.NaN()), "double", true, Bindings{}},
		{"relational with nan input", Rel(ir.OpLt, ir.IRFloat(1)), ir.IRFloat(math.NaN()), "double", false, nil},
		{"constant on object input", C(ir.IRInt(1)), ir.IRString("1"), "object", false, nil},
		{"deconstruct", Pos(nil, C(ir.IRInt(1)), V("y")), testutil.Point(1, 2), "Point", true, Bindings{"y": ir.IRInt(2)}},
		{"deconstruct mismatch", Pos(nil, C(ir.IRInt(1)), V("y")), testutil.Point(3, 2), "Point", false, nil},
		{"typed positional", Pos(point, D(), D()), testutil.Point(0, 0), "object", true, Bindings{}},
		{"tuple", Pos(nil, C(ir.IRInt(1)), D()), testutil.Tuple(ir.IRInt(1), ir.IRInt(2)), "(int, int)", true, Bindings{}},
		{"structural", Pos(nil, C(ir.IRInt(1)), D()), testutil.Tuple(ir.IRInt(1), ir.IRInt(2)), "object", true, Bindings{}},
		{"structural wrong length", Pos(nil, D(), D(), D()), testutil.Tuple(ir.IRInt(1), ir.IRInt(2)), "object", false, nil},
		{"dotted property", Props(node, P("Next.Value", C(ir.IRInt(5)))), chain, "Node", true, Bindings{}},
		{"dotted property through null", Props(node, P("Next.Value", C(ir.IRInt(5)))), leaf, "Node", false, nil},
		{"property pattern on shape", Props(circle, P("Radius", Rel(ir.OpGt, ir.IRInt(0)))), circleVal, "Shape", true, Bindings{}},
		{"or", OrOf(C(ir.IRInt(1)), C(ir.IRInt(2))), ir.IRInt(2), "int", true, Bindings{}},
		{"and binds", AndOf(Rel(ir.OpGt, ir.IRInt(0)), V("n")), ir.IRInt(2), "int", true, Bindings{"n": ir.IRInt(2)}},
		{"exact list", L(C(ir.IRInt(1)), C(ir.IRInt(2))), testutil.Ints(1, 2), "int[]", true, Bindings{}},
		{"list length mismatch", L(C(ir.IRInt(1))), testutil.Ints(1, 2), "int[]", false, nil},
		{"list with slice", L(C(ir.IRInt(1)), S(V("mid")), C(ir.IRInt(3))), testutil.Ints(1, 2, 2, 3), "int[]", true,
			Bindings{"mid": testutil.Ints(2, 2)}},
		{"list too short for slice", L(C(ir.IRInt(1)), S(nil), C(ir.IRInt(3))), testutil.Ints(1), "int[]", false, nil},
		{"enum", CT(ir.IRInt(2), u.MustLookup("Color")), testutil.Color(2), "Color", true, Bindings{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, binds, err := Match(u, r, tt.p, tt.v, u.MustLookup(tt.static))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, len(tt.binds), len(binds))
				for k, v := range tt.binds {
					assert.True(t, ir.Equal(v, binds[k]), "binding %s = %s", k, ir.Format(binds[k]))
				}
			} else {
				assert.Nil(t, binds)
			}
		})
	}
}

func TestMatch_AmbiguousDeconstruct(t *testing.T) {
	u := testutil.Universe()
	amb := ir.IRRecord{Type: "Amb", Fields: map[string]ir.IRValue{"A": ir.IRInt(1), "B": ir.IRInt(2)}}

	_, _, err := Match(u, rt.New(u), Pos(nil, D(), D()), amb, u.MustLookup("Amb"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestConstantDomain(t *testing.T) {
	u := testutil.Universe()

	assert.Same(t, u.Double, ConstantDomain(u, ir.IRInt(1), nil, u.Double))
	assert.Same(t, u.Int, ConstantDomain(u, ir.IRInt(1), nil, u.Object))
	assert.Same(t, u.Long, ConstantDomain(u, ir.IRInt(1), u.Long, u.Int))
	assert.Same(t, u.String, ConstantDomain(u, ir.IRString("x"), nil, u.Int))

	assert.Equal(t, ir.IRFloat(1), ConvertConstant(ir.IRInt(1), u.Double))
	assert.Equal(t, ir.IRInt(1), ConvertConstant(ir.IRInt(1), u.Long))
}
