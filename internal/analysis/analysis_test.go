package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/matchdag/internal/decision"
	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/pattern"
	"github.com/roach88/matchdag/internal/testutil"
	"github.com/roach88/matchdag/internal/types"
)

func analyze(t *testing.T, u *types.Universe, input string, kind Kind, ps ...pattern.Pattern) Result {
	t.Helper()
	arms := make([]decision.Arm, len(ps))
	for i, p := range ps {
		arms[i] = decision.Arm{Pattern: p}
	}
	g := decision.Build(u, u.MustLookup(input), arms)
	return Analyze(g, kind, DefaultOptions())
}

func c(v ir.IRValue) pattern.Pattern { return pattern.C(v) }

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"is", IsExpression},
		{"switch-statement", SwitchStatement},
		{"switch-expression", SwitchExpression},
		{" Switch ", SwitchExpression},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			k, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, k)
		})
	}

	_, err := ParseKind("match")
	assert.Error(t, err)
}

func TestNonExhaustiveTuple(t *testing.T) {
	u := testutil.Universe()
	res := analyze(t, u, "(int, int)", SwitchExpression,
		pattern.Pos(nil, c(ir.IRInt(3)), c(ir.IRInt(4))))

	assert.False(t, res.Exhaustive)
	assert.Equal(t, "(0, _)", res.Witness)
	assert.Empty(t, res.Missing)
	require.Equal(t, []string{diag.CodeNonExhaustive}, res.Diagnostics.Codes())
	d := res.Diagnostics[0]
	assert.Equal(t, diag.SeverityWarning, d.Severity)
	assert.Equal(t, -1, d.Arm)
	assert.Equal(t, []string{"(0, _)"}, d.Args)
	assert.Contains(t, d.Message, `"(0, _)"`)
}

func TestNonExhaustiveStatementIsInformational(t *testing.T) {
	u := testutil.Universe()
	res := analyze(t, u, "int", SwitchStatement, c(ir.IRInt(1)))
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.SeverityInfo, res.Diagnostics[0].Severity)
	assert.Equal(t, "0", res.Witness)
}

func TestWitnessAvoidsCoveredValues(t *testing.T) {
	u := testutil.Universe()
	res := analyze(t, u, "int", SwitchExpression, c(ir.IRInt(0)), pattern.Rel(ir.OpLt, ir.IRInt(0)))
	assert.Equal(t, "1", res.Witness)

	res = analyze(t, u, "string", SwitchExpression, c(ir.IRString("")), c(ir.IRString("a")))
	assert.Equal(t, `"b"`, res.Witness)
}

func TestMissingFiniteValues(t *testing.T) {
	u := testutil.Universe()
	color := u.MustLookup("Color")
	yes, no := ir.IRBool(true), ir.IRBool(false)

	tests := []struct {
		name    string
		input   string
		arms    []pattern.Pattern
		witness string
		missing []string
	}{
		{
			name:    "nullable bool covering true",
			input:   "bool?",
			arms:    []pattern.Pattern{c(yes)},
			witness: "false",
			missing: []string{"false"},
		},
		{
			name:    "nullable bool with explicit null arm",
			input:   "bool?",
			arms:    []pattern.Pattern{c(yes), pattern.Null()},
			witness: "false",
			missing: []string{"false"},
		},
		{
			name:    "bool pair missing one combination",
			input:   "(bool, bool)",
			arms:    []pattern.Pattern{pattern.Pos(nil, c(no), c(no)), pattern.Pos(nil, c(no), c(yes)), pattern.Pos(nil, c(yes), c(yes))},
			witness: "(true, false)",
		},
		{
			name:    "enum",
			input:   "Color",
			arms:    []pattern.Pattern{pattern.CT(ir.IRInt(0), color), pattern.CT(ir.IRInt(2), color)},
			witness: "Color.Green",
			missing: []string{"Color.Green"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := analyze(t, u, tt.input, SwitchExpression, tt.arms...)
			assert.False(t, res.Exhaustive)
			assert.Equal(t, tt.witness, res.Witness)
			assert.Equal(t, tt.missing, res.Missing)
			assert.Len(t, res.Diagnostics.WithCode(diag.CodeNonExhaustive), 1)
		})
	}
}

func TestNullExcludedFromCoverage(t *testing.T) {
	u := testutil.Universe()
	res := analyze(t, u, "bool?", SwitchExpression, c(ir.IRBool(true)), c(ir.IRBool(false)))
	assert.True(t, res.Exhaustive)
	assert.Empty(t, res.Diagnostics)

	circle := u.MustLookup("Circle")
	res = analyze(t, u, "Circle", SwitchExpression, pattern.Decl(circle, "c"))
	assert.True(t, res.Exhaustive)
}

func TestNullCoverageWhenNullIsTested(t *testing.T) {
	u := testutil.Universe()
	res := analyze(t, u, "bool?", SwitchExpression, pattern.Null(), c(ir.IRBool(true)))
	assert.False(t, res.Exhaustive)
	assert.Equal(t, []string{"false"}, res.Missing)

	res = analyze(t, u, "bool?", SwitchExpression, c(ir.IRBool(true)), c(ir.IRBool(false)), pattern.Null())
	assert.True(t, res.Exhaustive)
}

func TestWitnessShapes(t *testing.T) {
	u := testutil.Universe()
	circle := u.MustLookup("Circle")
	tests := []struct {
		name    string
		input   string
		arms    []pattern.Pattern
		witness string
	}{
		{
			name:    "property",
			input:   "S",
			arms:    []pattern.Pattern{pattern.Props(nil, pattern.P("Prop1", c(ir.IRInt(0))))},
			witness: "{ Prop1: 1 }",
		},
		{
			name:    "deconstruction",
			input:   "Point",
			arms:    []pattern.Pattern{pattern.Pos(nil, c(ir.IRInt(0)), pattern.D())},
			witness: "(1, _)",
		},
		{
			name:  "typed property",
			input: "object",
			arms: []pattern.Pattern{
				pattern.Props(circle, pattern.P("Radius", pattern.Rel(ir.OpGt, ir.IRInt(0)))),
				pattern.Not(pattern.Decl(circle, "")),
			},
			witness: "Circle { Radius: 0.0 }",
		},
		{
			name:    "failed type test",
			input:   "Shape",
			arms:    []pattern.Pattern{pattern.Decl(circle, "c")},
			witness: "_",
		},
		{
			name:    "list element",
			input:   "int[]",
			arms:    []pattern.Pattern{pattern.L(), pattern.L(c(ir.IRInt(1)), pattern.S(nil))},
			witness: "[0]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := analyze(t, u, tt.input, SwitchExpression, tt.arms...)
			assert.Equal(t, tt.witness, res.Witness)
		})
	}
}

func TestRedundantTopLevel(t *testing.T) {
	u := testutil.Universe()
	res := analyze(t, u, "int", IsExpression,
		pattern.OrOf(pattern.Not(c(ir.IRInt(42))), c(ir.IRInt(43))))

	require.Equal(t, []string{diag.CodeRedundant}, res.Diagnostics.Codes())
	d := res.Diagnostics[0]
	assert.Equal(t, "43", d.Subject)
	assert.Equal(t, diag.SeverityWarning, d.Severity)
	assert.Equal(t, 0, d.Arm)
}

func TestRedundantNestedInProperties(t *testing.T) {
	u := testutil.Universe()
	p := pattern.OrOf(
		pattern.Props(nil, pattern.P("Prop1", pattern.OrOf(pattern.Not(c(ir.IRInt(42))), c(ir.IRInt(43))))),
		pattern.Props(nil, pattern.P("Prop2", pattern.OrOf(pattern.Not(c(ir.IRInt(44))), c(ir.IRInt(45))))),
	)

	res := analyze(t, u, "S", IsExpression, p)
	got := res.Diagnostics.WithCode(diag.CodeRedundantNested)
	require.Len(t, got, 2)
	assert.Equal(t, "43", got[0].Subject)
	assert.Equal(t, "45", got[1].Subject)
	for _, d := range got {
		assert.Equal(t, diag.SeverityInfo, d.Severity)
	}
	assert.Empty(t, res.Diagnostics.WithCode(diag.CodeRedundant))

	arms := []decision.Arm{{Pattern: p}}
	g := decision.Build(u, u.MustLookup("S"), arms)
	opts := DefaultOptions()
	opts.NestedRedundancySeverity = diag.SeverityWarning
	res = Analyze(g, IsExpression, opts)
	for _, d := range res.Diagnostics.WithCode(diag.CodeRedundantNested) {
		assert.Equal(t, diag.SeverityWarning, d.Severity)
	}
}

func TestRedundantAndOperand(t *testing.T) {
	u := testutil.Universe()
	res := analyze(t, u, "int", IsExpression,
		pattern.AndOf(pattern.Rel(ir.OpGt, ir.IRInt(10)), pattern.Rel(ir.OpGt, ir.IRInt(5))))
	require.Equal(t, []string{diag.CodeRedundant}, res.Diagnostics.Codes())
	assert.Equal(t, "> 5", res.Diagnostics[0].Subject)
	assert.Contains(t, res.Diagnostics[0].Message, "already implies")
}

func TestRedundantThroughNullCheckIsNested(t *testing.T) {
	u := testutil.Universe()
	node := u.MustLookup("Node")
	res := analyze(t, u, "Node", IsExpression,
		pattern.AndOf(pattern.Decl(node, ""), pattern.Props(nil)))
	require.Equal(t, []string{diag.CodeRedundantNested}, res.Diagnostics.Codes())
	assert.Equal(t, "{ }", res.Diagnostics[0].Subject)
}

func TestNotRedundant(t *testing.T) {
	u := testutil.Universe()
	tests := []struct {
		name  string
		input string
		p     pattern.Pattern
	}{
		{"disjoint constants", "int", pattern.OrOf(c(ir.IRInt(1)), c(ir.IRInt(2)))},
		{"range", "int", pattern.AndOf(pattern.Rel(ir.OpGe, ir.IRInt(0)), pattern.Rel(ir.OpLt, ir.IRInt(10)))},
		{"discard operand", "int", pattern.OrOf(c(ir.IRInt(1)), pattern.D())},
		{"independent properties", "S", pattern.OrOf(
			pattern.Props(nil, pattern.P("Prop1", c(ir.IRInt(1)))),
			pattern.Props(nil, pattern.P("Prop2", c(ir.IRInt(1)))),
		)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := analyze(t, u, tt.input, IsExpression, tt.p)
			assert.Empty(t, res.Diagnostics.WithCode(diag.CodeRedundant))
			assert.Empty(t, res.Diagnostics.WithCode(diag.CodeRedundantNested))
		})
	}
}

func TestUnreachableArms(t *testing.T) {
	u := testutil.Universe()

	res := analyze(t, u, "int", SwitchExpression,
		pattern.Rel(ir.OpGt, ir.IRInt(0)), c(ir.IRInt(5)), pattern.D())
	assert.Equal(t, []int{1}, res.Unreachable)
	require.Equal(t, []string{diag.CodeArmSubsumed}, res.Diagnostics.Codes())
	assert.Equal(t, diag.SeverityError, res.Diagnostics[0].Severity)
	assert.Equal(t, 1, res.Diagnostics[0].Arm)
	assert.True(t, res.Exhaustive)

	res = analyze(t, u, "object", SwitchExpression,
		pattern.AndOf(pattern.Decl(u.Int, ""), pattern.Decl(u.String, "")), pattern.D())
	assert.Equal(t, []int{0}, res.Unreachable)
	require.Equal(t, []string{diag.CodeArmImpossible}, res.Diagnostics.Codes())
	assert.Equal(t, diag.SeverityError, res.Diagnostics[0].Severity)
}

func TestUnreachableByFalseGuard(t *testing.T) {
	u := testutil.Universe()
	g := decision.Build(u, u.Int, []decision.Arm{
		{Pattern: pattern.V("x"), Guard: "false"},
		{Pattern: pattern.D()},
	})
	res := Analyze(g, SwitchExpression, DefaultOptions())
	require.Equal(t, []string{diag.CodeArmImpossible}, res.Diagnostics.Codes())
	assert.Equal(t, diag.SeverityWarning, res.Diagnostics[0].Severity)
}

func TestGuardedArmsLeaveGap(t *testing.T) {
	u := testutil.Universe()
	g := decision.Build(u, u.Int, []decision.Arm{
		{Pattern: pattern.V("x"), Guard: "x > 0"},
	})
	res := Analyze(g, SwitchExpression, DefaultOptions())
	assert.False(t, res.Exhaustive)
	assert.Equal(t, "_", res.Witness)
}

func TestIsExpressionDecidedStatically(t *testing.T) {
	u := testutil.Universe()

	res := analyze(t, u, "int", IsExpression, pattern.Decl(u.Int, "i"))
	require.Equal(t, []string{diag.CodeAlwaysMatches}, res.Diagnostics.Codes())
	assert.Equal(t, diag.SeverityWarning, res.Diagnostics[0].Severity)

	res = analyze(t, u, "int", IsExpression, pattern.V("x"))
	assert.Empty(t, res.Diagnostics)

	res = analyze(t, u, "int", IsExpression, pattern.Decl(u.String, "s"))
	require.Equal(t, []string{diag.CodeNeverMatches}, res.Diagnostics.Codes())
	assert.True(t, res.Diagnostics.HasErrors())

	res = analyze(t, u, "int", IsExpression, pattern.OrOf(pattern.Not(c(ir.IRInt(42))), c(ir.IRInt(43))))
	assert.Empty(t, res.Diagnostics.WithCode(diag.CodeAlwaysMatches), "42 still fails")

	res = analyze(t, u, "int", IsExpression, pattern.Not(pattern.Null()))
	assert.Equal(t, []string{diag.CodeAlwaysMatches}, res.Diagnostics.Codes())
}

func TestStructuralProblemsSuppressExhaustiveness(t *testing.T) {
	u := testutil.Universe()
	res := analyze(t, u, "int", SwitchExpression,
		pattern.OrOf(pattern.V("x"), c(ir.IRInt(1))))
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, diag.CodeCaptureUnderCombinator, res.Diagnostics[0].Code)
	assert.Empty(t, res.Diagnostics.WithCode(diag.CodeNonExhaustive))
	assert.Empty(t, res.Diagnostics.WithCode(diag.CodeArmImpossible))
	assert.True(t, res.Exhaustive)
}

func TestOpenSliceCoversEveryList(t *testing.T) {
	u := testutil.Universe()
	res := analyze(t, u, "int[]", SwitchExpression, pattern.L(pattern.S(nil)))
	assert.True(t, res.Exhaustive)
	assert.Empty(t, res.Diagnostics)
}
