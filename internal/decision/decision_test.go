package decision

import (
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/pattern"
	"github.com/roach88/matchdag/internal/rt"
	"github.com/roach88/matchdag/internal/testutil"
	"github.com/roach88/matchdag/internal/types"
	"github.com/roach88/matchdag/internal/valueset"
)

func arms(ps ...pattern.Pattern) []Arm {
	out := make([]Arm, len(ps))
	for i, p := range ps {
		out[i] = Arm{Pattern: p}
	}
	return out
}

func assertGolden(t *testing.T, name string, got string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(got))
}

func TestTemps_DeduplicatesEvaluations(t *testing.T) {
	u := testutil.Universe()
	m := NewTemps(u.MustLookup("S"))

	a, ea := m.Temp(m.Input(), Descriptor{Kind: EvalMember, Member: "Prop1"}, u.Int)
	b, eb := m.Temp(m.Input(), Descriptor{Kind: EvalMember, Member: "Prop1"}, u.Int)
	c, _ := m.Temp(m.Input(), Descriptor{Kind: EvalMember, Member: "Prop2"}, u.Int)

	assert.Same(t, a, b)
	assert.Same(t, ea, eb)
	assert.NotSame(t, a, c)
	assert.Len(t, m.Evaluations(), 2)
	assert.Len(t, m.All(), 3)

	front, _ := m.Temp(m.Input(), Descriptor{Kind: EvalIndex, Index: 1}, u.Int)
	back, _ := m.Temp(m.Input(), Descriptor{Kind: EvalIndex, Index: 1, FromEnd: true}, u.Int)
	assert.NotSame(t, front, back)
}

func TestTemps_DeconstructSharesOutputs(t *testing.T) {
	u := testutil.Universe()
	point := u.MustLookup("Point")
	m := NewTemps(point)
	method := &point.Deconstructors[0]

	e1 := m.Evaluate(m.Input(), Descriptor{Kind: EvalDeconstruct, Method: method}, u.Int, u.Int)
	e2 := m.Evaluate(m.Input(), Descriptor{Kind: EvalDeconstruct, Method: method}, u.Int, u.Int)
	require.Same(t, e1, e2)
	assert.Len(t, e1.Outputs, 2)
	assert.Equal(t, 1, e1.Outputs[1].Index)
}

func TestCond_Simplification(t *testing.T) {
	u := testutil.Universe()
	b := &builder{oracle: u, temps: NewTemps(u.Object), testsByKey: map[string]*Test{}}
	x := b.nonNull(b.temps.Input())
	y := b.test(&Test{Kind: TestType, Temp: b.temps.Input(), Type: u.String})

	assert.True(t, And().IsTrue())
	assert.True(t, Or().IsFalse())
	assert.True(t, And(x, False()).IsFalse())
	assert.True(t, Or(x, True()).IsTrue())
	assert.Same(t, x, Not(Not(x)))
	assert.Equal(t, "&(t0,t1)", And(x, True(), y).Key())
	assert.Equal(t, "|(t0,!t1)", Or(x, Or(Not(y))).Key())
	assert.Same(t, x.test, b.nonNull(b.temps.Input()).test, "tests are interned")
}

func TestFacts_Resolve(t *testing.T) {
	u := testutil.Universe()
	b := &builder{oracle: u, temps: NewTemps(u.Object), testsByKey: map[string]*Test{}}
	t0 := b.temps.Input()
	nn := b.nonNull(t0).test
	isInt := b.test(&Test{Kind: TestType, Temp: t0, Type: u.Int}).test
	isString := b.test(&Test{Kind: TestType, Temp: t0, Type: u.String}).test
	lt5 := b.test(&Test{Kind: TestValue, Temp: t0, Op: ir.OpLt, Value: ir.IRInt(5), Domain: mustDomain(t, u.Int), DomainType: u.Int}).test
	lt3 := b.test(&Test{Kind: TestValue, Temp: t0, Op: ir.OpLt, Value: ir.IRInt(3), Domain: mustDomain(t, u.Int), DomainType: u.Int}).test
	ge5 := b.test(&Test{Kind: TestValue, Temp: t0, Op: ir.OpGe, Value: ir.IRInt(5), Domain: mustDomain(t, u.Int), DomainType: u.Int}).test

	f := NewFacts()
	_, known := f.Resolve(isInt)
	assert.False(t, known)

	f = f.Learn(isInt, true)
	v, known := f.Resolve(nn)
	assert.True(t, known && v, "a successful type test implies non-null")
	v, known = f.Resolve(isString)
	assert.True(t, known && !v, "int and string are disjoint")

	f = f.Learn(lt5, true)
	v, known = f.Resolve(ge5)
	assert.True(t, known && !v)
	_, known = f.Resolve(lt3)
	assert.False(t, known)

	g := NewFacts().Learn(nn, false)
	v, known = g.Resolve(isInt)
	assert.True(t, known && !v, "null is no instance")

	h := NewFacts().Learn(nn, true).Learn(isInt, true).Learn(lt5, false)
	v, known = h.Resolve(ge5)
	assert.True(t, known && v, "not < 5 on a known int is >= 5")

	assert.Equal(t, NewFacts().Learn(isInt, true).Learn(nn, true).Key(), NewFacts().Learn(nn, true).Learn(isInt, true).Key())
}

func TestBuild_OpenDomainOr(t *testing.T) {
	u := testutil.Universe()
	p := pattern.OrOf(
		pattern.Rel(ir.OpLt, ir.IRInt(5)),
		pattern.Props(u.String, pattern.P("Length", pattern.C(ir.IRInt(1)))),
		pattern.Decl(u.Bool, ""),
	)
	g := Build(u, u.Object, arms(p))
	require.Empty(t, g.Problems)
	assertGolden(t, "open_domain_or", g.Dump())

	// Each of the three alternatives is decided by its own type test; no
	// path tests two of them positively.
	r := rt.New(u)
	for _, v := range []ir.IRValue{ir.IRInt(4), ir.IRString("a"), ir.IRBool(false)} {
		res, err := g.Walk(r, v, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Arm, ir.Format(v))
	}
	for _, v := range []ir.IRValue{ir.IRInt(5), ir.IRString("ab"), ir.IRNull{}, ir.IRFloat(1.5)} {
		res, err := g.Walk(r, v, nil)
		require.NoError(t, err)
		assert.False(t, res.Matched(), ir.Format(v))
	}
}

func TestBuild_ListSharing(t *testing.T) {
	u := testutil.Universe()
	ints := u.MustLookup("int[]")
	withLast := pattern.L(pattern.V("x"), pattern.S(nil), pattern.V("y"))
	withFirst := pattern.L(pattern.V("x"), pattern.S(nil))

	g := Build(u, ints, arms(withLast, withFirst))
	require.Empty(t, g.Problems)
	assertGolden(t, "list_sharing", g.Dump())

	// Both arms share the length read, the length test guarding the first
	// element, and the one evaluation node reading it.
	assert.Same(t, g.Arms[0].Bindings["x"], g.Arms[1].Bindings["x"])
	shared := intersect(g.ArmNodes(0), g.ArmNodes(1))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, shared)
	assert.Equal(t, NodeEval, g.Nodes[1].Kind)
	assert.Equal(t, EvalLength, g.Nodes[1].Eval.Kind)
	require.Equal(t, NodeEval, g.Nodes[3].Kind)
	assert.Equal(t, EvalIndex, g.Nodes[3].Eval.Kind)
	assert.Same(t, g.Arms[0].Bindings["x"], g.Nodes[3].Eval.Outputs[0])
	assert.Equal(t, 1, countEvals(g, g.Arms[0].Bindings["x"]), "element 0 is read once")

	r := rt.New(u)
	res, err := g.Walk(r, testutil.Ints(1, 2, 3), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Arm)
	assert.Equal(t, ir.IRInt(1), res.Bindings["x"])
	assert.Equal(t, ir.IRInt(3), res.Bindings["y"])

	res, err = g.Walk(r, testutil.Ints(7), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Arm)
	assert.Equal(t, ir.IRInt(7), res.Bindings["x"])
}

func TestBuild_ListFirstArmSubsumesSecond(t *testing.T) {
	u := testutil.Universe()
	g := Build(u, u.MustLookup("int[]"), arms(
		pattern.L(pattern.V("x"), pattern.S(nil)),
		pattern.L(pattern.V("x"), pattern.S(nil), pattern.V("y")),
	))
	assert.GreaterOrEqual(t, g.Leaf(0), 0)
	assert.Equal(t, -1, g.Leaf(1))
}

func TestBuild_NaNChain(t *testing.T) {
	u := testutil.Universe()
	nan := ir.IRFloat(math.NaN())
	ps := []pattern.Pattern{
		pattern.Rel(ir.OpLt, ir.IRInt(0)),
		pattern.AndOf(pattern.Rel(ir.OpGe, ir.IRInt(0)), pattern.Rel(ir.OpLt, ir.IRInt(10))),
		pattern.Rel(ir.OpGe, ir.IRInt(10)),
		pattern.C(nan),
	}
	g := Build(u, u.Double, arms(ps...))
	require.Empty(t, g.Problems)
	assertGolden(t, "nan_chain", g.Dump())
	assert.Equal(t, -1, g.NoMatch(), "the four arms cover every double")

	r := rt.New(u)
	// Every rotation of the arm order still sends NaN to the NaN arm.
	for shift := range ps {
		rotated := append(append([]pattern.Pattern{}, ps[shift:]...), ps[:shift]...)
		g := Build(u, u.Double, arms(rotated...))
		res, err := g.Walk(r, nan, nil)
		require.NoError(t, err)
		require.True(t, res.Matched())
		assert.Same(t, ps[3], rotated[res.Arm], "rotation %d", shift)
	}
}

func TestBuild_SharedDeconstruction(t *testing.T) {
	u := testutil.Universe()
	point := u.MustLookup("Point")
	g := Build(u, point, arms(
		pattern.Pos(nil, pattern.C(ir.IRInt(0)), pattern.C(ir.IRInt(0))),
		pattern.Pos(nil, pattern.C(ir.IRInt(0)), pattern.V("y")),
		pattern.Pos(nil, pattern.V("x"), pattern.D()),
	))
	require.Empty(t, g.Problems)

	deconstructs := 0
	for _, e := range g.Temps.Evaluations() {
		if e.Kind == EvalDeconstruct {
			deconstructs++
		}
	}
	assert.Equal(t, 1, deconstructs)
	assert.Equal(t, NodeEval, g.Nodes[g.Root].Kind, "deconstruction happens once, first")
	assert.Equal(t, -1, g.NoMatch(), "var x covers the rest")
}

func TestBuild_StructuralFallback(t *testing.T) {
	u := testutil.Universe()
	g := Build(u, u.Object, arms(pattern.Pos(nil, pattern.C(ir.IRInt(1)), pattern.D())))
	require.Empty(t, g.Problems)
	assert.Contains(t, g.Dump(), "t0 is ITuple")
	assert.Contains(t, g.Dump(), "t1 = ((ITuple)t0).Length")
	assert.Contains(t, g.Dump(), "t1 == 2")
	assert.Contains(t, g.Dump(), "t2 = ((ITuple)t0)[0]")

	r := rt.New(u)
	res, err := g.Walk(r, testutil.Tuple(ir.IRInt(1), ir.IRString("a")), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Arm)
}

func TestBuild_StaticTypeOmitsTest(t *testing.T) {
	u := testutil.Universe()
	circle := u.MustLookup("Circle")

	g := Build(u, u.Int, arms(pattern.Decl(u.Int, "i")))
	assert.Equal(t, NodeLeaf, g.Nodes[g.Root].Kind)
	assert.Equal(t, -1, g.NoMatch())

	g = Build(u, circle, arms(pattern.Decl(circle, "c")))
	assert.Equal(t, "[0]: t0 != null ? [1] : [2]\n[1]: leaf `Circle c`\n[2]: <no match>\n", g.Dump())

	g = Build(u, u.Nullable(u.Int), arms(pattern.C(ir.IRInt(1))))
	assert.Equal(t, "[0]: t0 != null ? [1] : [3]\n[1]: t0 == 1 ? [2] : [3]\n[2]: leaf `1`\n[3]: <no match>\n", g.Dump())
}

func TestBuild_DottedPropertyPath(t *testing.T) {
	u := testutil.Universe()
	node := u.MustLookup("Node")
	g := Build(u, node, arms(pattern.Props(nil, pattern.P("Next.Value", pattern.C(ir.IRInt(5))))))
	require.Empty(t, g.Problems)
	assert.Equal(t,
		"[0]: t0 != null ? [1] : [6]\n"+
			"[1]: t1 = t0.Next; [2]\n"+
			"[2]: t1 != null ? [3] : [6]\n"+
			"[3]: t2 = t1.Value; [4]\n"+
			"[4]: t2 == 5 ? [5] : [6]\n"+
			"[5]: leaf `{ Next.Value: 5 }`\n"+
			"[6]: <no match>\n",
		g.Dump())
}

func TestBuild_Guards(t *testing.T) {
	u := testutil.Universe()
	g := Build(u, u.Int, []Arm{
		{Pattern: pattern.V("x"), Guard: "x > 0"},
		{Pattern: pattern.V("y"), Guard: "false"},
		{Pattern: pattern.D(), Guard: "true"},
	})
	assert.Equal(t,
		"[0]: when x > 0 ? [1] : [2]\n"+
			"[1]: leaf `var x`\n"+
			"[2]: leaf `_`\n",
		g.Dump())
	assert.Equal(t, -1, g.Leaf(1))

	r := rt.New(u)
	positive := func(arm int, b pattern.Bindings) (bool, error) {
		return rt.Compare(b["x"], ir.OpGt, ir.IRInt(0)), nil
	}
	res, err := g.Walk(r, ir.IRInt(3), positive)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Arm)
	res, err = g.Walk(r, ir.IRInt(-3), positive)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Arm)
}

func TestBuild_StructuralErrors(t *testing.T) {
	u := testutil.Universe()

	tests := []struct {
		name  string
		input string
		p     pattern.Pattern
		code  string
	}{
		{"capture under or", "int", pattern.OrOf(pattern.V("x"), pattern.C(ir.IRInt(1))), diag.CodeCaptureUnderCombinator},
		{"capture under not", "object", pattern.Not(pattern.Decl(u.String, "s")), diag.CodeCaptureUnderCombinator},
		{"ambiguous deconstruct", "Amb", pattern.Pos(nil, pattern.D(), pattern.D()), diag.CodeAmbiguousDeconstruct},
		{"no deconstruct", "S", pattern.Pos(nil, pattern.D(), pattern.D()), diag.CodeMissingDeconstruct},
		{"tuple arity", "(int, int)", pattern.Pos(nil, pattern.D(), pattern.D(), pattern.D()), diag.CodeMissingDeconstruct},
		{"relational on pointer", "*int", pattern.Rel(ir.OpLt, ir.IRInt(5)), diag.CodeUnsupportedDomain},
		{"relational on string", "string", pattern.Rel(ir.OpLt, ir.IRString("a")), diag.CodeUnsupportedDomain},
		{"list without shape", "Point", pattern.L(pattern.D()), diag.CodeUnsupportedDomain},
		{"property on pointer", "*int", pattern.Props(nil), diag.CodeUnsupportedDomain},
		{"unknown member", "S", pattern.Props(nil, pattern.P("Prop3", pattern.D())), diag.CodeUnknownMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Build(u, u.MustLookup(tt.input), arms(tt.p))
			require.NotEmpty(t, g.Problems)
			assert.Equal(t, tt.code, g.Problems[0].Code)
			assert.Equal(t, 0, g.Problems[0].Arm)
			assert.True(t, g.Problems.HasErrors())
			assert.Equal(t, -1, g.Leaf(0), "the offending arm never matches")
		})
	}
}

func TestBuild_Deterministic(t *testing.T) {
	u := testutil.Universe()
	shape := u.MustLookup("Shape")
	circle := u.MustLookup("Circle")
	square := u.MustLookup("Square")
	build := func() *Graph {
		return Build(u, shape, arms(
			pattern.Props(circle, pattern.P("Radius", pattern.Rel(ir.OpGt, ir.IRInt(1)))),
			pattern.Props(square, pattern.P("Side", pattern.OrOf(pattern.C(ir.IRInt(1)), pattern.C(ir.IRInt(2))))),
			pattern.Decl(circle, "c"),
			pattern.D(),
		))
	}
	a, b := build(), build()
	assert.Equal(t, a.Dump(), b.Dump())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, a.Stats(), b.Stats())
	assert.Equal(t, a.Tree(), b.Tree())
}

func TestWalk_AgreesWithMatch(t *testing.T) {
	u := testutil.Universe()
	r := rt.New(u)
	point := u.MustLookup("Point")
	circle := u.MustLookup("Circle")
	color := u.MustLookup("Color")
	intList := pattern.L(pattern.C(ir.IRInt(1)), pattern.S(pattern.V("rest")))
	intList.Type = u.MustLookup("int[]")

	patterns := []pattern.Pattern{
		pattern.D(),
		pattern.Null(),
		pattern.Not(pattern.Null()),
		pattern.Decl(u.Int, "i"),
		pattern.Rel(ir.OpGe, ir.IRInt(3)),
		pattern.OrOf(pattern.C(ir.IRInt(1)), pattern.C(ir.IRString("a"))),
		pattern.AndOf(pattern.Decl(u.Int, ""), pattern.Not(pattern.C(ir.IRInt(0)))),
		pattern.Pos(point, pattern.C(ir.IRInt(1)), pattern.V("y")),
		pattern.Pos(nil, pattern.D(), pattern.C(ir.IRString("b"))),
		pattern.Props(circle, pattern.P("Radius", pattern.Rel(ir.OpLt, ir.IRInt(2)))),
		pattern.Props(u.String, pattern.P("Length", pattern.Rel(ir.OpGt, ir.IRInt(1)))),
		intList,
		pattern.CT(ir.IRInt(1), color),
		pattern.Not(pattern.OrOf(pattern.Decl(u.String, ""), pattern.Decl(u.Bool, ""))),
	}
	values := []ir.IRValue{
		ir.IRNull{},
		ir.IRInt(0), ir.IRInt(1), ir.IRInt(3),
		ir.IRString("a"), ir.IRString("ab"),
		ir.IRBool(true),
		testutil.Point(1, 2), testutil.Point(0, 0),
		ir.IRRecord{Type: "Circle", Fields: map[string]ir.IRValue{"Radius": ir.IRFloat(1)}},
		testutil.Tuple(ir.IRInt(1), ir.IRString("b")),
		testutil.Ints(1, 2, 3), testutil.Ints(2),
		testutil.Color(1),
	}

	for _, p := range patterns {
		g := Build(u, u.Object, arms(p))
		require.Empty(t, g.Problems, pattern.Format(p))
		for _, v := range values {
			want, _, err := pattern.Match(u, r, p, v, u.Object)
			require.NoError(t, err)
			res, err := g.Walk(r, v, nil)
			require.NoError(t, err)
			assert.Equal(t, want, res.Matched(), "%s against %s", pattern.Format(p), ir.Format(v))
		}
	}
}

func TestPathsTo(t *testing.T) {
	u := testutil.Universe()
	g := Build(u, u.MustLookup("(int, int)"), arms(
		pattern.Pos(nil, pattern.C(ir.IRInt(3)), pattern.C(ir.IRInt(4))),
	))
	paths := g.PathsTo(g.NoMatch(), 10)
	require.Len(t, paths, 2)
	assert.Less(t, len(paths[1].Nodes), len(paths[0].Nodes), "true branches are explored first")
}

func mustDomain(t *testing.T, typ *types.Type) valueset.Domain {
	t.Helper()
	d, ok := valueset.For(typ)
	require.True(t, ok, typ.Name)
	return d
}

func intersect(a, b []int) []int {
	in := map[int]bool{}
	for _, x := range b {
		in[x] = true
	}
	var out []int
	for _, x := range a {
		if in[x] {
			out = append(out, x)
		}
	}
	return out
}

// countEvals counts the evaluation nodes producing t.
func countEvals(g *Graph, t *Temp) int {
	n := 0
	for _, node := range g.Nodes {
		if node.Kind != NodeEval {
			continue
		}
		for _, out := range node.Eval.Outputs {
			if out == t {
				n++
			}
		}
	}
	return n
}
