package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/matchdag/internal/analysis"
	"github.com/roach88/matchdag/internal/compiler"
	"github.com/roach88/matchdag/internal/config"
	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/lower"
	"github.com/roach88/matchdag/internal/store"
	"github.com/roach88/matchdag/internal/testutil"
)

const pairsDoc = `
construct: {
	Pair: {
		kind:  "switch-expression"
		input: "(int, int)"
		arms: [{ pattern: { positional: [{ const: 3 }, { const: 4 }] }, text: "(3, 4) => 1" }]
	}
	NotFortyTwo: {
		kind:  "is"
		input: "int"
		arms: [{ pattern: { or: [{ not: { const: 42 } }, { const: 43 }] } }]
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

func compileDoc(t *testing.T, src string) *compiler.Document {
	t.Helper()
	doc, err := compiler.CompileString("pairs.cue", src)
	require.NoError(t, err)
	return doc
}

func construct(t *testing.T, doc *compiler.Document, name string) *compiler.Construct {
	t.Helper()
	c, ok := doc.Construct(name)
	require.True(t, ok, "construct %s", name)
	return c
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBuild_NonExhaustiveTuple(t *testing.T) {
	doc := compileDoc(t, pairsDoc)
	e := New()

	res, err := e.Build(doc.Universe, construct(t, doc, "Pair"))
	require.NoError(t, err)
	require.NotNil(t, res.Graph)
	require.NotNil(t, res.Plan)
	assert.False(t, res.Cached)
	assert.Empty(t, res.RunID)

	assert.False(t, res.Analysis.Exhaustive)
	assert.Equal(t, "(0, _)", res.Analysis.Witness)
	assert.Equal(t, []string{diag.CodeNonExhaustive}, res.Diagnostics().Codes())
	assert.Equal(t, res.Graph.Dump(), res.GraphDump)
	assert.Equal(t, res.Plan.String(), res.PlanListing)
	assert.Contains(t, res.PlanListing, "fail SwitchExpressionException")
}

func TestRun_FailureCarriesUnmatchedValue(t *testing.T) {
	doc := compileDoc(t, pairsDoc)
	e := New()
	res, err := e.Build(doc.Universe, construct(t, doc, "Pair"))
	require.NoError(t, err)

	out, err := e.Run(doc.Universe, res, ir.IRTuple{ir.IRInt(3), ir.IRInt(4)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Arm)

	_, err = e.Run(doc.Universe, res, ir.IRTuple{ir.IRInt(1), ir.IRInt(2)}, nil)
	var mf *lower.MatchFailure
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, "(1, 2)", mf.Payload)
}

func TestRun_GuardTable(t *testing.T) {
	doc := compileDoc(t, pairsDoc)
	e := New()
	res, err := e.Build(doc.Universe, construct(t, doc, "Digits"))
	require.NoError(t, err)

	out, err := e.Run(doc.Universe, res, ir.IRInt(500), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Arm)
	assert.Equal(t, ir.IRValue(ir.IRInt(500)), out.Bindings["n"])

	out, err = e.Run(doc.Universe, res, ir.IRInt(500), map[int]bool{4: false})
	require.NoError(t, err)
	assert.Equal(t, 5, out.Arm)

	out, err = e.Run(doc.Universe, res, ir.IRInt(3), map[int]bool{4: false})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Arm)
}

func TestBuild_RedundantOperand(t *testing.T) {
	doc := compileDoc(t, pairsDoc)

	res, err := New().Build(doc.Universe, construct(t, doc, "NotFortyTwo"))
	require.NoError(t, err)
	require.Equal(t, []string{diag.CodeRedundant}, res.Diagnostics().Codes())
	assert.Equal(t, "43", res.Diagnostics()[0].Subject)
}

func TestBuild_InvalidConstruct(t *testing.T) {
	doc := compileDoc(t, `
construct: Twice: {
	kind:  "is"
	input: "int"
	arms: [{ pattern: { const: 1 } }, { pattern: { const: 2 } }]
}
`)
	_, err := New().Build(doc.Universe, construct(t, doc, "Twice"))
	require.Error(t, err)
	assert.True(t, IsInvalidConstruct(err))

	var ie *InvalidConstructError
	require.True(t, errors.As(err, &ie))
	require.Len(t, ie.Errors, 1)
	assert.Equal(t, compiler.ErrIsArity, ie.Errors[0].Code)
	assert.Contains(t, err.Error(), "construct Twice is invalid: [E101]")
}

func TestWithConfig(t *testing.T) {
	doc := compileDoc(t, pairsDoc)
	c := construct(t, doc, "Digits")

	res, err := New().Build(doc.Universe, c)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Plan.Dispatches())

	cfg := config.Default()
	cfg.Lower.DispatchThreshold = 10
	res, err = New(WithConfig(cfg)).Build(doc.Universe, c)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Plan.Dispatches())
}

func TestOptionsFingerprint(t *testing.T) {
	a := New().OptionsFingerprint()
	assert.Equal(t, a, New().OptionsFingerprint())

	lo := lower.DefaultOptions()
	lo.DispatchThreshold = 8
	assert.NotEqual(t, a, New(WithLowerOptions(lo)).OptionsFingerprint())

	ao := analysis.DefaultOptions()
	ao.NestedRedundancySeverity = diag.SeverityWarning
	assert.NotEqual(t, a, New(WithAnalysisOptions(ao)).OptionsFingerprint())
}

func TestProcess_WithoutStoreBuilds(t *testing.T) {
	doc := compileDoc(t, pairsDoc)

	res, err := New().Process(context.Background(), doc.Universe, construct(t, doc, "Pair"))
	require.NoError(t, err)
	assert.NotNil(t, res.Plan)
	assert.False(t, res.Cached)
}

func TestProcess_CachesPlans(t *testing.T) {
	doc := compileDoc(t, pairsDoc)
	s := openStore(t)
	e := New(
		WithStore(s),
		WithClock(testutil.NewSeqClock()),
		WithRunIDs(testutil.NewSeqRunIDs("")),
	)
	ctx := context.Background()
	c := construct(t, doc, "Pair")

	first, err := e.Process(ctx, doc.Universe, c)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "run-0001", first.RunID)

	second, err := e.Process(ctx, doc.Universe, c)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Nil(t, second.Plan)
	assert.Equal(t, "run-0002", second.RunID)

	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, first.PlanListing, second.PlanListing)
	assert.Equal(t, first.GraphDump, second.GraphDump)
	assert.Equal(t, first.PlanFingerprint, second.PlanFingerprint)
	assert.Equal(t, first.Analysis.Diagnostics, second.Analysis.Diagnostics)
	assert.Equal(t, first.Analysis.Witness, second.Analysis.Witness)
	assert.Equal(t, first.Analysis.Exhaustive, second.Analysis.Exhaustive)

	_, err = e.Run(doc.Universe, second, ir.IRTuple{ir.IRInt(3), ir.IRInt(4)}, nil)
	assert.ErrorIs(t, err, ErrNotBuilt)

	runs, err := s.ReadRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, store.Run{ID: "run-0001", Seq: 2, Construct: "Pair", PlanKey: first.Key}, runs[0])
	assert.Equal(t, store.Run{ID: "run-0002", Seq: 3, Construct: "Pair", PlanKey: first.Key, CacheHit: true}, runs[1])
}

func TestProcess_OptionsSplitCache(t *testing.T) {
	doc := compileDoc(t, pairsDoc)
	s := openStore(t)
	ctx := context.Background()
	c := construct(t, doc, "Digits")

	lo := lower.DefaultOptions()
	lo.DispatchThreshold = 10

	_, err := New(WithStore(s)).Process(ctx, doc.Universe, c)
	require.NoError(t, err)
	res, err := New(WithStore(s), WithLowerOptions(lo)).Process(ctx, doc.Universe, c)
	require.NoError(t, err)
	assert.False(t, res.Cached)

	plans, err := s.ReadPlansForConstruct(ctx, res.ConstructFingerprint)
	require.NoError(t, err)
	assert.Len(t, plans, 2)
}

func TestProcessAll(t *testing.T) {
	doc := compileDoc(t, pairsDoc+`
construct: Bad: {
	kind:  "is"
	input: "int"
	arms: [{ pattern: { const: 1 }, when: "x > 0" }]
}
`)
	s := openStore(t)
	e := New(WithStore(s), WithRunIDs(testutil.NewSeqRunIDs("")))

	results, err := e.ProcessAll(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, IsInvalidConstruct(err))
	require.Len(t, results, 3)
	for i, name := range []string{"Pair", "NotFortyTwo", "Digits"} {
		assert.Equal(t, name, results[i].Construct.Name)
	}

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Plans)
	assert.Equal(t, 3, st.Runs)
}

func TestProcessAll_Cancelled(t *testing.T) {
	doc := compileDoc(t, pairsDoc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := New().ProcessAll(ctx, doc)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestCachedResultKeepsUnreachable(t *testing.T) {
	tests := []struct {
		name string
		arms string
		want []int
	}{
		{"subsumed", `[{ pattern: "_" }, { pattern: { const: 1 } }]`, []int{1}},
		{"capture under or", `[{ pattern: { or: [{ var: "x" }, { const: 1 }] } }, { pattern: "_" }]`, []int{0}},
		{"all reachable", `[{ pattern: { const: 1 } }, { pattern: "_" }]`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := compileDoc(t, `
construct: Dead: {
	kind:  "switch-statement"
	input: "int"
	arms: `+tt.arms+`
}
`)
			c := construct(t, doc, "Dead")
			e := New(WithStore(openStore(t)))
			ctx := context.Background()

			fresh, err := e.Process(ctx, doc.Universe, c)
			require.NoError(t, err)
			require.False(t, fresh.Cached)
			assert.Equal(t, tt.want, fresh.Analysis.Unreachable)

			cached, err := e.Process(ctx, doc.Universe, c)
			require.NoError(t, err)
			require.True(t, cached.Cached)
			assert.Equal(t, fresh.Analysis.Unreachable, cached.Analysis.Unreachable)
		})
	}
}
