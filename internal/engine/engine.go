package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/matchdag/internal/analysis"
	"github.com/roach88/matchdag/internal/compiler"
	"github.com/roach88/matchdag/internal/config"
	"github.com/roach88/matchdag/internal/decision"
	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/logging"
	"github.com/roach88/matchdag/internal/lower"
	"github.com/roach88/matchdag/internal/pattern"
	"github.com/roach88/matchdag/internal/rt"
	"github.com/roach88/matchdag/internal/store"
	"github.com/roach88/matchdag/internal/types"
)

// ErrNotBuilt is returned by Run for a result served from the cache.
var ErrNotBuilt = errors.New("plan was served from the cache; use Build to execute it")

// Engine processes constructs with fixed analysis and lowering options.
//
// Thread-safety model:
//   - Build: safe from any goroutine, shares no state between calls
//   - Process: safe from any goroutine; the store serializes writes
type Engine struct {
	analysis analysis.Options
	lower    lower.Options
	store    *store.Store // nil disables the plan cache
	clock    Sequencer
	runIDs   RunIDGenerator
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig takes the analysis and lowering options from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.analysis = cfg.AnalysisOptions()
		e.lower = cfg.LowerOptions()
	}
}

// WithAnalysisOptions overrides the analyzer options.
func WithAnalysisOptions(o analysis.Options) Option {
	return func(e *Engine) { e.analysis = o }
}

// WithLowerOptions overrides the lowering options.
func WithLowerOptions(o lower.Options) Option {
	return func(e *Engine) { e.lower = o }
}

// WithStore attaches a plan cache.
func WithStore(s *store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithClock sets the sequencer stamping cached plans and runs.
//
// Default: a fresh Clock. When reopening an existing cache, resume with
// NewClockAt(stats.MaxSeq) so seqs keep increasing.
func WithClock(c Sequencer) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRunIDs sets the run ID generator. Default: UUIDv7RunIDs.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) { e.runIDs = g }
}

// New creates an Engine with default options, then applies opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		analysis: analysis.DefaultOptions(),
		lower:    lower.DefaultOptions(),
		clock:    NewClock(),
		runIDs:   UUIDv7RunIDs{},
		log:      logging.GetLogger("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is one processed construct.
type Result struct {
	Construct *compiler.Construct
	// ConstructFingerprint and Key identify the construct and its cache
	// entry.
	ConstructFingerprint string
	Key                  string

	// Graph and Plan are nil when the result was served from the cache.
	Graph *decision.Graph
	Plan  *lower.Plan

	Analysis         analysis.Result
	GraphDump        string
	PlanListing      string
	GraphFingerprint string
	PlanFingerprint  string

	Cached bool
	RunID  string // empty when no cache is attached
}

// Diagnostics returns the construct's diagnostics.
func (r *Result) Diagnostics() diag.List { return r.Analysis.Diagnostics }

// OptionsFingerprint identifies the options a plan depends on.
func (e *Engine) OptionsFingerprint() string {
	failures := make([]any, len(e.lower.FailureTypes))
	for i, f := range e.lower.FailureTypes {
		failures[i] = f
	}
	return ir.MustFingerprint(ir.DomainPlan, map[string]any{
		"nested_redundancy_severity": e.analysis.NestedRedundancySeverity.String(),
		"witness_max_paths":          ir.IRInt(e.analysis.WitnessMaxPaths),
		"dispatch_threshold":         ir.IRInt(e.lower.DispatchThreshold),
		"failure_types":              failures,
	})
}

// Build validates c, then builds, analyzes and lowers it. The cache is
// neither read nor written.
func (e *Engine) Build(u *types.Universe, c *compiler.Construct) (*Result, error) {
	if errs := compiler.ValidateConstruct(u, c); len(errs) > 0 {
		return nil, &InvalidConstructError{Construct: c.Name, Errors: errs}
	}

	log := e.log.With().Str("construct", c.Name).Str("kind", c.Kind.String()).Logger()
	done := logging.LogOperationStart(log, "build")
	defer done()

	g := decision.Build(u, c.Input, c.Arms)
	stats := g.Stats()
	log.Debug().
		Int("nodes", stats.Nodes).
		Int("tests", stats.Tests).
		Int("evaluations", stats.Evaluations).
		Int("problems", len(g.Problems)).
		Msg("graph built")

	res := analysis.Analyze(g, c.Kind, e.analysis)
	log.Debug().
		Int("diagnostics", len(res.Diagnostics)).
		Bool("exhaustive", res.Exhaustive).
		Msg("graph analyzed")

	plan := lower.Lower(g, c.Kind, e.lower)
	log.Debug().
		Int("ops", len(plan.Ops)).
		Int("dispatches", plan.Dispatches()).
		Str("failure", plan.Failure.String()).
		Msg("plan lowered")

	cfp := c.Fingerprint(u)
	return &Result{
		Construct:            c,
		ConstructFingerprint: cfp,
		Key:                  store.Key(cfp, e.OptionsFingerprint()),
		Graph:                g,
		Plan:                 plan,
		Analysis:             res,
		GraphDump:            g.Dump(),
		PlanListing:          plan.String(),
		GraphFingerprint:     g.Fingerprint(),
		PlanFingerprint:      plan.Fingerprint(),
	}, nil
}

// Process is Build behind the plan cache. Without a cache it is Build.
func (e *Engine) Process(ctx context.Context, u *types.Universe, c *compiler.Construct) (*Result, error) {
	if e.store == nil {
		return e.Build(u, c)
	}
	if errs := compiler.ValidateConstruct(u, c); len(errs) > 0 {
		return nil, &InvalidConstructError{Construct: c.Name, Errors: errs}
	}

	cfp := c.Fingerprint(u)
	key := store.Key(cfp, e.OptionsFingerprint())
	rec, found, err := e.store.ReadPlan(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", c.Name, err)
	}

	var res *Result
	if found {
		res = fromRecord(c, rec)
	} else {
		if res, err = e.Build(u, c); err != nil {
			return nil, err
		}
		if err := e.store.WritePlan(ctx, toRecord(res, e.OptionsFingerprint(), e.clock.Next())); err != nil {
			return nil, fmt.Errorf("process %s: %w", c.Name, err)
		}
	}

	res.RunID = e.runIDs.NewRunID()
	run := store.Run{ID: res.RunID, Seq: e.clock.Next(), Construct: c.Name, PlanKey: key, CacheHit: found}
	if err := e.store.WriteRun(ctx, run); err != nil {
		return nil, fmt.Errorf("process %s: %w", c.Name, err)
	}
	e.log.Debug().Str("construct", c.Name).Bool("cache_hit", found).Str("run", res.RunID).Msg("construct processed")
	return res, nil
}

// ProcessAll processes the document's constructs in declaration order. It
// stops at the first operational error; invalid constructs are collected
// and reported together after the rest have been processed.
func (e *Engine) ProcessAll(ctx context.Context, doc *compiler.Document) ([]*Result, error) {
	var (
		out     []*Result
		invalid []error
	)
	for _, c := range doc.Constructs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := e.Process(ctx, doc.Universe, c)
		if IsInvalidConstruct(err) {
			invalid = append(invalid, err)
			continue
		}
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, errors.Join(invalid...)
}

// Run executes v through a built result's plan. guards gives the value of
// each guarded arm's when-clause; arms not listed pass.
func (e *Engine) Run(u *types.Universe, res *Result, v ir.IRValue, guards map[int]bool) (lower.Outcome, error) {
	if res.Plan == nil {
		return lower.Outcome{Arm: -1}, ErrNotBuilt
	}
	v = pattern.ConvertConstant(v, res.Construct.Input)
	out, err := res.Plan.Execute(rt.New(u), v, GuardTable(guards))
	e.log.Debug().
		Str("construct", res.Construct.Name).
		Str("input", ir.Format(v)).
		Int("arm", out.Arm).
		Err(err).
		Msg("plan executed")
	return out, err
}

// GuardTable returns a guard function answering from values. A nil or
// empty table passes every guard.
func GuardTable(values map[int]bool) decision.GuardFunc {
	return func(arm int, _ pattern.Bindings) (bool, error) {
		if v, ok := values[arm]; ok {
			return v, nil
		}
		return true, nil
	}
}

func toRecord(res *Result, optionsFingerprint string, seq int64) store.PlanRecord {
	return store.PlanRecord{
		Key:                  res.Key,
		Construct:            res.Construct.Name,
		ConstructFingerprint: res.ConstructFingerprint,
		OptionsFingerprint:   optionsFingerprint,
		GraphFingerprint:     res.GraphFingerprint,
		PlanFingerprint:      res.PlanFingerprint,
		Graph:                res.GraphDump,
		Plan:                 res.PlanListing,
		Diagnostics:          res.Analysis.Diagnostics,
		Exhaustive:           res.Analysis.Exhaustive,
		Witness:              res.Analysis.Witness,
		Missing:              res.Analysis.Missing,
		Unreachable:          res.Analysis.Unreachable,
		Seq:                  seq,
	}
}

func fromRecord(c *compiler.Construct, rec store.PlanRecord) *Result {
	res := analysis.Result{
		Diagnostics: rec.Diagnostics,
		Exhaustive:  rec.Exhaustive,
		Witness:     rec.Witness,
		Missing:     rec.Missing,
		Unreachable: rec.Unreachable,
	}
	return &Result{
		Construct:            c,
		ConstructFingerprint: rec.ConstructFingerprint,
		Key:                  rec.Key,
		Analysis:             res,
		GraphDump:            rec.Graph,
		PlanListing:          rec.Plan,
		GraphFingerprint:     rec.GraphFingerprint,
		PlanFingerprint:      rec.PlanFingerprint,
		Cached:               true,
	}
}
