package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/roach88/matchdag/internal/compiler"
	"github.com/roach88/matchdag/internal/config"
	"github.com/roach88/matchdag/internal/engine"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/logging"
	"github.com/roach88/matchdag/internal/lower"
	"github.com/roach88/matchdag/internal/pattern"
	"github.com/roach88/matchdag/internal/store"
	"github.com/roach88/matchdag/internal/testutil"
	"github.com/roach88/matchdag/internal/types"
)

// Harness holds the state of one scenario execution.
type Harness struct {
	doc       *compiler.Document
	construct *compiler.Construct
	engine    *engine.Engine
	processed *engine.Result
	logger    zerolog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory plan cache. Deterministic
// helpers ensure reproducible results.
//
// Execution flow:
// 1. Compile the scenario's CUE documents
// 2. Process the construct with the engine
// 3. Check the expected analysis
// 4. Execute the runs
// 5. Evaluate assertions
//
// An error is returned when the scenario cannot execute at all (bad specs,
// unknown construct, invalid construct); failed checks are in the result.
func Run(scenario *Scenario) (*Result, error) {
	doc, err := compiler.CompileFiles(scenario.Specs...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile specs: %w", err)
	}
	c, ok := doc.Construct(scenario.Construct)
	if !ok {
		return nil, fmt.Errorf("construct %q not found in specs", scenario.Construct)
	}

	cfg, err := config.Load("", scenario.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	eng := engine.New(
		engine.WithConfig(cfg),
		engine.WithStore(st),
		engine.WithClock(testutil.NewSeqClock()),
		engine.WithRunIDs(testutil.NewSeqRunIDs(scenario.Name)),
	)

	ctx := context.Background()
	processed, err := eng.Process(ctx, doc.Universe, c)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", c.Name, err)
	}

	h := &Harness{
		doc:       doc,
		construct: c,
		engine:    eng,
		processed: processed,
		logger:    logging.GetLogger("harness").With().Str("scenario", scenario.Name).Logger(),
	}

	result := NewResult()
	result.Construct = c.Name
	result.Kind = c.Kind.String()
	result.Diagnostics = processed.Diagnostics()
	result.Graph = processed.GraphDump
	result.Plan = processed.PlanListing

	if scenario.Expect != nil {
		h.checkExpect(scenario.Expect, result)
	}
	h.executeRuns(scenario.Runs, result)
	for _, errMsg := range EvaluateAssertions(h, scenario, result) {
		result.AddError(errMsg)
	}

	h.logger.Debug().Bool("pass", result.Pass).Int("errors", len(result.Errors)).Msg("scenario finished")
	return result, nil
}

// checkExpect compares the analysis against the expect clause.
func (h *Harness) checkExpect(exp *Expect, result *Result) {
	res := h.processed.Analysis

	if exp.NoDiagnostics && len(res.Diagnostics) > 0 {
		result.AddError(fmt.Sprintf("expect.no_diagnostics: got %v", res.Diagnostics.Codes()))
	}
	if exp.Diagnostics != nil && !slices.Equal(exp.Diagnostics, res.Diagnostics.Codes()) {
		result.AddError(fmt.Sprintf("expect.diagnostics: expected %v, got %v", exp.Diagnostics, res.Diagnostics.Codes()))
	}
	if exp.Exhaustive != nil && *exp.Exhaustive != res.Exhaustive {
		result.AddError(fmt.Sprintf("expect.exhaustive: expected %t, got %t", *exp.Exhaustive, res.Exhaustive))
	}
	if exp.Witness != nil && *exp.Witness != res.Witness {
		result.AddError(fmt.Sprintf("expect.witness: expected %q, got %q", *exp.Witness, res.Witness))
	}
	if exp.Missing != nil && !slices.Equal(exp.Missing, res.Missing) {
		result.AddError(fmt.Sprintf("expect.missing: expected %v, got %v", exp.Missing, res.Missing))
	}
	if exp.Unreachable != nil && !slices.Equal(exp.Unreachable, res.Unreachable) {
		result.AddError(fmt.Sprintf("expect.unreachable: expected %v, got %v", exp.Unreachable, res.Unreachable))
	}
}

// executeRuns executes every run step against the plan.
func (h *Harness) executeRuns(runs []RunStep, result *Result) {
	for i, step := range runs {
		v, err := h.input(step.Input)
		if err != nil {
			result.AddError(fmt.Sprintf("runs[%d]: %v", i, err))
			continue
		}
		out, err := h.engine.Run(h.doc.Universe, h.processed, v, step.Guards)
		rec := RunRecord{Input: ir.Format(v), Outcome: DescribeOutcome(out, err)}
		result.Runs = append(result.Runs, rec)

		var mf *lower.MatchFailure
		switch {
		case err != nil && !errors.As(err, &mf):
			result.AddError(fmt.Sprintf("runs[%d] %s: %v", i, rec.Input, err))
		case step.Fail != "":
			if mf == nil || mf.Error() != step.Fail {
				result.AddError(fmt.Sprintf("runs[%d] %s: expected fail %q, got %s", i, rec.Input, step.Fail, rec.Outcome))
			}
		case step.NoMatch:
			if mf != nil || out.Matched() {
				result.AddError(fmt.Sprintf("runs[%d] %s: expected no match, got %s", i, rec.Input, rec.Outcome))
			}
		case step.Arm != nil:
			if mf != nil || out.Arm != *step.Arm {
				result.AddError(fmt.Sprintf("runs[%d] %s: expected arm %d, got %s", i, rec.Input, *step.Arm, rec.Outcome))
				continue
			}
			h.checkBindings(i, rec.Input, step.Bindings, out.Bindings, result)
		}
	}
}

func (h *Harness) checkBindings(i int, input string, want map[string]any, got pattern.Bindings, result *Result) {
	names := make([]string, 0, len(want))
	for name := range want {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		expected, err := ir.ConvertToIRValue(want[name])
		if err != nil {
			result.AddError(fmt.Sprintf("runs[%d].bindings.%s: %v", i, name, err))
			continue
		}
		actual, ok := got[name]
		if !ok {
			result.AddError(fmt.Sprintf("runs[%d] %s: capture %s not bound", i, input, name))
			continue
		}
		if ir.Format(actual) != ir.Format(expected) {
			result.AddError(fmt.Sprintf("runs[%d] %s: capture %s = %s, expected %s", i, input, name, ir.Format(actual), ir.Format(expected)))
		}
	}
}

// input converts a scenario value to a runtime value of the construct's
// input type.
func (h *Harness) input(raw any) (ir.IRValue, error) {
	v, err := ir.ConvertToIRValue(raw)
	if err != nil {
		return nil, err
	}
	return pattern.ConvertConstant(v, h.construct.Input), nil
}

func (h *Harness) universe() *types.Universe { return h.doc.Universe }

// DescribeOutcome renders an executed outcome as "arm 0 {x = 1}", "fail
// <message>" or "no match".
func DescribeOutcome(out lower.Outcome, err error) string {
	if err != nil {
		var mf *lower.MatchFailure
		if errors.As(err, &mf) {
			return "fail " + mf.Error()
		}
		return "error " + err.Error()
	}
	if !out.Matched() {
		return "no match"
	}
	if len(out.Bindings) == 0 {
		return fmt.Sprintf("arm %d", out.Arm)
	}
	names := make([]string, 0, len(out.Bindings))
	for name := range out.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " = " + ir.Format(out.Bindings[name])
	}
	return fmt.Sprintf("arm %d {%s}", out.Arm, strings.Join(parts, ", "))
}
