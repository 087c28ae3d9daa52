package store

import (
	"context"
	"fmt"

	"github.com/roach88/matchdag/internal/diag"
)

// PlanRecord is a cached build of one construct.
type PlanRecord struct {
	Key                  string
	Construct            string // construct name, informational
	ConstructFingerprint string
	OptionsFingerprint   string
	GraphFingerprint     string
	PlanFingerprint      string
	Graph                string // decision graph dump
	Plan                 string // lowered plan listing
	Diagnostics          diag.List
	Exhaustive           bool
	Witness              string
	Missing              []string
	Unreachable          []int // arm indices
	Seq                  int64
}

// Run is one processing of a construct.
type Run struct {
	ID        string
	Seq       int64
	Construct string
	PlanKey   string
	CacheHit  bool
}

// WritePlan inserts a plan record.
// Uses ON CONFLICT(key) DO NOTHING for idempotency - a plan already cached
// under the key is kept, since equal keys build equal plans.
func (s *Store) WritePlan(ctx context.Context, rec PlanRecord) error {
	if rec.Key == "" {
		rec.Key = Key(rec.ConstructFingerprint, rec.OptionsFingerprint)
	}
	diagsJSON, err := marshalDiagnostics(rec.Diagnostics)
	if err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	missingJSON, err := marshalMissing(rec.Missing)
	if err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	unreachJSON, err := marshalUnreachable(rec.Unreachable)
	if err != nil {
		return fmt.Errorf("write plan: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans
		(key, construct, construct_fingerprint, options_fingerprint, graph_fingerprint,
		 plan_fingerprint, graph, plan, diagnostics, exhaustive, witness, missing, unreachable, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`,
		rec.Key,
		rec.Construct,
		rec.ConstructFingerprint,
		rec.OptionsFingerprint,
		rec.GraphFingerprint,
		rec.PlanFingerprint,
		rec.Graph,
		rec.Plan,
		diagsJSON,
		boolToInt(rec.Exhaustive),
		rec.Witness,
		missingJSON,
		unreachJSON,
		rec.Seq,
	)
	if err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	s.log.Debug().Str("construct", rec.Construct).Str("key", short(rec.Key)).Msg("plan cached")
	return nil
}

// WriteRun appends a run record.
// Note: The plan referenced by PlanKey must exist (foreign key constraint).
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seq, construct, plan_key, cache_hit)
		VALUES (?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.Construct,
		run.PlanKey,
		boolToInt(run.CacheHit),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func short(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
