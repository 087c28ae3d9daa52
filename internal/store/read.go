package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReadPlan returns the plan cached under key. found is false on a miss.
func (s *Store) ReadPlan(ctx context.Context, key string) (rec PlanRecord, found bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT key, construct, construct_fingerprint, options_fingerprint, graph_fingerprint,
		       plan_fingerprint, graph, plan, diagnostics, exhaustive, witness, missing, unreachable, seq
		FROM plans
		WHERE key = ?
	`, key)
	rec, err = scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		s.log.Debug().Str("key", short(key)).Msg("plan cache miss")
		return PlanRecord{}, false, nil
	}
	if err != nil {
		return PlanRecord{}, false, fmt.Errorf("read plan %s: %w", short(key), err)
	}
	s.log.Debug().Str("construct", rec.Construct).Str("key", short(key)).Msg("plan cache hit")
	return rec, true, nil
}

// ReadPlansForConstruct returns every plan cached for a construct
// fingerprint, one per option set, in write order.
func (s *Store) ReadPlansForConstruct(ctx context.Context, constructFingerprint string) ([]PlanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, construct, construct_fingerprint, options_fingerprint, graph_fingerprint,
		       plan_fingerprint, graph, plan, diagnostics, exhaustive, witness, missing, unreachable, seq
		FROM plans
		WHERE construct_fingerprint = ?
		ORDER BY seq ASC, key COLLATE BINARY ASC
	`, constructFingerprint)
	if err != nil {
		return nil, fmt.Errorf("read plans: %w", err)
	}
	defer rows.Close()

	var out []PlanRecord
	for rows.Next() {
		rec, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("read plans: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read plans: %w", err)
	}
	return out, nil
}

// ReadRuns returns every run in seq order.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, construct, plan_key, cache_hit
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var hit int
		if err := rows.Scan(&run.ID, &run.Seq, &run.Construct, &run.PlanKey, &hit); err != nil {
			return nil, fmt.Errorf("read runs: %w", err)
		}
		run.CacheHit = hit != 0
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	return out, nil
}

// Stats summarizes the cache.
type Stats struct {
	Plans  int
	Runs   int
	Hits   int
	MaxSeq int64
}

// Stats counts cached plans and logged runs.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plans`).Scan(&st.Plans); err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(cache_hit), 0), COALESCE(MAX(seq), 0) FROM runs
	`).Scan(&st.Runs, &st.Hits, &st.MaxSeq)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(sc scanner) (PlanRecord, error) {
	var (
		rec         PlanRecord
		diagsJSON   string
		missingJSON string
		unreachJSON string
		exhaustive  int
	)
	err := sc.Scan(
		&rec.Key,
		&rec.Construct,
		&rec.ConstructFingerprint,
		&rec.OptionsFingerprint,
		&rec.GraphFingerprint,
		&rec.PlanFingerprint,
		&rec.Graph,
		&rec.Plan,
		&diagsJSON,
		&exhaustive,
		&rec.Witness,
		&missingJSON,
		&unreachJSON,
		&rec.Seq,
	)
	if err != nil {
		return PlanRecord{}, err
	}
	rec.Exhaustive = exhaustive != 0
	if rec.Diagnostics, err = unmarshalDiagnostics(diagsJSON); err != nil {
		return PlanRecord{}, err
	}
	if rec.Missing, err = unmarshalMissing(missingJSON); err != nil {
		return PlanRecord{}, err
	}
	if rec.Unreachable, err = unmarshalUnreachable(unreachJSON); err != nil {
		return PlanRecord{}, err
	}
	return rec, nil
}
