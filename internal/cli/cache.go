package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/matchdag/internal/store"
)

// CacheOptions holds flags for the cache command.
type CacheOptions struct {
	*RootOptions
	Construct string // list plans of one construct only
}

// CachedPlan is one plan cached for a construct under an option set.
type CachedPlan struct {
	Key                string `json:"key"`
	OptionsFingerprint string `json:"options_fingerprint"`
	PlanFingerprint    string `json:"plan_fingerprint"`
	Exhaustive         bool   `json:"exhaustive"`
	Unreachable        []int  `json:"unreachable,omitempty"`
	Diagnostics        int    `json:"diagnostics"`
	Seq                int64  `json:"seq"`
	// Current marks the plan built with the configured options.
	Current bool `json:"current"`
}

// CachedConstruct lists the plans cached for one construct.
type CachedConstruct struct {
	Construct   string       `json:"construct"`
	Fingerprint string       `json:"fingerprint"`
	Plans       []CachedPlan `json:"plans"`
}

// CacheRun is one logged processing of a construct.
type CacheRun struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	Construct string `json:"construct"`
	PlanKey   string `json:"plan_key"`
	CacheHit  bool   `json:"cache_hit"`
}

// CacheResult describes the plan cache.
type CacheResult struct {
	Path       string            `json:"path"`
	Plans      int               `json:"plans"`
	Runs       int               `json:"runs"`
	Hits       int               `json:"hits"`
	RunLog     []CacheRun        `json:"run_log"`
	Constructs []CachedConstruct `json:"constructs,omitempty"`
}

// NewCacheCommand creates the cache command.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CacheOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cache [specs]...",
		Short: "Show the plan cache",
		Long: `Show what the plan cache holds: plan and run counts, and the run log in
order. Given specs, also list the plans cached for each construct, one per
option set; the plan built with the configured options is marked current.

The cache is named by --store or store.path.

Exit codes:
  0 - Success
  2 - Command error (no cache configured, unreadable cache or document)

Examples:
  matchdag cache --store plans.db
  matchdag cache ./specs --store plans.db -c Quadrant --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCache(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Construct, "construct", "c", "", "list plans of this construct only")

	return cmd
}

func runCache(opts *CacheOptions, args []string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()

	sess, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()
	if sess.store == nil {
		msg := "no plan cache configured: set --store or store.path"
		if outErr := formatter.Error(ErrCodeStore, msg, nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitCommandError, msg)
	}

	result := CacheResult{Path: sess.cfg.Store.Path, RunLog: []CacheRun{}}
	stats, err := sess.store.Stats(ctx)
	if err != nil {
		return cacheFailure(formatter, err)
	}
	result.Plans, result.Runs, result.Hits = stats.Plans, stats.Runs, stats.Hits

	runs, err := sess.store.ReadRuns(ctx)
	if err != nil {
		return cacheFailure(formatter, err)
	}
	for _, r := range runs {
		result.RunLog = append(result.RunLog, CacheRun(r))
	}

	if len(args) > 0 {
		loaded, err := LoadDocument(args...)
		if err != nil {
			return loadFailure(formatter, err)
		}
		constructs, err := selectConstructs(loaded.Document, opts.Construct)
		if err != nil {
			return loadFailure(formatter, err)
		}
		current := sess.engine.OptionsFingerprint()
		for _, c := range constructs {
			cc := CachedConstruct{Construct: c.Name, Fingerprint: c.Fingerprint(loaded.Document.Universe), Plans: []CachedPlan{}}
			recs, err := sess.store.ReadPlansForConstruct(ctx, cc.Fingerprint)
			if err != nil {
				return cacheFailure(formatter, err)
			}
			for _, rec := range recs {
				cc.Plans = append(cc.Plans, newCachedPlan(rec, current))
			}
			result.Constructs = append(result.Constructs, cc)
		}
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result, "", "")
	}
	outputCacheText(formatter, result)
	return nil
}

func newCachedPlan(rec store.PlanRecord, currentOptions string) CachedPlan {
	return CachedPlan{
		Key:                rec.Key,
		OptionsFingerprint: rec.OptionsFingerprint,
		PlanFingerprint:    rec.PlanFingerprint,
		Exhaustive:         rec.Exhaustive,
		Unreachable:        rec.Unreachable,
		Diagnostics:        len(rec.Diagnostics),
		Seq:                rec.Seq,
		Current:            rec.OptionsFingerprint == currentOptions,
	}
}

func cacheFailure(f *OutputFormatter, err error) error {
	if outErr := f.Error(ErrCodeStore, err.Error(), nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, "failed to read plan cache", err)
}

func outputCacheText(f *OutputFormatter, result CacheResult) {
	w := f.Writer
	fmt.Fprintf(w, "%s: %d plan(s), %d run(s), %d cache hit(s)\n", result.Path, result.Plans, result.Runs, result.Hits)
	for _, r := range result.RunLog {
		hit := "miss"
		if r.CacheHit {
			hit = "hit"
		}
		fmt.Fprintf(w, "  %s seq %d %s %s plan %s\n", r.ID, r.Seq, r.Construct, hit, shortKey(r.PlanKey))
	}
	for _, c := range result.Constructs {
		fmt.Fprintf(w, "%s: %d cached plan(s)\n", c.Construct, len(c.Plans))
		for _, p := range c.Plans {
			current := ""
			if p.Current {
				current = " (current)"
			}
			exhaustive := "not exhaustive"
			if p.Exhaustive {
				exhaustive = "exhaustive"
			}
			fmt.Fprintf(w, "  plan %s options %s seq %d: %s, %d diagnostic(s)%s\n",
				shortKey(p.Key), shortKey(p.OptionsFingerprint), p.Seq, exhaustive, p.Diagnostics, current)
		}
	}
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
