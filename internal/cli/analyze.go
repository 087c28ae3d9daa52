package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/matchdag/internal/analysis"
	"github.com/roach88/matchdag/internal/compiler"
	"github.com/roach88/matchdag/internal/diag"
	"github.com/roach88/matchdag/internal/engine"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Construct string // analyze one construct only
	Strict    bool   // warnings fail too
}

// ConstructReport is the analysis of one construct.
type ConstructReport struct {
	Construct   string    `json:"construct"`
	Kind        string    `json:"kind"`
	Exhaustive  bool      `json:"exhaustive"`
	Witness     string    `json:"witness,omitempty"`
	Missing     []string  `json:"missing,omitempty"`
	Unreachable []int     `json:"unreachable,omitempty"`
	Diagnostics diag.List `json:"diagnostics"`
	Key         string    `json:"key"`
	Cached      bool      `json:"cached"`
	RunID       string    `json:"run_id,omitempty"`
}

// AnalyzeResult holds every report and every rejected construct.
type AnalyzeResult struct {
	Constructs []ConstructReport          `json:"constructs"`
	Invalid    []compiler.ValidationError `json:"invalid,omitempty"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <specs>...",
		Short: "Report unreachable arms, redundant patterns and missing cases",
		Long: `Build the decision graph of every construct and report its diagnostics.

Arguments are CUE files or directories; all of them are unified into one
document. When a plan cache is configured (--store or store.path), results
are reused for unchanged constructs.

Exit codes:
  0 - No error diagnostics
  1 - Error diagnostics or invalid constructs (warnings too with --strict)
  2 - Command error (unreadable document, etc.)

Examples:
  matchdag analyze ./specs
  matchdag analyze shapes.cue --construct Quadrant
  matchdag analyze ./specs --store plans.db --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Construct, "construct", "c", "", "analyze only this construct")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on warnings too")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, args []string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, err := LoadDocument(args...)
	if err != nil {
		return loadFailure(formatter, err)
	}
	formatter.VerboseLog("Loaded %d CUE file(s)", loaded.FileCount)

	constructs, err := selectConstructs(loaded.Document, opts.Construct)
	if err != nil {
		return loadFailure(formatter, err)
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	result := AnalyzeResult{Constructs: []ConstructReport{}}
	failing := 0
	for _, c := range constructs {
		formatter.VerboseLog("Analyzing construct: %s", c.Name)
		res, err := sess.engine.Process(ctx, loaded.Document.Universe, c)
		if err != nil {
			var invalid *engine.InvalidConstructError
			if errors.As(err, &invalid) {
				result.Invalid = append(result.Invalid, invalid.Errors...)
				failing++
				continue
			}
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to analyze %s", c.Name), err)
		}
		report := newReport(res)
		if fails(report.Diagnostics, opts.Strict) {
			failing++
		}
		result.Constructs = append(result.Constructs, report)
	}

	failure := ""
	if failing > 0 {
		failure = fmt.Sprintf("%d construct(s) failed analysis", failing)
	}
	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), result, ErrCodeGeneric, failure); err != nil {
			return err
		}
	} else {
		outputAnalyzeText(formatter, result)
	}
	if failure != "" {
		return NewExitError(ExitFailure, failure)
	}
	return nil
}

func newReport(res *engine.Result) ConstructReport {
	diags := res.Diagnostics()
	if diags == nil {
		diags = diag.List{}
	}
	return ConstructReport{
		Construct:   res.Construct.Name,
		Kind:        res.Construct.Kind.String(),
		Exhaustive:  res.Analysis.Exhaustive,
		Witness:     res.Analysis.Witness,
		Missing:     res.Analysis.Missing,
		Unreachable: res.Analysis.Unreachable,
		Diagnostics: diags,
		Key:         res.Key,
		Cached:      res.Cached,
		RunID:       res.RunID,
	}
}

func fails(l diag.List, strict bool) bool {
	for _, d := range l {
		if d.Severity == diag.SeverityError || (strict && d.Severity == diag.SeverityWarning) {
			return true
		}
	}
	return false
}

func outputAnalyzeText(f *OutputFormatter, result AnalyzeResult) {
	w := f.Writer
	for _, r := range result.Constructs {
		status := ""
		switch {
		case r.Kind == analysis.IsExpression.String():
		case r.Exhaustive:
			status = ": exhaustive"
		case r.Witness != "":
			status = fmt.Sprintf(": not exhaustive, unmatched %s", r.Witness)
		default:
			status = ": not exhaustive"
		}
		cached := ""
		if r.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(w, "%s (%s)%s%s\n", r.Construct, r.Kind, status, cached)
		for _, d := range r.Diagnostics {
			f.Diagnostic(d)
		}
	}
	for _, e := range result.Invalid {
		fmt.Fprintf(w, "✗ %s\n", e.Error())
	}
}
