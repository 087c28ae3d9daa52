package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/matchdag/internal/compiler"
	"github.com/roach88/matchdag/internal/engine"
)

// LowerOptions holds flags for the lower command.
type LowerOptions struct {
	*RootOptions
	Construct string
}

// LowerResult is the lowered plan of one construct.
type LowerResult struct {
	Construct   string   `json:"construct"`
	Fingerprint string   `json:"fingerprint"`
	Dispatches  int      `json:"dispatches"`
	Failure     string   `json:"failure"`
	Plan        []string `json:"plan"`
}

// NewLowerCommand creates the lower command.
func NewLowerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LowerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lower <specs>... --construct <name>",
		Short: "Print the executable plan of a construct",
		Long: `Lower the decision graph of one construct into a linear plan.

Equality chains on integral or string temps of at least
lower.dispatch_threshold cases become dispatch operations; all other tests
keep their order. The no-match terminal of a switch expression becomes the
failure chosen from lower.failure_types.

Examples:
  matchdag lower shapes.cue --construct Quadrant
  matchdag lower ./specs -c Digits --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Construct, "construct", "c", "", "construct to lower (required)")
	_ = cmd.MarkFlagRequired("construct")

	return cmd
}

func runLower(opts *LowerOptions, args []string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	b, err := buildOne(cmd, formatter, opts.RootOptions, args, opts.Construct)
	if err != nil {
		return err
	}
	plan := b.Plan

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), LowerResult{
			Construct:   b.Construct.Name,
			Fingerprint: b.PlanFingerprint,
			Dispatches:  plan.Dispatches(),
			Failure:     plan.Failure.String(),
			Plan:        strings.Split(strings.TrimRight(b.PlanListing, "\n"), "\n"),
		}, "", "")
	}
	w := cmd.OutOrStdout()
	fmt.Fprint(w, b.PlanListing)
	formatter.VerboseLog("%d dispatch operation(s), fingerprint %s", plan.Dispatches(), b.PlanFingerprint)
	return nil
}

// built is one construct built outside the plan cache, since dump, lower
// and run need the graph itself.
type built struct {
	*engine.Result
	engine *engine.Engine
	doc    *compiler.Document
}

// buildOne loads the document and builds the named construct.
func buildOne(cmd *cobra.Command, f *OutputFormatter, opts *RootOptions, args []string, name string) (*built, error) {
	loaded, err := LoadDocument(args...)
	if err != nil {
		return nil, loadFailure(f, err)
	}
	constructs, err := selectConstructs(loaded.Document, name)
	if err != nil {
		return nil, loadFailure(f, err)
	}
	cfg, err := opts.LoadConfig()
	if err != nil {
		return nil, err
	}

	eng := engine.New(engine.WithConfig(cfg))
	res, err := eng.Build(loaded.Document.Universe, constructs[0])
	if err != nil {
		var invalid *engine.InvalidConstructError
		if errors.As(err, &invalid) {
			code := ErrCodeGeneric
			if len(invalid.Errors) > 0 {
				code = invalid.Errors[0].Code
			}
			if outErr := f.Error(code, invalid.Error(), invalid.Errors); outErr != nil {
				return nil, outErr
			}
			return nil, WrapExitError(ExitFailure, "invalid construct", err)
		}
		return nil, WrapExitError(ExitCommandError, "build failed", err)
	}
	return &built{Result: res, engine: eng, doc: loaded.Document}, nil
}
