package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/matchdag/internal/compiler"
	"github.com/roach88/matchdag/internal/decision"
	"github.com/roach88/matchdag/internal/diag"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Constructs int                        `json:"constructs"`
	Errors     []compiler.ValidationError `json:"errors,omitempty"`
	Structural diag.List                  `json:"structural,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs>...",
		Short: "Check documents without analyzing them",
		Long: `Validate CUE documents without running the analysis.

Checks the document schema, type declarations and pattern syntax, the
document rules (E1xx: is-expression arity, guards, sample inputs) and the
structural pattern rules (PM00xx: captures under or/not, slice placement,
deconstruction). Faster than analyze for development feedback.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, err := LoadDocument(args...)
	if err != nil {
		return loadFailure(formatter, err)
	}
	formatter.VerboseLog("Found %d CUE file(s)", loaded.FileCount)

	doc := loaded.Document
	result := ValidationResult{Constructs: len(doc.Constructs)}
	result.Errors = compiler.Validate(doc)
	for _, c := range doc.Constructs {
		formatter.VerboseLog("Validating construct: %s", c.Name)
		// Structural problems are found while the graph is built; the
		// analysis is skipped.
		g := decision.Build(doc.Universe, c.Input, c.Arms)
		result.Structural = append(result.Structural, g.Problems...)
	}
	result.Valid = len(result.Errors) == 0 && !result.Structural.HasErrors()

	if opts.Format == "json" {
		failure := ""
		if !result.Valid {
			failure = "validation failed"
		}
		if err := writeJSON(cmd.OutOrStdout(), result, "E100", failure); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, result)
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func outputValidateText(f *OutputFormatter, result ValidationResult) {
	w := f.Writer
	if result.Valid {
		fmt.Fprintf(w, "✓ %d construct(s) valid\n", result.Constructs)
		return
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "✗ %s\n", e.Error())
	}
	if len(result.Structural) > 0 {
		fmt.Fprintln(w, "Structural errors:")
		for _, d := range result.Structural {
			f.Diagnostic(d)
		}
	}
}
