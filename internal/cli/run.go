package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/matchdag/internal/harness"
	"github.com/roach88/matchdag/internal/ir"
	"github.com/roach88/matchdag/internal/lower"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Construct string
	Inputs    []string // YAML or JSON values
	Guards    []string // "arm=bool"
}

// RunRecord is the outcome of one input.
type RunRecord struct {
	Input   string `json:"input"`
	Arm     int    `json:"arm"`
	Outcome string `json:"outcome"`
	Trace   []int  `json:"trace,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <specs>... --construct <name>",
		Short: "Execute a construct's plan on sample inputs",
		Long: `Execute the lowered plan of one construct on input values.

Inputs are YAML (or JSON) values using the tagged forms {float: "NaN"},
{char: "a"}, {tuple: [1, 2]}, {type: "Point", fields: {X: 1}} and
{type: "Color", value: 1}. Without --input, the construct's own inputs
are used. When-clauses are not evaluated: every guard passes unless set
with --guard.

Examples:
  matchdag run shapes.cue -c Quadrant --input '{type: Point, fields: {X: 1, Y: 2}}'
  matchdag run pairs.cue -c Pair --input '{tuple: [1, 2]}'
  matchdag run digits.cue -c Digits --input 500 --guard 4=false`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConstruct(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Construct, "construct", "c", "", "construct to run (required)")
	cmd.Flags().StringArrayVarP(&opts.Inputs, "input", "i", nil, "input value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Guards, "guard", nil, "guard value as arm=true|false (repeatable)")
	_ = cmd.MarkFlagRequired("construct")

	return cmd
}

func runConstruct(opts *RunOptions, args []string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	guards, err := parseGuards(opts.Guards)
	if err != nil {
		return inputFailure(formatter, err)
	}
	b, err := buildOne(cmd, formatter, opts.RootOptions, args, opts.Construct)
	if err != nil {
		return err
	}

	inputs := b.Construct.Inputs
	if len(opts.Inputs) > 0 {
		inputs = nil
		for _, raw := range opts.Inputs {
			v, err := ParseInput(raw)
			if err != nil {
				return inputFailure(formatter, err)
			}
			inputs = append(inputs, v)
		}
	}
	if len(inputs) == 0 {
		return inputFailure(formatter, fmt.Errorf("construct %s declares no inputs; pass --input", b.Construct.Name))
	}

	records := make([]RunRecord, 0, len(inputs))
	for _, v := range inputs {
		out, err := b.engine.Run(b.doc.Universe, b.Result, v, guards)
		var mf *lower.MatchFailure
		if err != nil && !errors.As(err, &mf) {
			return WrapExitError(ExitFailure, fmt.Sprintf("executing %s", ir.Format(v)), err)
		}
		records = append(records, RunRecord{
			Input:   ir.Format(v),
			Arm:     out.Arm,
			Outcome: harness.DescribeOutcome(out, err),
			Trace:   out.Trace,
		})
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), records, "", "")
	}
	w := cmd.OutOrStdout()
	for _, r := range records {
		fmt.Fprintf(w, "%s -> %s\n", r.Input, r.Outcome)
		formatter.VerboseLog("  trace %v", r.Trace)
	}
	return nil
}

// ParseInput decodes a YAML or JSON value into a runtime value.
func ParseInput(raw string) (ir.IRValue, error) {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("input %q: %w", raw, err)
	}
	out, err := ir.ConvertToIRValue(v)
	if err != nil {
		return nil, fmt.Errorf("input %q: %w", raw, err)
	}
	return out, nil
}

func parseGuards(specs []string) (map[int]bool, error) {
	guards := map[int]bool{}
	for _, s := range specs {
		arm, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("guard %q: want arm=true|false", s)
		}
		i, err := strconv.Atoi(strings.TrimSpace(arm))
		if err != nil || i < 0 {
			return nil, fmt.Errorf("guard %q: arm must be a non-negative integer", s)
		}
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("guard %q: value must be true or false", s)
		}
		guards[i] = b
	}
	return guards, nil
}

func inputFailure(f *OutputFormatter, err error) error {
	if outErr := f.Error(ErrCodeBadInput, err.Error(), nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, "bad input", err)
}
