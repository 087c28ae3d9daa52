package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/matchdag/internal/decision"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Construct string
	Tree      bool // render as a tree instead of numbered nodes
}

// DumpResult is the decision graph of one construct.
type DumpResult struct {
	Construct   string         `json:"construct"`
	Fingerprint string         `json:"fingerprint"`
	Stats       decision.Stats `json:"stats"`
	Graph       []string       `json:"graph"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <specs>... --construct <name>",
		Short: "Print the decision graph of a construct",
		Long: `Print the decision graph built for one construct.

Nodes are numbered in canonical order. Each test or evaluation names the
temp it reads; shared nodes appear once and are reached from several arms.
With --tree the graph is printed as a tree; a node reached a second time
is shown as a reference "-> [n]".

Examples:
  matchdag dump shapes.cue --construct Quadrant
  matchdag dump ./specs -c Quadrant --tree`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Construct, "construct", "c", "", "construct to dump (required)")
	cmd.Flags().BoolVar(&opts.Tree, "tree", false, "render the graph as a tree")
	_ = cmd.MarkFlagRequired("construct")

	return cmd
}

func runDump(opts *DumpOptions, args []string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	b, err := buildOne(cmd, formatter, opts.RootOptions, args, opts.Construct)
	if err != nil {
		return err
	}

	text := b.GraphDump
	if opts.Tree {
		text = b.Graph.Tree()
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), DumpResult{
			Construct:   b.Construct.Name,
			Fingerprint: b.GraphFingerprint,
			Stats:       b.Graph.Stats(),
			Graph:       strings.Split(strings.TrimRight(text, "\n"), "\n"),
		}, "", "")
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}
