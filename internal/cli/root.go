package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/matchdag/internal/config"
	"github.com/roach88/matchdag/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbosity  int
	Format     string // "json" | "text"
	ConfigPath string
	StorePath  string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the matchdag CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "matchdag",
		Short: "matchdag - structural pattern decision engine",
		Long: `Compile is-expressions and switches over structural patterns into a
shared decision graph, report unreachable arms, redundant sub-patterns and
missing cases, and lower the graph into an executable plan.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupLogger(opts.Verbosity)
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "configuration file (TOML)")
	cmd.PersistentFlags().StringVar(&opts.StorePath, "store", "", "plan cache database (overrides store.path)")

	// Add subcommands
	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewLowerCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// LoadConfig loads the configuration named by --config, applying --store.
func (o *RootOptions) LoadConfig() (*config.Config, error) {
	var overrides map[string]any
	if o.StorePath != "" {
		overrides = map[string]any{"store.path": o.StorePath}
	}
	cfg, err := config.Load(o.ConfigPath, overrides)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
