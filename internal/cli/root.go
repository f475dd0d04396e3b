package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	// Verbose is the log verbosity: 0 logs the run summary, -v every
	// generation, -vv every failed evaluation.
	Verbose int
	Format  string
}

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var ValidFormats = []string{FormatText, FormatJSON, FormatYAML}

// NewRootCommand creates the root command of the cpso CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cpso",
		Short: "Constrained particle swarm optimization",
		Long: `cpso minimizes box-bounded objective functions subject to inequality
constraints with a particle swarm.

Run one of the built-in benchmarks with "cpso run <benchmark>" and list
them with "cpso bench list".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().CountVarP(&opts.Verbose, "verbose", "v", "log verbosity (repeat for more)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json|yaml)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewBenchCommand(opts))

	return cmd
}
