package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rwcarlsen/cpso/bench"
)

// NewBenchCommand creates the bench command group.
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Inspect the built-in benchmark problems",
	}
	cmd.AddCommand(newBenchListCommand(rootOpts))
	return cmd
}

type benchEntry struct {
	Name string `json:"name" yaml:"name"`
	Dims int    `json:"dims" yaml:"dims"`
	Kind string `json:"kind" yaml:"kind"`
}

func newBenchListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List the benchmark problems accepted by run",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []benchEntry
			for _, name := range bench.Names() {
				fn, _ := bench.Lookup(name)
				entries = append(entries, benchEntry{Name: name, Dims: bench.Dims(fn), Kind: bench.Kind(fn)})
			}
			if err := writeBenchList(cmd.OutOrStdout(), rootOpts.Format, entries); err != nil {
				return WrapExitError(ExitCommandError, "failed to write benchmark list", err)
			}
			return nil
		},
	}
}

func writeBenchList(w io.Writer, format string, entries []benchEntry) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatYAML:
		return encodeYAML(w, entries)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDIMS\tKIND")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Name, e.Dims, e.Kind)
	}
	return tw.Flush()
}
