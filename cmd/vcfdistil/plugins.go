package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inodb/vcfdistil/internal/plugin"
)

func (a *app) newPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List built-in filters",
		Long: `List the filters that can be selected with --filter by name.
Any other value of --filter is treated as a JavaScript file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, b := range plugin.Builtins() {
				fmt.Fprintf(tw, "%s\t%s\n", b.Name(), b.Description())
			}
			return tw.Flush()
		},
	}
}
