// Package commands implements the duckmcp subcommands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "duckmcp %s (commit %s)\n", version, commit)
			fmt.Fprintln(cmd.OutOrStdout(), "MCP server for exploring local data with DuckDB")
		},
	}
}
