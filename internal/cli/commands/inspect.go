package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lab1702/duckmcp/internal/cli/config"
	"github.com/lab1702/duckmcp/internal/database"
	"github.com/lab1702/duckmcp/internal/loader"
	"github.com/lab1702/duckmcp/internal/tools"
)

// InspectOptions holds options for the inspect command.
type InspectOptions struct {
	Format  string
	Verbose bool
}

// NewInspectCommand creates the inspect command: a human-facing way to
// query the same target the MCP server would expose, without a client.
func NewInspectCommand() *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <path> [SQL]",
		Short: "Query a database file or data directory directly",
		Long: `Open a target the way the MCP server would (read-only, with directory
views registered) and run SQL against it.

With a SQL argument, executes it and prints the result. Without one,
enters an interactive REPL.`,
		Example: `  # One-off query against a directory of CSV files
  duckmcp inspect ./data "SELECT * FROM data_csv LIMIT 5"

  # Interactive session against a DuckDB file
  duckmcp inspect analytics.duckdb

  # JSON output for scripting
  duckmcp inspect ./data "SELECT COUNT(*) FROM data_parquet" --format json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose loader output")

	return cmd
}

// inspectLogger keeps inspect output quiet unless asked: only loader
// warnings surface by default.
func inspectLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:   level,
		NoColor: !term.IsTerminal(int(os.Stderr.Fd())),
	}))
}

func runInspect(cmd *cobra.Command, args []string, opts *InspectOptions) error {
	ctx := cmd.Context()
	log := inspectLogger(opts.Verbose)

	cfg, err := config.Load("", nil)
	if err != nil {
		return err
	}

	dbCfg, err := database.DetectPathType(args[0])
	if err != nil {
		return err
	}
	params, err := database.ParseParams(cfg.DuckDB)
	if err != nil {
		return err
	}

	mgr := database.NewManager(dbCfg, params, log)
	if err := mgr.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	if err := loader.New(mgr, log).Load(ctx); err != nil {
		return err
	}

	query := tools.NewQuery(mgr, log)
	meta := tools.NewMetadata(mgr, log)

	if len(args) == 2 {
		result, err := query.Execute(ctx, args[1])
		if err != nil {
			return err
		}
		return renderResult(cmd.OutOrStdout(), result, opts.Format)
	}

	return runInspectREPL(cmd, mgr, query, meta, opts)
}

// printTableList renders the .tables output.
func printTableList(cmd *cobra.Command, infos []tools.TableInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no tables)")
		return
	}
	for _, info := range infos {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-30s [%s]\n", info.Schema+"."+info.Name, info.Type)
	}
}
