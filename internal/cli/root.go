// Package cli provides the command-line interface for duckmcp.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lab1702/duckmcp/internal/cli/commands"
	"github.com/lab1702/duckmcp/internal/cli/config"
	"github.com/lab1702/duckmcp/internal/database"
	"github.com/lab1702/duckmcp/internal/loader"
	"github.com/lab1702/duckmcp/internal/server"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

var cfgFile string

// NewRootCmd creates the root command. Invoked with a path argument it
// serves the MCP tool catalog over stdio for that target.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "duckmcp <path>",
		Short: "MCP server for exploring local data with DuckDB",
		Long: `duckmcp exposes a local DuckDB engine over the Model Context Protocol,
giving an AI assistant read-only access to database files and directories
of CSV, Parquet and JSON data (including hive-partitioned layouts).

The path argument is a database file (.db, .duckdb, .sqlite) or a data
directory. The server speaks MCP on stdin/stdout; logs go to stderr.`,
		Example: `  # Serve a DuckDB database file
  duckmcp analytics.duckdb

  # Serve a directory of CSV/Parquet/JSON files
  duckmcp ./data

  # Explore a target interactively without an MCP client
  duckmcp inspect ./data`,
		Version:       Version,
		Args:          cobra.ExactArgs(1),
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Built with Go and DuckDB
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./duckmcp.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().Int("row-limit", 0, "Default maximum rows displayed by execute_query")

	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit))

	return rootCmd
}

// runServe opens the target, registers directory views and serves MCP
// over stdio until interrupted.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	dbCfg, err := database.DetectPathType(args[0])
	if err != nil {
		log.Error("invalid target", "path", args[0], "error", err)
		return err
	}

	params, err := database.ParseParams(cfg.DuckDB)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr := database.NewManager(dbCfg, params, log)
	if err := mgr.Connect(ctx); err != nil {
		log.Error("connection failed", "path", dbCfg.Path, "error", err)
		return err
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Warn("error closing connection", "error", err)
		}
	}()

	if err := loader.New(mgr, log).Load(ctx); err != nil {
		log.Error("failed to load data directory", "error", err)
		return err
	}

	mode := "file"
	if dbCfg.IsDirectory {
		mode = "directory"
	}
	log.Info("duckmcp server started",
		"version", Version,
		"path", dbCfg.Path,
		"mode", mode,
		"readonly", dbCfg.ReadOnly)

	srv := server.New(mgr, log, Version, cfg.RowLimit)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("duckmcp server stopped")
	return nil
}
