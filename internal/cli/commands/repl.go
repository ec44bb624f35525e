package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/lab1702/duckmcp/internal/database"
	"github.com/lab1702/duckmcp/internal/tools"
)

// runInspectREPL drives the interactive session: SQL statements end with
// a semicolon, dot-commands act immediately.
func runInspectREPL(cmd *cobra.Command, mgr *database.Manager, query *tools.Query, meta *tools.Metadata, opts *InspectOptions) error {
	ctx := cmd.Context()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "duckmcp> ",
		AutoComplete:    newCompleter(cmd, meta),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	cfg := mgr.GetConfig()
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "duckmcp REPL (target: %s)\n", cfg.Path)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	var buffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buffer.Reset()
			rl.SetPrompt("duckmcp> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") && buffer.Len() == 0 {
			if line == ".quit" || line == ".exit" {
				break
			}
			handleDotCommand(cmd, meta, line)
			continue
		}

		// Accumulate multi-line SQL until a terminating semicolon.
		buffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buffer.WriteString(" ")
			rl.SetPrompt("    ...> ")
			continue
		}
		rl.SetPrompt("duckmcp> ")

		sqlText := strings.TrimSuffix(buffer.String(), ";")
		buffer.Reset()

		result, err := query.Execute(ctx, sqlText)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}
		if err := renderResult(cmd.OutOrStdout(), result, opts.Format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// handleDotCommand executes REPL meta-commands.
func handleDotCommand(cmd *cobra.Command, meta *tools.Metadata, line string) {
	ctx := cmd.Context()
	fields := strings.Fields(line)

	switch fields[0] {
	case ".help":
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), `Commands:
  .tables            List tables and views
  .schema <table>    Show the column schema of a table
  .info              Show engine version and connection mode
  .quit              Exit the REPL

Any other input is executed as SQL (terminate with ';').`)

	case ".tables":
		infos, err := meta.Tables(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		printTableList(cmd, infos)

	case ".schema":
		if len(fields) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .schema <table>")
			return
		}
		schema, err := meta.TableSchema(ctx, fields[1])
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		for _, col := range schema.Columns {
			nullable := "NOT NULL"
			if col.Nullable {
				nullable = "NULL"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %-25s %-15s %s\n", col.Name, col.Type, nullable)
		}

	case ".info":
		info, err := meta.DatabaseInfo(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  engine:   %s\n", info.Version)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  tables:   %d\n", info.TotalTables)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  readonly: %t\n", info.ReadOnly)

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (try .help)\n", fields[0])
	}
}

// newCompleter offers dot-commands and current table names.
func newCompleter(cmd *cobra.Command, meta *tools.Metadata) readline.AutoCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".info"),
		readline.PcItem(".quit"),
	}

	schemaItems := []readline.PrefixCompleterInterface{}
	if infos, err := meta.Tables(cmd.Context()); err == nil {
		for _, info := range infos {
			schemaItems = append(schemaItems, readline.PcItem(info.Name))
		}
	}
	items = append(items, readline.PcItem(".schema", schemaItems...))

	return readline.NewPrefixCompleter(items...)
}
