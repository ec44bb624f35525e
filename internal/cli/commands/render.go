package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/lab1702/duckmcp/internal/tools"
)

// renderResult writes a query result in the requested format.
func renderResult(w io.Writer, res *tools.Result, format string) error {
	switch format {
	case "json":
		return renderJSON(w, res)
	case "csv":
		return renderCSV(w, res)
	case "md", "markdown":
		return renderMarkdown(w, res)
	default:
		return renderTable(w, res)
	}
}

func renderTable(w io.Writer, res *tools.Result) error {
	if res.RowCount == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, row := range res.Rows {
		cells := make(table.Row, len(res.Columns))
		for i := range res.Columns {
			if i < len(row) {
				cells[i] = formatValue(row[i])
			}
		}
		t.AppendRow(cells)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows in %d ms)\n", res.RowCount, res.Elapsed.Milliseconds())
	return nil
}

func renderJSON(w io.Writer, res *tools.Result) error {
	records := make([]map[string]any, 0, res.RowCount)
	for _, row := range res.Rows {
		record := make(map[string]any, len(res.Columns))
		for i, col := range res.Columns {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func renderCSV(w io.Writer, res *tools.Result) error {
	_, _ = fmt.Fprintln(w, strings.Join(res.Columns, ","))
	for _, row := range res.Rows {
		values := make([]string, len(res.Columns))
		for i := range res.Columns {
			if i < len(row) {
				values[i] = escapeCSV(formatValue(row[i]))
			}
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, res *tools.Result) error {
	if res.RowCount == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(res.Columns, " | "))
	separators := make([]string, len(res.Columns))
	for i := range separators {
		separators[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(separators, " | "))

	for _, row := range res.Rows {
		values := make([]string, len(res.Columns))
		for i := range res.Columns {
			if i < len(row) {
				values[i] = strings.ReplaceAll(formatValue(row[i]), "|", "\\|")
			}
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

// formatValue renders a cell for display.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// escapeCSV quotes a value when it contains commas, quotes or newlines.
func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
