package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lab1702/duckmcp/internal/database"
)

// DefaultRowLimit caps how many rows FormatResult renders when the caller
// does not ask for a specific limit.
const DefaultRowLimit = 100

// minColumnWidth keeps narrow columns readable in the text rendering.
const minColumnWidth = 3

// Result is the columnar envelope for one query execution.
type Result struct {
	Columns  []string      `json:"columns"`
	Rows     [][]any       `json:"rows"`
	RowCount int           `json:"rowCount"`
	Elapsed  time.Duration `json:"-"`
}

// Query executes read-only SQL against the single engine session.
type Query struct {
	mgr *database.Manager
	log *slog.Logger
}

// NewQuery creates the query tool.
func NewQuery(mgr *database.Manager, log *slog.Logger) *Query {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Query{mgr: mgr, log: log}
}

// Execute runs arbitrary SQL and measures wall-clock latency. Write
// statements are rejected by the engine's own read-only enforcement, not
// inspected here. A query producing zero rows returns empty columns and
// rows; non-empty results carry the declared column order from the
// driver's result descriptor.
func (q *Query) Execute(ctx context.Context, sqlText string) (*Result, error) {
	queryID := uuid.NewString()
	q.log.Debug("executing query", "query_id", queryID)

	start := time.Now()
	rows, err := q.mgr.Query(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query failed after %s: %w",
			time.Since(start).Round(time.Millisecond), err)
	}
	defer func() { _ = rows.Close() }()

	cols, data, err := collectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("query failed after %s: %w",
			time.Since(start).Round(time.Millisecond), err)
	}
	elapsed := time.Since(start)

	q.log.Debug("query complete",
		"query_id", queryID,
		"rows", len(data),
		"elapsed", elapsed.Round(time.Millisecond))

	if len(data) == 0 {
		return &Result{Columns: []string{}, Rows: [][]any{}, Elapsed: elapsed}, nil
	}
	return &Result{Columns: cols, Rows: data, RowCount: len(data), Elapsed: elapsed}, nil
}

// Explain runs the statement under the engine's explain syntax and
// returns the plan as an ordinary result.
func (q *Query) Explain(ctx context.Context, sqlText string) (*Result, error) {
	return q.Execute(ctx, "EXPLAIN "+sqlText)
}

// Validation reports whether a statement would plan successfully.
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Validate checks a statement by explaining it. It never returns an
// error: planner failures come back in the Validation value.
func (q *Query) Validate(ctx context.Context, sqlText string) Validation {
	if _, err := q.Explain(ctx, sqlText); err != nil {
		return Validation{Valid: false, Error: err.Error()}
	}
	return Validation{Valid: true}
}

// FormatResult renders a left-justified, pipe-delimited fixed-width text
// table. Column width is the widest of header, cells and minColumnWidth.
// At most limit rows are shown; a "... and N more rows" footer marks
// truncation, and a trailing line reports row count and timing.
func FormatResult(res *Result, limit int) string {
	if limit <= 0 {
		limit = DefaultRowLimit
	}

	var b strings.Builder
	if len(res.Columns) == 0 {
		fmt.Fprintf(&b, "0 rows (%d ms)", res.Elapsed.Milliseconds())
		return b.String()
	}

	shown := res.Rows
	if len(shown) > limit {
		shown = shown[:limit]
	}

	// Pre-render cells so width measurement matches the output.
	rendered := make([][]string, len(shown))
	widths := make([]int, len(res.Columns))
	for i, col := range res.Columns {
		widths[i] = max(utf8.RuneCountInString(col), minColumnWidth)
	}
	for r, row := range shown {
		cells := make([]string, len(res.Columns))
		for c := range res.Columns {
			var cell string
			if c < len(row) {
				cell = formatCell(row[c])
			}
			cells[c] = cell
			if w := utf8.RuneCountInString(cell); w > widths[c] {
				widths[c] = w
			}
		}
		rendered[r] = cells
	}

	writeRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = cell + strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, " | "), " "))
		b.WriteByte('\n')
	}

	writeRow(res.Columns)
	separators := make([]string, len(res.Columns))
	for i := range separators {
		separators[i] = strings.Repeat("-", widths[i])
	}
	writeRow(separators)
	for _, cells := range rendered {
		writeRow(cells)
	}

	if res.RowCount > limit {
		fmt.Fprintf(&b, "... and %d more rows\n", res.RowCount-limit)
	}
	fmt.Fprintf(&b, "\n%d rows (%d ms)", res.RowCount, res.Elapsed.Milliseconds())
	return b.String()
}

// formatCell renders one value for the text table.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
