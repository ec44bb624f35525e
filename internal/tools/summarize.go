package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lab1702/duckmcp/internal/database"
)

// Summary holds the per-column statistics of one table column. Numeric
// fields are pointers: they stay nil when the column type or the engine
// does not support the statistic.
type Summary struct {
	Column      string  `json:"column_name"`
	Type        string  `json:"column_type,omitempty"`
	Count       int64   `json:"count"`
	NullPercent *string `json:"null_percentage,omitempty"`
	Unique      *int64  `json:"approx_unique,omitempty"`
	Min         *string `json:"min,omitempty"`
	Max         *string `json:"max,omitempty"`
	Avg         *string `json:"avg,omitempty"`
	Std         *string `json:"std,omitempty"`
	Q25         *string `json:"q25,omitempty"`
	Q50         *string `json:"q50,omitempty"`
	Q75         *string `json:"q75,omitempty"`
}

// Summarize produces statistical summaries via the engine's SUMMARIZE
// statement, with an ad-hoc aggregate path for engines without one.
type Summarize struct {
	mgr  *database.Manager
	meta *Metadata
	log  *slog.Logger
}

// NewSummarize creates the summarize tool.
func NewSummarize(mgr *database.Manager, meta *Metadata, log *slog.Logger) *Summarize {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Summarize{mgr: mgr, meta: meta, log: log}
}

// Table summarizes every column of a table. DuckDB targets use the
// built-in SUMMARIZE statement; SQLite targets fall back to per-column
// aggregates.
func (s *Summarize) Table(ctx context.Context, table string) ([]Summary, error) {
	if !s.mgr.Dialect().NativeSummarize {
		return s.tableFallback(ctx, table)
	}

	rows, err := s.mgr.Query(ctx, "SUMMARIZE "+database.QuoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("failed to summarize table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols, data, err := collectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize table %s: %w", table, err)
	}

	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	at := func(row []any, name string) any {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return nil
		}
		return row[i]
	}

	summaries := make([]Summary, 0, len(data))
	for _, row := range data {
		sum := Summary{
			Column:      asString(at(row, "column_name")),
			Type:        asString(at(row, "column_type")),
			Count:       asInt64(at(row, "count")),
			NullPercent: asStringPtr(at(row, "null_percentage")),
			Unique:      asInt64Ptr(at(row, "approx_unique")),
			Min:         asStringPtr(at(row, "min")),
			Max:         asStringPtr(at(row, "max")),
			Avg:         asStringPtr(at(row, "avg")),
			Std:         asStringPtr(at(row, "std")),
			Q25:         asStringPtr(at(row, "q25")),
			Q50:         asStringPtr(at(row, "q50")),
			Q75:         asStringPtr(at(row, "q75")),
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// tableFallback composes Column over every column of the table.
func (s *Summarize) tableFallback(ctx context.Context, table string) ([]Summary, error) {
	schema, err := s.meta.TableSchema(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize table %s: %w", table, err)
	}
	summaries := make([]Summary, 0, len(schema.Columns))
	for _, col := range schema.Columns {
		sum, err := s.Column(ctx, table, col.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize table %s: %w", table, err)
		}
		summaries = append(summaries, *sum)
	}
	return summaries, nil
}

// Column computes an ad-hoc statistic set for one column: min, max,
// distinct count, average, standard deviation, quartiles, non-null count
// and null percentage. Numeric statistics use best-effort casts so
// non-numeric columns yield nulls instead of errors.
func (s *Summarize) Column(ctx context.Context, table, column string) (*Summary, error) {
	schema, err := s.meta.TableSchema(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize column %s.%s: %w", table, column, err)
	}
	var colType string
	found := false
	for _, col := range schema.Columns {
		if col.Name == column {
			colType = col.Type
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("failed to summarize column %s.%s: column not found", table, column)
	}

	rows, err := s.mgr.Query(ctx, s.columnStatsQuery(table, column))
	if err != nil {
		return nil, fmt.Errorf("failed to summarize column %s.%s: %w", table, column, err)
	}
	defer func() { _ = rows.Close() }()

	_, data, err := collectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize column %s.%s: %w", table, column, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to summarize column %s.%s: no statistics returned", table, column)
	}
	row := data[0]

	count := asInt64(row[0])
	total := asInt64(row[1])
	sum := &Summary{
		Column: column,
		Type:   colType,
		Count:  count,
		Unique: asInt64Ptr(row[2]),
		Min:    asStringPtr(row[3]),
		Max:    asStringPtr(row[4]),
		Avg:    asStringPtr(row[5]),
		Std:    asStringPtr(row[6]),
		Q25:    asStringPtr(row[7]),
		Q50:    asStringPtr(row[8]),
		Q75:    asStringPtr(row[9]),
	}
	if total > 0 {
		pct := fmt.Sprintf("%.2f%%", 100*float64(total-count)/float64(total))
		sum.NullPercent = &pct
	}
	return sum, nil
}

// columnStatsQuery builds the aggregate statement for one column. The
// SQLite variant drops the statistics its engine lacks.
func (s *Summarize) columnStatsQuery(table, column string) string {
	col := database.QuoteIdent(column)
	tbl := database.QuoteIdent(table)
	if s.mgr.Dialect().Name == "sqlite" {
		return fmt.Sprintf(`
			SELECT
				COUNT(%[1]s), COUNT(*), COUNT(DISTINCT %[1]s),
				MIN(%[1]s), MAX(%[1]s), AVG(%[1]s),
				NULL, NULL, NULL, NULL
			FROM %[2]s`, col, tbl)
	}
	return fmt.Sprintf(`
		SELECT
			COUNT(%[1]s), COUNT(*), COUNT(DISTINCT %[1]s),
			MIN(%[1]s)::VARCHAR, MAX(%[1]s)::VARCHAR,
			AVG(TRY_CAST(%[1]s AS DOUBLE)),
			STDDEV(TRY_CAST(%[1]s AS DOUBLE)),
			QUANTILE_CONT(TRY_CAST(%[1]s AS DOUBLE), 0.25),
			QUANTILE_CONT(TRY_CAST(%[1]s AS DOUBLE), 0.50),
			QUANTILE_CONT(TRY_CAST(%[1]s AS DOUBLE), 0.75)
		FROM %[2]s`, col, tbl)
}

// FormatSummary renders one block per column with present-only fields in
// a fixed order.
func FormatSummary(summaries []Summary) string {
	if len(summaries) == 0 {
		return "No summary available."
	}

	var b strings.Builder
	for i, sum := range summaries {
		if i > 0 {
			b.WriteByte('\n')
		}
		if sum.Type != "" {
			fmt.Fprintf(&b, "Column: %s (%s)\n", sum.Column, sum.Type)
		} else {
			fmt.Fprintf(&b, "Column: %s\n", sum.Column)
		}
		fmt.Fprintf(&b, "  count: %d\n", sum.Count)
		writeField := func(name string, v *string) {
			if v != nil {
				fmt.Fprintf(&b, "  %s: %s\n", name, *v)
			}
		}
		writeField("null %", sum.NullPercent)
		if sum.Unique != nil {
			fmt.Fprintf(&b, "  unique: %d\n", *sum.Unique)
		}
		writeField("min", sum.Min)
		writeField("max", sum.Max)
		writeField("avg", sum.Avg)
		writeField("std", sum.Std)
		writeField("q25", sum.Q25)
		writeField("q50", sum.Q50)
		writeField("q75", sum.Q75)
	}
	return strings.TrimRight(b.String(), "\n")
}

// asString renders a driver value as a string, empty for nil.
func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// asStringPtr renders a driver value as an optional string.
func asStringPtr(v any) *string {
	if v == nil {
		return nil
	}
	s := asString(v)
	return &s
}

// asInt64 coerces the integer-ish types drivers hand back.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// asInt64Ptr coerces to an optional int64.
func asInt64Ptr(v any) *int64 {
	if v == nil {
		return nil
	}
	n := asInt64(v)
	return &n
}
