package commands

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lab1702/duckmcp/internal/tools"
)

func sampleResult() *tools.Result {
	return &tools.Result{
		Columns:  []string{"id", "name"},
		Rows:     [][]any{{int64(1), "alice"}, {int64(2), nil}},
		RowCount: 2,
		Elapsed:  3 * time.Millisecond,
	}
}

func TestRenderTable(t *testing.T) {
	var b strings.Builder
	require.NoError(t, renderResult(&b, sampleResult(), "table"))

	out := b.String()
	require.Contains(t, out, "ID")
	require.Contains(t, out, "alice")
	require.Contains(t, out, "NULL")
	require.Contains(t, out, "(2 rows in 3 ms)")
}

func TestRenderTableEmpty(t *testing.T) {
	var b strings.Builder
	require.NoError(t, renderResult(&b, &tools.Result{}, "table"))
	require.Equal(t, "(0 rows)\n", b.String())
}

func TestRenderJSON(t *testing.T) {
	var b strings.Builder
	require.NoError(t, renderResult(&b, sampleResult(), "json"))

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(b.String()), &records))
	require.Len(t, records, 2)
	require.Equal(t, "alice", records[0]["name"])
	require.Nil(t, records[1]["name"])
}

func TestRenderCSV(t *testing.T) {
	res := sampleResult()
	res.Rows = append(res.Rows, []any{int64(3), `quote "me", please`})
	res.RowCount = 3

	var b strings.Builder
	require.NoError(t, renderResult(&b, res, "csv"))

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	require.Equal(t, "id,name", lines[0])
	require.Equal(t, "1,alice", lines[1])
	require.Equal(t, "2,NULL", lines[2])
	require.Equal(t, `3,"quote ""me"", please"`, lines[3])
}

func TestRenderMarkdown(t *testing.T) {
	res := sampleResult()
	res.Rows[0][1] = "a|b"

	var b strings.Builder
	require.NoError(t, renderResult(&b, res, "md"))

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	require.Equal(t, "| id | name |", lines[0])
	require.Equal(t, "| --- | --- |", lines[1])
	require.Contains(t, lines[2], `a\|b`)
}

func TestFormatValue(t *testing.T) {
	require.Equal(t, "NULL", formatValue(nil))
	require.Equal(t, "bytes", formatValue([]byte("bytes")))
	require.Equal(t, "1.5", formatValue(1.5))
}
