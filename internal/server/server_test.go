package server

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/lab1702/duckmcp/internal/database"
	"github.com/lab1702/duckmcp/internal/testutil"
)

// newTestSession connects a client to the server over in-memory
// transports, backed by an in-memory engine with one seeded table.
func newTestSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	mgr := database.NewManager(
		database.Config{Path: t.TempDir(), IsDirectory: true, ReadOnly: true},
		database.Params{},
		testutil.NewTestLogger(t),
	)
	require.NoError(t, mgr.Connect(ctx))
	t.Cleanup(func() { _ = mgr.Close() })
	require.NoError(t, mgr.Exec(ctx, `CREATE TABLE trips (id INTEGER, distance DOUBLE)`))
	require.NoError(t, mgr.Exec(ctx, `INSERT INTO trips VALUES (1, 2.5), (2, 4.0), (3, 1.25)`))

	srv := New(mgr, testutil.NewTestLogger(t), "test", 0)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := srv.Connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return session
}

// resultText concatenates the text content items of a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	var parts []string
	for _, c := range res.Content {
		tc, ok := c.(*mcp.TextContent)
		require.True(t, ok, "expected text content, got %T", c)
		parts = append(parts, tc.Text)
	}
	return strings.Join(parts, "\n")
}

func TestServer_ListTools(t *testing.T) {
	session := newTestSession(t)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		require.NotEmpty(t, tool.Description, "tool %s has no description", tool.Name)
	}
	sort.Strings(names)
	require.Equal(t, []string{
		"describe_table",
		"execute_query",
		"get_database_info",
		"get_schema",
		"get_tables",
		"summarize_table",
	}, names)
}

func TestServer_GetTables(t *testing.T) {
	session := newTestSession(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: "get_tables"})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var tables []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &tables))
	require.Len(t, tables, 1)
	require.Equal(t, "trips", tables[0]["name"])
	require.Equal(t, "TABLE", tables[0]["type"])
}

func TestServer_GetSchema(t *testing.T) {
	session := newTestSession(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_schema",
		Arguments: map[string]any{"table_name": "trips"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := resultText(t, res)
	require.Contains(t, text, `"table_name": "trips"`)
	require.Contains(t, text, `"distance"`)
}

func TestServer_GetSchemaError(t *testing.T) {
	session := newTestSession(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_schema",
		Arguments: map[string]any{"table_name": "missing"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "not found")
}

func TestServer_DescribeTable(t *testing.T) {
	session := newTestSession(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "describe_table",
		Arguments: map[string]any{"table_name": "trips"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(t, res), `"rowCount": 3`)
}

func TestServer_ExecuteQuery(t *testing.T) {
	session := newTestSession(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "execute_query",
		Arguments: map[string]any{"sql": "SELECT id FROM trips ORDER BY id"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := resultText(t, res)
	require.Contains(t, text, "id")
	require.Contains(t, text, "3 rows")
}

func TestServer_ExecuteQueryLimit(t *testing.T) {
	session := newTestSession(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "execute_query",
		Arguments: map[string]any{"sql": "SELECT id FROM trips ORDER BY id", "limit": 1},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(t, res), "... and 2 more rows")
}

func TestServer_ExecuteQueryError(t *testing.T) {
	session := newTestSession(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "execute_query",
		Arguments: map[string]any{"sql": "SELECT * FROM no_such_table"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "no_such_table")
}

func TestServer_SummarizeTable(t *testing.T) {
	session := newTestSession(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "summarize_table",
		Arguments: map[string]any{"table_name": "trips"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := resultText(t, res)
	require.Contains(t, text, "Column: id")
	require.Contains(t, text, "Column: distance")
	require.Contains(t, text, "count: 3")
}

func TestServer_GetDatabaseInfo(t *testing.T) {
	session := newTestSession(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: "get_database_info"})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &info))
	require.NotEmpty(t, info["version"])
	require.Equal(t, true, info["readonly"])
	require.Equal(t, float64(1), info["totalTables"])
}

func TestServer_UnknownTool(t *testing.T) {
	session := newTestSession(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: "nonexistent_tool"})
	if err != nil {
		require.Contains(t, strings.ToLower(err.Error()), "tool")
		return
	}
	require.True(t, res.IsError)
}
