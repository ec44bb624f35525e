// Package server declares the MCP tool catalog and routes named calls to
// the metadata, query and summarize tools over a stdio transport.
package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lab1702/duckmcp/internal/database"
	"github.com/lab1702/duckmcp/internal/tools"
)

// Server wires the tool implementations into an MCP server. Tool handler
// errors are converted by the SDK into error-flagged tool results, never
// transport-level failures.
type Server struct {
	log       *slog.Logger
	metadata  *tools.Metadata
	query     *tools.Query
	summarize *tools.Summarize
	rowLimit  int
	mcp       *mcp.Server
}

// New builds the server and registers the tool catalog. rowLimit is the
// default display limit for execute_query; zero falls back to the
// package default.
func New(mgr *database.Manager, log *slog.Logger, version string, rowLimit int) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if rowLimit <= 0 {
		rowLimit = tools.DefaultRowLimit
	}

	meta := tools.NewMetadata(mgr, log)
	s := &Server{
		log:       log,
		metadata:  meta,
		query:     tools.NewQuery(mgr, log),
		summarize: tools.NewSummarize(mgr, meta, log),
		rowLimit:  rowLimit,
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "duckmcp",
		Title:   "DuckDB MCP Server",
		Version: version,
	}, nil)
	s.register()
	return s
}

// Run serves the catalog over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// Connect attaches the server to an arbitrary transport. Used by tests
// with in-memory transports.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, t, nil)
}

// tableNameSchema is the input schema shared by the single-table tools.
func tableNameSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"table_name": map[string]any{
				"type":        "string",
				"description": "Name of the table or view",
			},
		},
		"required": []string{"table_name"},
	}
}

type noArgs struct{}

type tableArgs struct {
	TableName string `json:"table_name"`
}

type queryArgs struct {
	SQL   string `json:"sql"`
	Limit int    `json:"limit,omitempty"`
}

// register declares the tool catalog.
func (s *Server) register() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_tables",
		Description: "List all tables and views in the database",
		InputSchema: map[string]any{"type": "object"},
	}, s.handleGetTables)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_schema",
		Description: "Get the column schema of a table",
		InputSchema: tableNameSchema(),
	}, s.handleGetSchema)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "describe_table",
		Description: "Get the schema and row count of a table",
		InputSchema: tableNameSchema(),
	}, s.handleDescribeTable)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "execute_query",
		Description: "Execute a read-only SQL query and return the results as a text table",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sql": map[string]any{
					"type":        "string",
					"description": "SQL query to execute",
				},
				"limit": map[string]any{
					"type":        "number",
					"description": "Maximum number of rows to display (default 100)",
				},
			},
			"required": []string{"sql"},
		},
	}, s.handleExecuteQuery)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "summarize_table",
		Description: "Compute per-column statistics (min, max, avg, quartiles, null counts) for a table",
		InputSchema: tableNameSchema(),
	}, s.handleSummarizeTable)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_database_info",
		Description: "Get the engine version, table list and connection mode",
		InputSchema: map[string]any{"type": "object"},
	}, s.handleGetDatabaseInfo)
}

func (s *Server) handleGetTables(ctx context.Context, _ *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	tables, err := s.metadata.Tables(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(tables)
}

func (s *Server) handleGetSchema(ctx context.Context, _ *mcp.CallToolRequest, args tableArgs) (*mcp.CallToolResult, any, error) {
	schema, err := s.metadata.TableSchema(ctx, args.TableName)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(schema)
}

func (s *Server) handleDescribeTable(ctx context.Context, _ *mcp.CallToolRequest, args tableArgs) (*mcp.CallToolResult, any, error) {
	desc, err := s.metadata.DescribeTable(ctx, args.TableName)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(desc)
}

func (s *Server) handleExecuteQuery(ctx context.Context, _ *mcp.CallToolRequest, args queryArgs) (*mcp.CallToolResult, any, error) {
	result, err := s.query.Execute(ctx, args.SQL)
	if err != nil {
		return nil, nil, err
	}
	limit := args.Limit
	if limit <= 0 {
		limit = s.rowLimit
	}
	return textResult(tools.FormatResult(result, limit))
}

func (s *Server) handleSummarizeTable(ctx context.Context, _ *mcp.CallToolRequest, args tableArgs) (*mcp.CallToolResult, any, error) {
	summaries, err := s.summarize.Table(ctx, args.TableName)
	if err != nil {
		return nil, nil, err
	}
	return textResult(tools.FormatSummary(summaries))
}

func (s *Server) handleGetDatabaseInfo(ctx context.Context, _ *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	info, err := s.metadata.DatabaseInfo(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(info)
}

// jsonResult wraps a value as a single pretty-printed JSON content item.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return textResult(string(data))
}

// textResult wraps text as a single content item.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}
