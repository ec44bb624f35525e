package tools

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lab1702/duckmcp/internal/database"
)

// TableType distinguishes base tables from views.
type TableType string

const (
	// TypeTable marks a base table.
	TypeTable TableType = "TABLE"
	// TypeView marks a view, including loader-registered file views.
	TypeView TableType = "VIEW"
)

// TableInfo identifies one table or view in the catalog.
type TableInfo struct {
	Name   string    `json:"name"`
	Schema string    `json:"schema"`
	Type   TableType `json:"type"`
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default_value,omitempty"`
}

// TableSchema is the full column layout of one table.
type TableSchema struct {
	TableName string       `json:"table_name"`
	Columns   []ColumnInfo `json:"columns"`
}

// TableDescription pairs a schema with the current row count.
type TableDescription struct {
	Schema   TableSchema `json:"schema"`
	RowCount int64       `json:"rowCount"`
}

// DatabaseInfo reports engine version and connection facts.
type DatabaseInfo struct {
	Version     string      `json:"version"`
	Tables      []TableInfo `json:"tables"`
	TotalTables int         `json:"totalTables"`
	ReadOnly    bool        `json:"readonly"`
}

// Metadata answers catalog questions against the single engine session.
type Metadata struct {
	mgr *database.Manager
	log *slog.Logger
}

// NewMetadata creates the metadata tool.
func NewMetadata(mgr *database.Manager, log *slog.Logger) *Metadata {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Metadata{mgr: mgr, log: log}
}

// Tables lists user tables and views, ordered by schema then name.
// Internal catalogs are excluded by the dialect query.
func (m *Metadata) Tables(ctx context.Context) ([]TableInfo, error) {
	rows, err := m.mgr.Query(ctx, m.mgr.Dialect().TablesQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := []TableInfo{}
	for rows.Next() {
		var info TableInfo
		var rawType string
		if err := rows.Scan(&info.Schema, &info.Name, &rawType); err != nil {
			return nil, fmt.Errorf("failed to scan table info: %w", err)
		}
		info.Type = TypeTable
		if rawType == "VIEW" {
			info.Type = TypeView
		}
		tables = append(tables, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// TableSchema returns the column layout of one table, in declared column
// order. A table with no catalog columns does not exist.
func (m *Metadata) TableSchema(ctx context.Context, table string) (*TableSchema, error) {
	rows, err := m.mgr.Query(ctx, m.mgr.Dialect().ColumnsQuery(), table)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema for %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	schema := &TableSchema{TableName: table, Columns: []ColumnInfo{}}
	for rows.Next() {
		var col ColumnInfo
		var nullable string
		var def sql.NullString
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &def); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		col.Nullable = nullable == "YES"
		if def.Valid {
			col.Default = &def.String
		}
		schema.Columns = append(schema.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("table %q not found", table)
	}
	return schema, nil
}

// DescribeTable composes the schema lookup with a COUNT(*) query.
func (m *Metadata) DescribeTable(ctx context.Context, table string) (*TableDescription, error) {
	schema, err := m.TableSchema(ctx, table)
	if err != nil {
		return nil, err
	}

	rows, err := m.mgr.Query(ctx, "SELECT COUNT(*) FROM "+database.QuoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to read row count: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &TableDescription{Schema: *schema, RowCount: count}, nil
}

// DatabaseInfo reports the engine version, the table list and the
// connection's read-only flag.
func (m *Metadata) DatabaseInfo(ctx context.Context) (*DatabaseInfo, error) {
	version, err := m.mgr.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine version: %w", err)
	}
	tables, err := m.Tables(ctx)
	if err != nil {
		return nil, err
	}
	return &DatabaseInfo{
		Version:     version,
		Tables:      tables,
		TotalTables: len(tables),
		ReadOnly:    m.mgr.GetConfig().ReadOnly,
	}, nil
}
