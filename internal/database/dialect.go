package database

import (
	"path/filepath"
	"strings"
)

// Dialect captures the per-driver SQL needed for catalog introspection.
// DuckDB handles everything we throw at it; the SQLite path exists so a
// plain .sqlite file can still be inspected read-only.
type Dialect struct {
	// Name is "duckdb" or "sqlite".
	Name string

	// Driver is the database/sql driver name.
	Driver string

	// NativeSummarize reports whether the engine has a built-in
	// statistical summary statement (DuckDB's SUMMARIZE).
	NativeSummarize bool
}

var (
	duckDBDialect = Dialect{Name: "duckdb", Driver: "duckdb", NativeSummarize: true}
	sqliteDialect = Dialect{Name: "sqlite", Driver: "sqlite", NativeSummarize: false}
)

// dialectFor picks the dialect from the target: directories and DuckDB
// files use the embedded DuckDB engine, .sqlite files use the SQLite driver.
func dialectFor(cfg Config) Dialect {
	if !cfg.IsDirectory && strings.EqualFold(filepath.Ext(cfg.Path), ".sqlite") {
		return sqliteDialect
	}
	return duckDBDialect
}

// VersionQuery returns a statement producing a single-row, single-column
// engine version string.
func (d Dialect) VersionQuery() string {
	if d.Name == "sqlite" {
		return `SELECT 'SQLite ' || sqlite_version()`
	}
	return `SELECT version()`
}

// TablesQuery returns a statement listing user tables and views as
// (schema, name, type) ordered by schema then name. Internal catalogs are
// excluded. The type column is normalized to 'BASE TABLE' or 'VIEW'.
func (d Dialect) TablesQuery() string {
	if d.Name == "sqlite" {
		return `
			SELECT 'main', name, CASE type WHEN 'view' THEN 'VIEW' ELSE 'BASE TABLE' END
			FROM sqlite_master
			WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
			ORDER BY name`
	}
	return `
		SELECT table_schema, table_name, table_type
		FROM information_schema.tables
		WHERE table_schema NOT IN ('information_schema', 'pg_catalog')
		ORDER BY table_schema, table_name`
}

// ColumnsQuery returns a statement listing the columns of one table as
// (name, type, nullable, default) in declared order. Nullability is
// reported as 'YES'/'NO' in both dialects. Takes the table name as the
// single bind parameter.
func (d Dialect) ColumnsQuery() string {
	if d.Name == "sqlite" {
		return `
			SELECT name, type, CASE WHEN "notnull" = 0 THEN 'YES' ELSE 'NO' END, dflt_value
			FROM pragma_table_info(?)
			ORDER BY cid`
	}
	return `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_name = ?
		  AND table_schema NOT IN ('information_schema', 'pg_catalog')
		ORDER BY ordinal_position`
}
