package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
	_ "modernc.org/sqlite"              // sqlite driver for .sqlite targets
)

// Params holds engine session configuration, decoded from the optional
// duckdb block of the config file. Ignored for SQLite targets.
type Params struct {
	// Extensions to install and load (e.g., "httpfs", "spatial")
	Extensions []string `mapstructure:"extensions"`

	// Settings applied at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

// ParseParams decodes a raw config map into Params.
func ParseParams(raw map[string]any) (Params, error) {
	var p Params
	if err := mapstructure.Decode(raw, &p); err != nil {
		return Params{}, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return p, nil
}

// Manager owns exactly one engine session. There is no pool: the
// connection limit is pinned to one so every tool call serializes at the
// engine boundary.
type Manager struct {
	log     *slog.Logger
	cfg     Config
	dialect Dialect
	params  Params
	db      *sql.DB
}

// NewManager creates a manager for the given target. No connection is
// opened until Connect is called.
func NewManager(cfg Config, params Params, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		log:     log,
		cfg:     cfg,
		dialect: dialectFor(cfg),
		params:  params,
	}
}

// NewManagerFromDB wraps an already-open handle. Used by tests to
// substitute mock drivers.
func NewManagerFromDB(db *sql.DB, cfg Config, log *slog.Logger) *Manager {
	m := NewManager(cfg, Params{}, log)
	m.db = db
	return m
}

// dsn builds the driver connection string. Directory targets get an
// in-memory DuckDB session (writable, so the loader can register views);
// file targets are opened read-only.
func (m *Manager) dsn() string {
	switch {
	case m.cfg.IsDirectory:
		return ""
	case m.dialect.Name == "sqlite":
		return m.cfg.Path + "?mode=ro"
	default:
		return m.cfg.Path + "?access_mode=read_only"
	}
}

// Connect opens the engine session. Calling it on an already-connected
// manager is a no-op.
func (m *Manager) Connect(ctx context.Context) error {
	if m.db != nil {
		return nil
	}

	db, err := sql.Open(m.dialect.Driver, m.dsn())
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", m.dialect.Name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to open %s database at %s: %w", m.dialect.Name, m.cfg.Path, err)
	}

	// Single logical session: views registered on it must be visible to
	// every subsequent statement, and tool calls serialize here.
	db.SetMaxOpenConns(1)
	m.db = db

	if m.dialect.Name == "duckdb" {
		if err := m.applyParams(ctx); err != nil {
			_ = m.Close()
			return err
		}
	}

	m.log.Debug("connected",
		"dialect", m.dialect.Name,
		"path", m.cfg.Path,
		"directory", m.cfg.IsDirectory,
		"readonly", m.cfg.ReadOnly)
	return nil
}

// applyParams installs extensions and applies session settings.
func (m *Manager) applyParams(ctx context.Context) error {
	for _, ext := range m.params.Extensions {
		stmt := fmt.Sprintf("INSTALL %s; LOAD %s;", QuoteIdent(ext), QuoteIdent(ext))
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}
	for key, value := range m.params.Settings {
		stmt := fmt.Sprintf("SET %s = %s", QuoteIdent(key), QuoteLiteral(value))
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", key, err)
		}
	}
	return nil
}

// Query executes a statement expected to return rows. The caller must
// close the returned rows and check rows.Err after iteration.
func (m *Manager) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if m.db == nil {
		return nil, ErrNotConnected
	}
	//nolint:rowserrcheck // rows.Err() is checked by the caller after iteration
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

// Exec executes a statement with no result set (view registration,
// session settings).
func (m *Manager) Exec(ctx context.Context, query string, args ...any) error {
	if m.db == nil {
		return ErrNotConnected
	}
	if _, err := m.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

// Version returns the engine version string.
func (m *Manager) Version(ctx context.Context) (string, error) {
	rows, err := m.Query(ctx, m.dialect.VersionQuery())
	if err != nil {
		return "", err
	}
	defer func() { _ = rows.Close() }()

	var version string
	if rows.Next() {
		if err := rows.Scan(&version); err != nil {
			return "", fmt.Errorf("failed to read engine version: %w", err)
		}
	}
	return version, rows.Err()
}

// Close releases the session. Idempotent: closing an already-closed
// manager is a no-op.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Connected reports whether a session is open.
func (m *Manager) Connected() bool {
	return m.db != nil
}

// GetConfig returns a copy of the connection config.
func (m *Manager) GetConfig() Config {
	return m.cfg
}

// Dialect returns the catalog dialect for the open target.
func (m *Manager) Dialect() Dialect {
	return m.dialect
}
