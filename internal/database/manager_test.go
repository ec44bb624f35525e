package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lab1702/duckmcp/internal/testutil"
)

// newMemoryManager opens an in-memory DuckDB session via a directory
// target, the same mode the loader relies on.
func newMemoryManager(t *testing.T) *Manager {
	t.Helper()
	mgr := NewManager(Config{Path: t.TempDir(), IsDirectory: true, ReadOnly: true}, Params{}, testutil.NewTestLogger(t))
	require.NoError(t, mgr.Connect(context.Background()))
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestManager_ConnectAndQuery(t *testing.T) {
	ctx := context.Background()
	mgr := newMemoryManager(t)

	require.True(t, mgr.Connected())
	require.NoError(t, mgr.Exec(ctx, `CREATE TABLE t (id INTEGER, name VARCHAR)`))
	require.NoError(t, mgr.Exec(ctx, `INSERT INTO t VALUES (1, 'alice'), (2, 'bob')`))

	rows, err := mgr.Query(ctx, `SELECT name FROM t ORDER BY id`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"alice", "bob"}, names)
}

func TestManager_ConnectTwiceIsNoop(t *testing.T) {
	mgr := newMemoryManager(t)
	require.NoError(t, mgr.Connect(context.Background()))
	require.True(t, mgr.Connected())
}

func TestManager_NotConnected(t *testing.T) {
	mgr := NewManager(Config{Path: t.TempDir(), IsDirectory: true}, Params{}, nil)

	_, err := mgr.Query(context.Background(), `SELECT 1`)
	require.ErrorIs(t, err, ErrNotConnected)
	require.ErrorIs(t, mgr.Exec(context.Background(), `SELECT 1`), ErrNotConnected)
	require.False(t, mgr.Connected())
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	mgr := newMemoryManager(t)

	require.NoError(t, mgr.Close())
	require.False(t, mgr.Connected())
	require.NoError(t, mgr.Close())

	_, err := mgr.Query(context.Background(), `SELECT 1`)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestManager_Version(t *testing.T) {
	mgr := newMemoryManager(t)

	version, err := mgr.Version(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, version)
}

func TestManager_GetConfigIsCopy(t *testing.T) {
	mgr := newMemoryManager(t)

	cfg := mgr.GetConfig()
	cfg.ReadOnly = false
	require.True(t, mgr.GetConfig().ReadOnly)
}

func TestManager_ReadOnlyFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.duckdb")

	// Seed the file with a writable session first.
	seed, err := sql.Open("duckdb", path)
	require.NoError(t, err)
	_, err = seed.ExecContext(ctx, `CREATE TABLE t AS SELECT 1 AS id`)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	mgr := NewManager(Config{Path: path, ReadOnly: true}, Params{}, testutil.NewTestLogger(t))
	require.NoError(t, mgr.Connect(ctx))
	defer func() { _ = mgr.Close() }()

	rows, err := mgr.Query(ctx, `SELECT id FROM t`)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	// Write enforcement is the engine's, not ours.
	require.Error(t, mgr.Exec(ctx, `INSERT INTO t VALUES (2)`))
}

func TestManager_SQLiteFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.sqlite")

	seed, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = seed.ExecContext(ctx, `CREATE TABLE t (id INTEGER); INSERT INTO t VALUES (42)`)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	mgr := NewManager(Config{Path: path, ReadOnly: true}, Params{}, testutil.NewTestLogger(t))
	require.Equal(t, "sqlite", mgr.Dialect().Name)
	require.NoError(t, mgr.Connect(ctx))
	defer func() { _ = mgr.Close() }()

	version, err := mgr.Version(ctx)
	require.NoError(t, err)
	require.Contains(t, version, "SQLite")

	rows, err := mgr.Query(ctx, `SELECT id FROM t`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	require.True(t, rows.Next())
	var id int
	require.NoError(t, rows.Scan(&id))
	require.Equal(t, 42, id)
	require.NoError(t, rows.Err())
}

func TestManager_ConnectBadPath(t *testing.T) {
	// Opening a nonexistent file read-only must fail at connect time.
	mgr := NewManager(Config{Path: filepath.Join(t.TempDir(), "missing.duckdb"), ReadOnly: true}, Params{}, nil)
	require.Error(t, mgr.Connect(context.Background()))
	require.False(t, mgr.Connected())
}
