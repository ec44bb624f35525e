// Package loader discovers data files under a directory target and
// registers them as queryable views through DuckDB's multi-file readers.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/lab1702/duckmcp/internal/database"
)

// readFuncs maps a file extension to the DuckDB table function that reads
// it. The functions auto-detect column types and, with hive_partitioning,
// expose key=value path segments as virtual columns.
var readFuncs = map[string]string{
	"csv":     "read_csv_auto",
	"parquet": "read_parquet",
	"json":    "read_json_auto",
	"jsonl":   "read_json_auto",
}

// extOrder fixes the registration order so startup is deterministic.
var extOrder = []string{"csv", "parquet", "json", "jsonl"}

// Loader registers one view per discovered file type.
type Loader struct {
	mgr *database.Manager
	log *slog.Logger
}

// New creates a loader bound to an open connection manager.
func New(mgr *database.Manager, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loader{mgr: mgr, log: log}
}

// Load registers views for every supported file type found under a
// directory target. Single-file targets are a no-op: the engine owns the
// file directly.
//
// A file type that fails to register is logged and skipped; it never
// aborts loading of the remaining types. View registration is strictly
// sequential so CREATE VIEW statements don't race on the session.
func (l *Loader) Load(ctx context.Context) error {
	cfg := l.mgr.GetConfig()
	if !cfg.IsDirectory {
		return nil
	}

	dir, err := filepath.Abs(cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve directory %s: %w", cfg.Path, err)
	}

	groups, err := discoverFiles(dir)
	if err != nil {
		return fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	base := SanitizeName(filepath.Base(dir))
	registered := 0
	for _, ext := range extOrder {
		files := groups[ext]
		if len(files) == 0 {
			continue
		}
		view := base + "_" + ext
		if err := l.registerView(ctx, view, ext, dir, files); err != nil {
			l.log.Warn("skipping file type",
				"ext", ext,
				"files", len(files),
				"error", err)
			continue
		}
		l.log.Info("registered view", "view", view, "ext", ext, "files", len(files))
		registered++
	}

	if registered == 0 {
		l.log.Warn("no data files registered", "dir", dir)
	}
	return nil
}

// registerView creates one view over all files of a type, trying each
// registration strategy in turn and short-circuiting on the first success.
// The glob form lets the engine resolve files itself; the explicit list is
// the fallback when glob resolution misbehaves on a layout.
func (l *Loader) registerView(ctx context.Context, view, ext, dir string, files []string) error {
	fn := readFuncs[ext]
	pattern := filepath.ToSlash(filepath.Join(dir, "**", "*."+ext))

	strategies := []struct {
		name   string
		source string
	}{
		{"glob", fmt.Sprintf("%s(%s, union_by_name=true, hive_partitioning=true)", fn, database.QuoteLiteral(pattern))},
		{"file list", fmt.Sprintf("%s([%s], union_by_name=true, hive_partitioning=true)", fn, quoteList(files))},
	}

	var errs []error
	for _, s := range strategies {
		stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM %s",
			database.QuoteIdent(view), s.source)
		if err := l.mgr.Exec(ctx, stmt); err != nil {
			l.log.Warn("view registration strategy failed",
				"view", view,
				"strategy", s.name,
				"error", err)
			errs = append(errs, fmt.Errorf("%s registration: %w", s.name, err))
			continue
		}
		return nil
	}
	return errors.Join(errs...)
}

// discoverFiles walks the directory tree once and groups regular files by
// supported extension. Paths are sorted for deterministic registration.
func discoverFiles(dir string) (map[string][]string, error) {
	groups := make(map[string][]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if _, ok := readFuncs[ext]; ok {
			groups[ext] = append(groups[ext], filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, files := range groups {
		sort.Strings(files)
	}
	return groups, nil
}

var nonIdentChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SanitizeName turns a directory base name into a view name prefix:
// non-alphanumeric runes become underscores. An empty or fully stripped
// name falls back to "data".
func SanitizeName(name string) string {
	sanitized := nonIdentChars.ReplaceAllString(name, "_")
	if strings.Trim(sanitized, "_") == "" {
		return "data"
	}
	return sanitized
}

// quoteList renders file paths as a comma-separated list of SQL literals.
func quoteList(files []string) string {
	quoted := make([]string, len(files))
	for i, f := range files {
		quoted[i] = database.QuoteLiteral(f)
	}
	return strings.Join(quoted, ", ")
}
