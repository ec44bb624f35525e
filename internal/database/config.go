// Package database manages the single engine session used by all tools.
// It owns the connection lifecycle, translates a logical target (database
// file or data directory) into a connection mode, and exposes uniform
// query/exec operations over database/sql.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config describes the resolved connection target. It is created once at
// startup by DetectPathType and never mutated afterwards.
type Config struct {
	// Path is the database file or data directory.
	Path string

	// IsDirectory marks directory targets, which are served from an
	// in-memory session with one view registered per file type.
	IsDirectory bool

	// ReadOnly reports the logical access mode. Directory targets still
	// open a writable in-memory session so views can be registered, but
	// the underlying files are never written.
	ReadOnly bool
}

// databaseExts are the single-file formats we can open directly.
var databaseExts = map[string]bool{
	".db":     true,
	".duckdb": true,
	".sqlite": true,
}

// DetectPathType stats the target path and derives the connection config.
// Directories are always accepted; single files must carry a known
// database extension.
func DetectPathType(path string) (Config, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Config{}, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if info.IsDir() {
		return Config{Path: path, IsDirectory: true, ReadOnly: true}, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !databaseExts[ext] {
		return Config{}, fmt.Errorf("%w: %s (expected .db, .duckdb or .sqlite)", ErrUnsupportedFileType, path)
	}

	return Config{Path: path, ReadOnly: true}, nil
}
