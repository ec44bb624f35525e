package database

import "errors"

// Sentinel errors for path detection and connection state. Callers match
// with errors.Is; messages from the underlying driver are preserved by
// wrapping at the call site.
var (
	// ErrNotConnected is returned when a statement is issued before
	// Connect or after Close.
	ErrNotConnected = errors.New("database connection not established")

	// ErrPathNotFound is returned when the target path does not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrUnsupportedFileType is returned for single-file targets whose
	// extension is not a known database format.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)
