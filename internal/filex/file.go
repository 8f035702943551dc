// Package filex holds small filesystem helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SQLitePath returns the filesystem path named by a SQLite DSN, or "" for
// in-memory databases. Both plain paths and file: URIs are understood.
func SQLitePath(dsn string) string {
	path := dsn
	if rest, ok := strings.CutPrefix(path, "file:"); ok {
		path = rest
	}
	path, _, _ = strings.Cut(path, "?")

	if path == "" || path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	return path
}

// EnsureParentDir creates the directory that will hold the file at path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
