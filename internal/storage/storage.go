// Package storage persists finished analysis results.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

// ResultStore is the interface for all storage backends.
type ResultStore interface {
	// Save persists one analysis result.
	Save(ctx context.Context, result *types.AnalysisResult) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New creates the store named by cfg.Type. Several comma separated types
// fan out through a MultiStore. Type "none" (or empty) returns a nil store
// and no error.
func New(cfg config.StorageConfig, logger *slog.Logger) (ResultStore, error) {
	var names []string
	for _, name := range strings.Split(cfg.Type, ",") {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" && name != "none" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}

	stores := make([]ResultStore, 0, len(names))
	for _, name := range names {
		s, err := newBackend(name, cfg, logger)
		if err != nil {
			for _, opened := range stores {
				_ = opened.Close()
			}
			return nil, err
		}
		stores = append(stores, s)
	}
	if len(stores) == 1 {
		return stores[0], nil
	}
	return NewMultiStore(stores, logger), nil
}

func newBackend(name string, cfg config.StorageConfig, logger *slog.Logger) (ResultStore, error) {
	switch name {
	case "json", "jsonl", "csv":
		return NewFileStore(name, withExt(cfg.Path, name), logger)
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = withExt(cfg.Path, "db")
		}
		return NewSQLStore(DialectSQLite, dsn, logger)
	case "postgres":
		return NewSQLStore(DialectPostgres, cfg.DSN, logger)
	case "mongodb":
		return NewMongoStore(cfg.URI, cfg.Database, cfg.Collection, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", name)
	}
}

// withExt swaps the extension of path so several file backends configured
// with one path do not overwrite each other.
func withExt(path, ext string) string {
	if path == "" {
		return ""
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}
