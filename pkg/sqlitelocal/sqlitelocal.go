// Package sqlitelocal opens the on-disk database used by the command line
// tool.
package sqlitelocal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/the-dev-tools/dev-tools/packages/formtree/internal/migrations"
)

var ErrDBPathNotFound = errors.New("db path not found")

type Options struct {
	BusyTimeout time.Duration
	// SkipMigrations opens the file as is. Used by the migrate command,
	// which runs them itself.
	SkipMigrations bool
	Logger         *slog.Logger
}

// DSN builds the modernc connection string for path.
func DSN(path string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	params.Set("_txlock", "immediate")
	return "file:" + path + "?" + params.Encode()
}

// Open opens (creating if needed) the database at path and brings its
// schema up to date. The returned func closes the handle.
func Open(ctx context.Context, path string, opts Options) (*sql.DB, func(), error) {
	if path == "" {
		return nil, nil, ErrDBPathNotFound
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", DSN(path, opts.BusyTimeout))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "path", path, "error", err)
		}
	}

	if !opts.SkipMigrations {
		err = migrations.Run(ctx, db, migrations.Config{BusyTimeout: opts.BusyTimeout, Logger: logger})
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	logger.Debug("database opened", "path", path)
	return db, closeFn, nil
}
