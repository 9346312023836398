// Package migrations registers the form tree schema with the migration
// runner. Importing it is enough to make Run aware of every migration.
package migrations

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/the-dev-tools/dev-tools/packages/formtree/internal/migrate"
)

type Config struct {
	BusyTimeout time.Duration
	Logger      *slog.Logger
}

// Run applies every registered migration that has not finished yet.
func Run(ctx context.Context, db *sql.DB, cfg Config) error {
	runner, err := migrate.NewRunner(db, migrate.Config{BusyTimeout: cfg.BusyTimeout}, cfg.Logger)
	if err != nil {
		return err
	}
	return runner.ApplyAll(ctx)
}

// Status reports each registered migration with its recorded state.
func Status(ctx context.Context, db *sql.DB) ([]migrate.PendingEntry, error) {
	runner, err := migrate.NewRunner(db, migrate.Config{}, nil)
	if err != nil {
		return nil, err
	}
	return runner.Status(ctx)
}
