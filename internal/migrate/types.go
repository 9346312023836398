// Package migrate applies ordered, checksummed schema migrations and keeps a
// ledger of every attempt in schema_migrations.
package migrate

import (
	"context"
	"database/sql"
)

// ApplyFunc changes the schema inside the migration's transaction.
type ApplyFunc func(ctx context.Context, tx *sql.Tx) error

// ValidateFunc checks the result after commit.
type ValidateFunc func(ctx context.Context, db *sql.DB) error

type Migration struct {
	// ID is a ULID; migrations run in id order.
	ID string
	// Checksum must not change once the migration finished anywhere.
	Checksum    string
	Description string
	Apply       ApplyFunc
	Validate    ValidateFunc
}
