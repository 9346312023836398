package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/txutil"
)

type Status string

const (
	StatusStarted  Status = "started"
	StatusFinished Status = "finished"
)

// ErrChecksumMismatch means a finished migration was registered again with
// different contents.
var ErrChecksumMismatch = errors.New("migrate: checksum mismatch for migration")

// Record is one row of schema_migrations.
type Record struct {
	ID         string
	Status     Status
	Checksum   string
	Attempts   int
	StartedAt  time.Time
	FinishedAt sql.NullTime
	LastError  sql.NullString
}

const ledgerTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL CHECK (status IN ('started', 'finished')),
    checksum TEXT NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    last_error TEXT
)`

const selectRecords = `
SELECT id, status, checksum, attempts, started_at, finished_at, last_error
FROM schema_migrations`

// Store is the schema_migrations ledger. Every write commits on its own so
// the trace of a failed attempt survives the rollback of the migration.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, ledgerTable); err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}
	return nil
}

// Begin records a new attempt for id and returns the updated row.
func (s *Store) Begin(ctx context.Context, id, checksum string, at time.Time) (Record, error) {
	var rec Record
	err := s.write(ctx, func(tx *sql.Tx) error {
		prev, err := scanRecord(tx.QueryRowContext(ctx, selectRecords+` WHERE id = ?`, id))
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return err
		case prev.Status == StatusFinished && prev.Checksum != checksum:
			return fmt.Errorf("%w: stored=%s new=%s", ErrChecksumMismatch, prev.Checksum, checksum)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO schema_migrations (id, status, checksum, attempts, started_at)
			VALUES (?, ?, ?, 1, ?)
			ON CONFLICT (id) DO UPDATE SET
				status = excluded.status,
				checksum = excluded.checksum,
				attempts = attempts + 1,
				started_at = excluded.started_at,
				finished_at = NULL,
				last_error = NULL`,
			id, StatusStarted, checksum, at.UTC())
		if err != nil {
			return fmt.Errorf("migrate: record start of %s: %w", id, err)
		}
		rec, err = scanRecord(tx.QueryRowContext(ctx, selectRecords+` WHERE id = ?`, id))
		return err
	})
	return rec, err
}

// Finish marks id finished and clears its last error.
func (s *Store) Finish(ctx context.Context, id string, at time.Time) (Record, error) {
	var rec Record
	err := s.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE schema_migrations SET status = ?, finished_at = ?, last_error = NULL WHERE id = ?`,
			StatusFinished, at.UTC(), id)
		if err != nil {
			return fmt.Errorf("migrate: record finish of %s: %w", id, err)
		}
		if err := requireRow(res, id); err != nil {
			return err
		}
		rec, err = scanRecord(tx.QueryRowContext(ctx, selectRecords+` WHERE id = ?`, id))
		return err
	})
	return rec, err
}

// Fail stores cause as the last error of id. The status stays started.
func (s *Store) Fail(ctx context.Context, id string, cause error) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE schema_migrations SET last_error = ? WHERE id = ?`, cause.Error(), id)
		if err != nil {
			return fmt.Errorf("migrate: record error of %s: %w", id, err)
		}
		return requireRow(res, id)
	})
}

func (s *Store) GetRecord(ctx context.Context, id string) (Record, error) {
	return scanRecord(s.db.QueryRowContext(ctx, selectRecords+` WHERE id = ?`, id))
}

// Records lists the ledger ordered by id.
func (s *Store) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecords+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("migrate: list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) write(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin ledger tx: %w", err)
	}
	defer txutil.TxnRollback(tx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("migrate: no ledger row for %s", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.Status, &rec.Checksum, &rec.Attempts,
		&rec.StartedAt, &rec.FinishedAt, &rec.LastError)
	return rec, err
}
