package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/txutil"
)

type Config struct {
	// BusyTimeout is applied to the connection before migrating.
	BusyTimeout time.Duration
}

// Runner applies registered migrations against one database.
type Runner struct {
	db     *sql.DB
	ledger *Store
	logger *slog.Logger
	cfg    Config
	now    func() time.Time
}

func NewRunner(db *sql.DB, cfg Config, logger *slog.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("migrate: db handle is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{db: db, ledger: NewStore(db), logger: logger, cfg: cfg, now: time.Now}, nil
}

func (r *Runner) ApplyAll(ctx context.Context) error {
	return r.apply(ctx, "")
}

// ApplyTo stops after targetID.
func (r *Runner) ApplyTo(ctx context.Context, targetID string) error {
	return r.apply(ctx, targetID)
}

// PendingEntry pairs a registered migration with its ledger row, if any.
type PendingEntry struct {
	Migration Migration
	Record    *Record
}

func (p PendingEntry) Applied() bool {
	return p.Record != nil && p.Record.Status == StatusFinished
}

// Status lists every registered migration with its recorded state.
func (r *Runner) Status(ctx context.Context) ([]PendingEntry, error) {
	if err := r.ledger.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	records, err := r.ledger.Records(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	registered := List()
	out := make([]PendingEntry, 0, len(registered))
	for _, mig := range registered {
		entry := PendingEntry{Migration: mig}
		if rec, ok := byID[mig.ID]; ok {
			entry.Record = &rec
		}
		out = append(out, entry)
	}
	return out, nil
}

// runMu serializes runners inside one process; SQLite serializes the rest.
var runMu sync.Mutex

func (r *Runner) apply(ctx context.Context, upTo string) error {
	runMu.Lock()
	defer runMu.Unlock()

	if err := r.ledger.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := r.prepare(ctx); err != nil {
		return err
	}

	for _, mig := range List() {
		if upTo != "" && mig.ID > upTo {
			break
		}
		done, err := r.finished(ctx, mig)
		if err != nil {
			return err
		}
		if done {
			continue
		}
		if err := r.run(ctx, mig); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) finished(ctx context.Context, mig Migration) (bool, error) {
	rec, err := r.ledger.GetRecord(ctx, mig.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	case rec.Status != StatusFinished:
		return false, nil
	case rec.Checksum != mig.Checksum:
		return false, fmt.Errorf("%w: stored=%s new=%s", ErrChecksumMismatch, rec.Checksum, mig.Checksum)
	}
	return true, nil
}

func (r *Runner) run(ctx context.Context, mig Migration) error {
	rec, err := r.ledger.Begin(ctx, mig.ID, mig.Checksum, r.now())
	if err != nil {
		return err
	}
	log := r.logger.With(slog.String("migration_id", mig.ID), slog.Int("attempt", rec.Attempts))
	log.InfoContext(ctx, "migration started")
	start := r.now()

	if err := r.exec(ctx, mig); err != nil {
		return r.fail(ctx, log, mig.ID, "apply", err)
	}
	if mig.Validate != nil {
		if err := mig.Validate(ctx, r.db); err != nil {
			return r.fail(ctx, log, mig.ID, "validate", err)
		}
	}

	if _, err := r.ledger.Finish(ctx, mig.ID, r.now()); err != nil {
		return err
	}
	log.InfoContext(ctx, "migration applied", slog.Duration("duration", r.now().Sub(start)))
	return nil
}

// exec runs Apply in its own transaction. The transaction is closed when exec
// returns, before any ledger write.
func (r *Runner) exec(ctx context.Context, mig Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer txutil.TxnRollback(tx)

	if err := mig.Apply(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Runner) fail(ctx context.Context, log *slog.Logger, id, stage string, cause error) error {
	if err := r.ledger.Fail(ctx, id, cause); err != nil {
		log.WarnContext(ctx, "could not record migration error", slog.String("error", err.Error()))
	}
	log.ErrorContext(ctx, "migration "+stage+" failed", slog.String("error", cause.Error()))
	return fmt.Errorf("migrate: %s %s: %w", stage, id, cause)
}

func (r *Runner) prepare(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("migrate: enable foreign_keys: %w", err)
	}
	if r.cfg.BusyTimeout > 0 {
		pragma := fmt.Sprintf("PRAGMA busy_timeout=%d", r.cfg.BusyTimeout.Milliseconds())
		if _, err := r.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("migrate: set busy_timeout: %w", err)
		}
	}
	return nil
}
