package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:migrate_%s?mode=memory&cache=shared", ulid.Make()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func newID() string {
	return ulid.Make().String()
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func funcStub(context.Context, *sql.Tx) error { return nil }

func TestRunnerApplyAll(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	id := newID()
	table := "migration_apply_all"
	if err := Register(Migration{
		ID:       id,
		Checksum: "test-checksum-apply",
		Apply: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+table+" (id INTEGER PRIMARY KEY)")
			return err
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	runner, err := NewRunner(db, Config{}, slogDiscard())
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := runner.ApplyAll(ctx); err != nil {
		t.Fatalf("apply all: %v", err)
	}

	var name string
	if err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name); err != nil {
		t.Fatalf("table missing: %v", err)
	}

	rec, err := NewStore(db).GetRecord(ctx, id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Status != StatusFinished {
		t.Fatalf("expected finished status, got %s", rec.Status)
	}
	if rec.Attempts != 1 {
		t.Fatalf("expected attempts 1, got %d", rec.Attempts)
	}
}

func TestRunnerSkipsFinishedMigrations(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	var applies int
	if err := Register(Migration{
		ID:       newID(),
		Checksum: "test-checksum-skip",
		Apply: func(ctx context.Context, tx *sql.Tx) error {
			applies++
			return nil
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	runner, err := NewRunner(db, Config{}, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := runner.ApplyAll(ctx); err != nil {
			t.Fatalf("apply all %d: %v", i, err)
		}
	}
	if applies != 1 {
		t.Fatalf("expected apply once, got %d", applies)
	}
}

func TestRunnerRecordsErrors(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	id := newID()
	if err := Register(Migration{
		ID:       id,
		Checksum: "test-checksum-error",
		Apply: func(ctx context.Context, tx *sql.Tx) error {
			return errors.New("boom")
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	runner, err := NewRunner(db, Config{}, slogDiscard())
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := runner.ApplyAll(ctx); err == nil {
		t.Fatalf("expected error from apply all")
	}

	rec, err := NewStore(db).GetRecord(ctx, id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Status != StatusStarted {
		t.Fatalf("expected status started, got %s", rec.Status)
	}
	if !rec.LastError.Valid || rec.LastError.String != "boom" {
		t.Fatalf("expected last error boom, got %+v", rec.LastError)
	}

	entries, err := runner.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(entries) != 1 || entries[0].Applied() {
		t.Fatalf("expected one pending entry, got %+v", entries)
	}
}

func TestRunnerChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	id := newID()
	if err := Register(Migration{ID: id, Checksum: "v1", Apply: funcStub}); err != nil {
		t.Fatalf("register: %v", err)
	}
	runner, err := NewRunner(db, Config{}, slogDiscard())
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := runner.ApplyAll(ctx); err != nil {
		t.Fatalf("apply all: %v", err)
	}

	ResetForTesting()
	if err := Register(Migration{ID: id, Checksum: "v2", Apply: funcStub}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := runner.ApplyAll(ctx); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
}

func TestRunnerApplyTo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	first, second := newID(), newID()
	for _, id := range []string{first, second} {
		if err := Register(Migration{ID: id, Checksum: "sum", Apply: funcStub}); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	runner, err := NewRunner(db, Config{}, slogDiscard())
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := runner.ApplyTo(ctx, first); err != nil {
		t.Fatalf("apply to: %v", err)
	}

	entries, err := runner.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !entries[0].Applied() || entries[1].Applied() {
		t.Fatalf("expected only %s applied", first)
	}
}

func TestNewRunnerRequiresDB(t *testing.T) {
	if _, err := NewRunner(nil, Config{}, nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
}

func TestRunnerRetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	id := newID()
	fail := true
	if err := Register(Migration{
		ID:       id,
		Checksum: "test-checksum-retry",
		Apply: func(ctx context.Context, tx *sql.Tx) error {
			if fail {
				return errors.New("transient")
			}
			return nil
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	runner, err := NewRunner(db, Config{}, slogDiscard())
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := runner.ApplyAll(ctx); err == nil {
		t.Fatalf("expected first attempt to fail")
	}
	fail = false
	if err := runner.ApplyAll(ctx); err != nil {
		t.Fatalf("second attempt: %v", err)
	}

	rec, err := NewStore(db).GetRecord(ctx, id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Status != StatusFinished || rec.Attempts != 2 {
		t.Fatalf("expected finished after 2 attempts, got %s after %d", rec.Status, rec.Attempts)
	}
	if rec.LastError.Valid {
		t.Fatalf("expected last error cleared, got %q", rec.LastError.String)
	}
}
