package stree_test

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/logger/mocklogger"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/stree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/sqlitelocal"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/testutil"
)

func TestVerifyCleanTree(t *testing.T) {
	t.Parallel()
	s := newSeed(t)
	f := s.form("F")
	sec := s.section(f, "S")
	for _, title := range []string{"a", "b", "c"} {
		s.question(nil, &sec, title)
	}

	report, err := stree.Verify(s.ctx, s.svc.DB, mocklogger.NewMockLogger())
	require.NoError(t, err)
	assert.True(t, report.OK())
	// root, F groups, F items, S items, three option scopes
	assert.Equal(t, 7, report.Scopes)
}

func TestVerifyReportsCorruptedRanks(t *testing.T) {
	t.Parallel()
	s := newSeed(t)
	f := s.form("F")
	sec := s.section(f, "S")
	s.question(nil, &sec, "a")
	b := s.question(nil, &sec, "b")
	s.question(nil, &sec, "c")
	s.section(f, "T")

	_, err := s.svc.DB.ExecContext(s.ctx, `UPDATE questions SET display_order = 7 WHERE id = ?`, b.ID)
	require.NoError(t, err)

	logger, handler := mocklogger.NewRecordingLogger()
	report, err := stree.Verify(s.ctx, s.svc.DB, logger)
	require.NoError(t, err)
	require.False(t, report.OK())
	require.Len(t, report.Violations, 1)
	assert.True(t, strings.HasPrefix(report.Violations[0].Scope, "group:"+sec.ID.String()))
	assert.Contains(t, report.Violations[0].Error, "[1 3 7]")

	entry, ok := handler.Find(slog.LevelError, "rank integrity violated")
	require.True(t, ok)
	assert.Equal(t, report.Violations[0].Scope, entry.Attrs["scope"])

	// Verify never repairs
	again, err := stree.Verify(s.ctx, s.svc.DB, nil)
	require.NoError(t, err)
	assert.Len(t, again.Violations, 1)
}

func TestVerifyReportsDuplicateRanks(t *testing.T) {
	t.Parallel()
	s := newSeed(t)
	f1 := s.form("F1")
	s.form("F2")

	_, err := s.svc.DB.ExecContext(s.ctx, `UPDATE forms SET display_order = 2 WHERE id = ?`, f1.ID)
	require.NoError(t, err)

	report, err := stree.Verify(s.ctx, s.svc.DB, nil)
	require.NoError(t, err)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, "root/container", report.Violations[0].Scope)
}

func TestVerifyReadsOneSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "forms.db")

	writer, closeWriter, err := sqlitelocal.Open(ctx, path, sqlitelocal.Options{Logger: mocklogger.NewMockLogger()})
	require.NoError(t, err)
	t.Cleanup(closeWriter)
	reader, closeReader, err := sqlitelocal.Open(ctx, path, sqlitelocal.Options{SkipMigrations: true, Logger: mocklogger.NewMockLogger()})
	require.NoError(t, err)
	t.Cleanup(closeReader)

	s := &seed{ctx: ctx, t: t, svc: testutil.BaseDBQueries{Queries: stree.New(writer), DB: writer}.GetBaseServices()}
	f := s.form("F")
	sec := s.section(f, "S")
	s.question(nil, &sec, "a")
	b := s.question(nil, &sec, "b")

	snapshot, err := reader.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer snapshot.Rollback()
	var forms int
	require.NoError(t, snapshot.QueryRowContext(ctx, `SELECT COUNT(*) FROM forms`).Scan(&forms))

	_, err = writer.ExecContext(ctx, `UPDATE questions SET display_order = 5 WHERE id = ?`, b.ID)
	require.NoError(t, err)

	before, err := stree.VerifyTx(ctx, snapshot, mocklogger.NewMockLogger())
	require.NoError(t, err)
	assert.True(t, before.OK(), "snapshot taken before the write must stay clean: %+v", before.Violations)

	after, err := stree.Verify(ctx, writer, mocklogger.NewMockLogger())
	require.NoError(t, err)
	require.Len(t, after.Violations, 1)
	assert.Contains(t, after.Violations[0].Error, "[1 5]")
}
