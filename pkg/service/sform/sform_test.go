package sform_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/logger/mocklogger"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mform"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/sform"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/testutil"
)

func TestFormLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	logger, handler := mocklogger.NewRecordingLogger()
	svc := base.GetBaseServicesWithLogger(logger)

	var forms []mform.Form
	for _, title := range []string{"A", "B", "C"} {
		f := mform.Form{Title: title, Description: title + " form"}
		require.NoError(t, svc.Fs.Create(ctx, &f))
		forms = append(forms, f)
	}
	_, ok := handler.Find(slog.LevelInfo, "form created")
	assert.True(t, ok)

	got, err := svc.Fs.Get(ctx, forms[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "B form", got.Description)
	assert.Equal(t, 2, got.Rank)

	_, err = svc.Fs.Move(ctx, forms[2].ID, forms[0].ID, mtree.DropAbove)
	require.NoError(t, err)
	entry, ok := handler.Find(slog.LevelInfo, "node relocated")
	require.True(t, ok)
	assert.Equal(t, forms[2].ID.String(), entry.Attrs["node_id"])

	list, err := svc.Fs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "C", list[0].Title)
	assert.Equal(t, "A", list[1].Title)
	assert.Equal(t, "B", list[2].Title)

	_, err = svc.Fs.Delete(ctx, forms[0].ID)
	require.NoError(t, err)
	list, err = svc.Fs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Rank)
	assert.Equal(t, "B", list[1].Title)
	assert.Equal(t, 2, list[1].Rank)
}

func TestFormOnTopRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	logger, handler := mocklogger.NewRecordingLogger()
	svc := base.GetBaseServicesWithLogger(logger)

	a := mform.Form{Title: "A"}
	b := mform.Form{Title: "B"}
	require.NoError(t, svc.Fs.Create(ctx, &a))
	require.NoError(t, svc.Fs.Create(ctx, &b))

	_, err := svc.Fs.Move(ctx, a.ID, b.ID, mtree.DropOnTop)
	require.ErrorIs(t, err, movable.ErrUnsupportedRelocation)
	_, ok := handler.Find(slog.LevelWarn, "relocation rejected")
	assert.True(t, ok)

	_, err = svc.Fs.Get(ctx, idwrap.NewNow())
	assert.ErrorIs(t, err, sform.ErrNoFormFound)
	assert.ErrorIs(t, svc.Fs.UpdateDetails(ctx, mform.Form{ID: idwrap.NewNow()}), sform.ErrNoFormFound)
}

func TestFormDeleteCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	svc := base.GetBaseServices()

	f := mform.Form{Title: "F"}
	require.NoError(t, svc.Fs.Create(ctx, &f))
	s := mform.Section{FormID: f.ID, Title: "S"}
	require.NoError(t, svc.Ss.Create(ctx, &s))
	q := mform.Question{FormID: idwrap.Ptr(f.ID), Title: "Q"}
	require.NoError(t, svc.Qs.Create(ctx, &q))
	o := mform.AnswerOption{QuestionID: q.ID, Title: "O"}
	require.NoError(t, svc.Os.Create(ctx, &o))

	_, err := svc.Fs.Delete(ctx, f.ID)
	require.NoError(t, err)

	for _, table := range []string{"sections", "questions", "answer_options"} {
		var n int
		require.NoError(t, base.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}
}
