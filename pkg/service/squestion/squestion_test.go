package squestion_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mform"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/squestion"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/testutil"
)

type env struct {
	ctx  context.Context
	svc  testutil.BaseTestServices
	form mform.Form
	grp  mform.Section
}

// newEnv builds form C with direct questions Q1, Q2 and section Grp holding Qa.
func newEnv(t *testing.T) (*env, map[string]mform.Question) {
	t.Helper()
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	t.Cleanup(base.Close)
	e := &env{ctx: ctx, svc: base.GetBaseServices()}

	e.form = mform.Form{Title: "C"}
	require.NoError(t, e.svc.Fs.Create(ctx, &e.form))
	e.grp = mform.Section{FormID: e.form.ID, Title: "Grp"}
	require.NoError(t, e.svc.Ss.Create(ctx, &e.grp))

	qs := map[string]mform.Question{}
	for _, title := range []string{"Q1", "Q2"} {
		q := mform.Question{FormID: idwrap.Ptr(e.form.ID), Title: title}
		require.NoError(t, e.svc.Qs.Create(ctx, &q))
		qs[title] = q
	}
	qa := mform.Question{SectionID: idwrap.Ptr(e.grp.ID), Title: "Qa", Type: mform.QuestionTypeSingleChoice}
	require.NoError(t, e.svc.Qs.Create(ctx, &qa))
	qs["Qa"] = qa
	return e, qs
}

func ranked(t *testing.T, questions []mform.Question, err error) []string {
	t.Helper()
	require.NoError(t, err)
	out := make([]string, len(questions))
	for i, q := range questions {
		require.Equal(t, i+1, q.Rank, "rank of %s", q.Title)
		out[i] = q.Title
	}
	return out
}

func (e *env) formItems(t *testing.T) []string {
	qs, err := e.svc.Qs.ListByForm(e.ctx, e.form.ID)
	return ranked(t, qs, err)
}

func (e *env) groupItems(t *testing.T) []string {
	qs, err := e.svc.Qs.ListBySection(e.ctx, e.grp.ID)
	return ranked(t, qs, err)
}

func TestCreateRequiresOneParent(t *testing.T) {
	t.Parallel()
	e, _ := newEnv(t)

	both := mform.Question{FormID: idwrap.Ptr(e.form.ID), SectionID: idwrap.Ptr(e.grp.ID), Title: "x"}
	assert.ErrorIs(t, e.svc.Qs.Create(e.ctx, &both), mform.ErrQuestionParent)

	neither := mform.Question{Title: "y"}
	assert.ErrorIs(t, e.svc.Qs.Create(e.ctx, &neither), mform.ErrQuestionParent)
}

func TestCreateKeepsDetails(t *testing.T) {
	t.Parallel()
	e, qs := newEnv(t)

	got, err := e.svc.Qs.Get(e.ctx, qs["Qa"].ID)
	require.NoError(t, err)
	assert.Equal(t, mform.QuestionTypeSingleChoice, got.Type)
	assert.Nil(t, got.FormID)
	require.NotNil(t, got.SectionID)
	assert.Equal(t, e.grp.ID, *got.SectionID)

	q1, err := e.svc.Qs.Get(e.ctx, qs["Q1"].ID)
	require.NoError(t, err)
	assert.Equal(t, mform.QuestionTypeFreeText, q1.Type)

	_, err = e.svc.Qs.Get(e.ctx, idwrap.NewNow())
	assert.ErrorIs(t, err, squestion.ErrNoQuestionFound)
}

func TestMoveOnTopOfSection(t *testing.T) {
	t.Parallel()
	e, qs := newEnv(t)

	res, err := e.svc.Qs.Move(e.ctx, qs["Q1"].ID, e.grp.ID, mtree.DropOnTop)
	require.NoError(t, err)
	assert.True(t, res.CrossParent())
	assert.Equal(t, 2, res.Node.Rank)

	assert.Equal(t, []string{"Qa", "Q1"}, e.groupItems(t))
	assert.Equal(t, []string{"Q2"}, e.formItems(t))

	moved, err := e.svc.Qs.Get(e.ctx, qs["Q1"].ID)
	require.NoError(t, err)
	assert.Nil(t, moved.FormID)
	require.NotNil(t, moved.SectionID)
	assert.Equal(t, e.grp.ID, *moved.SectionID)
}

func TestMoveOutOfSectionAboveFormQuestion(t *testing.T) {
	t.Parallel()
	e, qs := newEnv(t)

	_, err := e.svc.Qs.Move(e.ctx, qs["Qa"].ID, qs["Q2"].ID, mtree.DropAbove)
	require.NoError(t, err)

	assert.Equal(t, []string{"Q1", "Qa", "Q2"}, e.formItems(t))
	assert.Empty(t, e.groupItems(t))

	moved, err := e.svc.Qs.Get(e.ctx, qs["Qa"].ID)
	require.NoError(t, err)
	assert.Nil(t, moved.SectionID)
	require.NotNil(t, moved.FormID)
}

func TestMoveRejectionsLeaveTreeUntouched(t *testing.T) {
	t.Parallel()
	e, qs := newEnv(t)

	tests := []struct {
		name   string
		target idwrap.IDWrap
		d      mtree.DropDirective
		want   error
	}{
		{"self", qs["Q1"].ID, mtree.DropAbove, movable.ErrSelfReference},
		{"missing target", idwrap.NewNow(), mtree.DropBelow, movable.ErrTargetNotFound},
		{"above a section", e.grp.ID, mtree.DropAbove, movable.ErrUnsupportedRelocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Qs.Move(e.ctx, qs["Q1"].ID, tt.target, tt.d)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, []string{"Q1", "Q2"}, e.formItems(t))
			assert.Equal(t, []string{"Qa"}, e.groupItems(t))
		})
	}
}

func TestMoveMany(t *testing.T) {
	t.Parallel()
	e, qs := newEnv(t)

	report := e.svc.Qs.MoveMany(e.ctx,
		[]idwrap.IDWrap{qs["Q1"].ID, qs["Q2"].ID},
		e.grp.ID, mtree.DropOnTop, movable.BatchOptions{})
	require.True(t, report.OK(), "first error: %v", report.FirstError())
	assert.Equal(t, 2, report.Moved())

	assert.Equal(t, []string{"Qa", "Q1", "Q2"}, e.groupItems(t))
	assert.Empty(t, e.formItems(t))
}

func TestDeleteCascadesOptions(t *testing.T) {
	t.Parallel()
	e, qs := newEnv(t)
	opt := mform.AnswerOption{QuestionID: qs["Q1"].ID, Title: "yes"}
	require.NoError(t, e.svc.Os.Create(e.ctx, &opt))

	res, err := e.svc.Qs.Delete(e.ctx, qs["Q1"].ID)
	require.NoError(t, err)
	assert.Equal(t, "Q1", res.Deleted.Title)
	assert.Equal(t, []string{"Q2"}, e.formItems(t))

	_, err = e.svc.Os.Get(e.ctx, opt.ID)
	assert.Error(t, err)

	_, err = e.svc.Qs.Delete(e.ctx, qs["Q1"].ID)
	assert.ErrorIs(t, err, squestion.ErrNoQuestionFound)
}
