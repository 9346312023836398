package mform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

func TestQuestionValidate(t *testing.T) {
	t.Parallel()
	form := idwrap.NewNow()
	section := idwrap.NewNow()

	assert.NoError(t, Question{FormID: &form}.Validate())
	assert.NoError(t, Question{SectionID: &section}.Validate())
	assert.ErrorIs(t, Question{}.Validate(), ErrQuestionParent)
	assert.ErrorIs(t, Question{FormID: &form, SectionID: &section}.Validate(), ErrQuestionParent)
}

func TestNodeProjection(t *testing.T) {
	t.Parallel()
	form := Form{ID: idwrap.NewNow(), Title: "Survey", Rank: 2}
	section := Section{ID: idwrap.NewNow(), FormID: form.ID, Title: "Intro", Rank: 1}
	question := Question{ID: idwrap.NewNow(), SectionID: idwrap.Ptr(section.ID), Title: "Age", Rank: 3}
	option := AnswerOption{ID: idwrap.NewNow(), QuestionID: question.ID, Title: "18-25", Rank: 1}

	parent, err := form.Node().Parent()
	require.NoError(t, err)
	assert.True(t, parent.IsRoot())

	parent, err = section.Node().Parent()
	require.NoError(t, err)
	assert.Equal(t, mtree.Ref{ID: form.ID, Kind: mtree.KindContainer}, parent)

	parent, err = question.Node().Parent()
	require.NoError(t, err)
	assert.Equal(t, mtree.Ref{ID: section.ID, Kind: mtree.KindGroup}, parent)

	n := option.Node()
	assert.Equal(t, mtree.KindOption, n.Kind)
	assert.Equal(t, 1, n.Rank)
	parent, err = n.Parent()
	require.NoError(t, err)
	assert.Equal(t, mtree.Ref{ID: question.ID, Kind: mtree.KindItem}, parent)
}
