package mform

import (
	"errors"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

var ErrQuestionParent = errors.New("question must belong to exactly one of form or section")

type Form struct {
	ID          idwrap.IDWrap
	Title       string
	Description string
	Rank        int
}

func (f Form) Node() mtree.Node {
	return mtree.Node{ID: f.ID, Kind: mtree.KindContainer, Title: f.Title, Rank: f.Rank}
}

type Section struct {
	ID          idwrap.IDWrap
	FormID      idwrap.IDWrap
	Title       string
	Description string
	Rank        int
}

func (s Section) Node() mtree.Node {
	return mtree.Node{
		ID:          s.ID,
		Kind:        mtree.KindGroup,
		Title:       s.Title,
		Rank:        s.Rank,
		ContainerID: idwrap.Ptr(s.FormID),
	}
}

type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeFreeText       QuestionType = "free_text"
	QuestionTypeRange          QuestionType = "range"
)

// Question sits either in a section or directly in a form, never both.
type Question struct {
	ID        idwrap.IDWrap
	FormID    *idwrap.IDWrap
	SectionID *idwrap.IDWrap
	Title     string
	Question  string
	Type      QuestionType
	Rank      int
}

func (q Question) Validate() error {
	if (q.FormID == nil) == (q.SectionID == nil) {
		return ErrQuestionParent
	}
	return nil
}

func (q Question) Node() mtree.Node {
	return mtree.Node{
		ID:          q.ID,
		Kind:        mtree.KindItem,
		Title:       q.Title,
		Rank:        q.Rank,
		ContainerID: q.FormID,
		GroupID:     q.SectionID,
	}
}

type AnswerOption struct {
	ID         idwrap.IDWrap
	QuestionID idwrap.IDWrap
	Title      string
	Label      string
	Value      string
	Rank       int
}

func (a AnswerOption) Node() mtree.Node {
	return mtree.Node{
		ID:     a.ID,
		Kind:   mtree.KindOption,
		Title:  a.Title,
		Rank:   a.Rank,
		ItemID: idwrap.Ptr(a.QuestionID),
	}
}
