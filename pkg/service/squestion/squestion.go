package squestion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mform"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/service/stree"
)

var ErrNoQuestionFound = errors.New("question not found")

type QuestionService struct {
	queries *stree.Queries
	engine  *stree.Engine
	logger  *slog.Logger
}

func New(queries *stree.Queries, engine *stree.Engine, logger *slog.Logger) QuestionService {
	if logger == nil {
		logger = slog.Default()
	}
	return QuestionService{queries: queries, engine: engine, logger: logger}
}

func (s QuestionService) TX(tx *sql.Tx) QuestionService {
	return QuestionService{queries: s.queries.WithTx(tx), engine: s.engine, logger: s.logger}
}

func (s QuestionService) Get(ctx context.Context, id idwrap.IDWrap) (*mform.Question, error) {
	question, err := s.queries.GetQuestion(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoQuestionFound
		}
		return nil, err
	}
	return &question, nil
}

// ListByForm returns the questions placed directly on the form, not those
// inside its sections.
func (s QuestionService) ListByForm(ctx context.Context, formID idwrap.IDWrap) ([]mform.Question, error) {
	questions, err := s.queries.ListQuestionsByForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		return []mform.Question{}, nil
	}
	return questions, nil
}

func (s QuestionService) ListBySection(ctx context.Context, sectionID idwrap.IDWrap) ([]mform.Question, error) {
	questions, err := s.queries.ListQuestionsBySection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		return []mform.Question{}, nil
	}
	return questions, nil
}

// Create appends the question to its section, or to its form when it has
// no section.
func (s QuestionService) Create(ctx context.Context, question *mform.Question) error {
	if err := question.Validate(); err != nil {
		return err
	}
	if question.Type == "" {
		question.Type = mform.QuestionTypeFreeText
	}
	created, err := stree.Insert(ctx, s.engine, question.Node(), func(ctx context.Context, q *stree.Queries, n mtree.Node) error {
		_, err := q.UpdateQuestionDetails(ctx, mform.Question{
			ID:       n.ID,
			Title:    question.Title,
			Question: question.Question,
			Type:     question.Type,
		})
		return err
	})
	if err != nil {
		return err
	}
	question.ID = created.ID
	question.Rank = created.Rank
	s.logger.InfoContext(ctx, "question created", "question_id", question.ID.String(), "rank", question.Rank)
	return nil
}

// UpdateDetails writes title, text and type. Placement is left alone.
func (s QuestionService) UpdateDetails(ctx context.Context, question mform.Question) error {
	if question.Type == "" {
		question.Type = mform.QuestionTypeFreeText
	}
	n, err := s.queries.UpdateQuestionDetails(ctx, question)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoQuestionFound
	}
	return nil
}

// Move drops the question above or below another question, or on top of a
// section or form to append it there.
func (s QuestionService) Move(ctx context.Context, id, targetID idwrap.IDWrap, d mtree.DropDirective) (movable.RelocationResult, error) {
	return s.engine.Relocate(ctx, id, mtree.KindItem, targetID, d)
}

// MoveMany moves the questions one by one in the order given.
func (s QuestionService) MoveMany(ctx context.Context, ids []idwrap.IDWrap, targetID idwrap.IDWrap, d mtree.DropDirective, opts movable.BatchOptions) movable.BatchReport {
	reqs := make([]movable.RelocateRequest, len(ids))
	for i, id := range ids {
		reqs[i] = movable.RelocateRequest{NodeID: id, Kind: mtree.KindItem, TargetID: targetID, Directive: d}
	}
	return s.engine.RelocateBatch(ctx, reqs, opts)
}

func (s QuestionService) Delete(ctx context.Context, id idwrap.IDWrap) (movable.CompactionResult, error) {
	res, err := s.engine.DeleteAndCompact(ctx, id, mtree.KindItem)
	if errors.Is(err, movable.ErrNodeNotFound) {
		return res, fmt.Errorf("%w: %w", ErrNoQuestionFound, err)
	}
	return res, err
}
