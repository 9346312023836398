package sansweroption

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

var ErrNoAnswerOptionFound = errors.New("answer option not found")

type AnswerOptionService struct {
	queries *stree.Queries
	engine  *stree.Engine
	logger  *slog.Logger
}

func New(queries *stree.Queries, engine *stree.Engine, logger *slog.Logger) AnswerOptionService {
	if logger == nil {
		logger = slog.Default()
	}
	return AnswerOptionService{queries: queries, engine: engine, logger: logger}
}

func (s AnswerOptionService) TX(tx *sql.Tx) AnswerOptionService {
	return AnswerOptionService{queries: s.queries.WithTx(tx), engine: s.engine, logger: s.logger}
}

func (s AnswerOptionService) Get(ctx context.Context, id idwrap.IDWrap) (*mform.AnswerOption, error) {
	option, err := s.queries.GetAnswerOption(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoAnswerOptionFound
		}
		return nil, err
	}
	return &option, nil
}

func (s AnswerOptionService) ListByQuestion(ctx context.Context, questionID idwrap.IDWrap) ([]mform.AnswerOption, error) {
	options, err := s.queries.ListAnswerOptionsByQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if options == nil {
		return []mform.AnswerOption{}, nil
	}
	return options, nil
}

func (s AnswerOptionService) Create(ctx context.Context, option *mform.AnswerOption) error {
	created, err := stree.Insert(ctx, s.engine, option.Node(), func(ctx context.Context, q *stree.Queries, n mtree.Node) error {
		_, err := q.UpdateAnswerOptionDetails(ctx, mform.AnswerOption{
			ID:    n.ID,
			Title: option.Title,
			Label: option.Label,
			Value: option.Value,
		})
		return err
	})
	if err != nil {
		return err
	}
	option.ID = created.ID
	option.Rank = created.Rank
	s.logger.InfoContext(ctx, "answer option created",
		"answer_option_id", option.ID.String(),
		"question_id", option.QuestionID.String(),
		"rank", option.Rank,
	)
	return nil
}

func (s AnswerOptionService) UpdateDetails(ctx context.Context, option mform.AnswerOption) error {
	n, err := s.queries.UpdateAnswerOptionDetails(ctx, option)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoAnswerOptionFound
	}
	return nil
}

// Move drops the option above or below another option, or on top of a
// question to append it there.
func (s AnswerOptionService) Move(ctx context.Context, id, targetID idwrap.IDWrap, d mtree.DropDirective) (movable.RelocationResult, error) {
	return s.engine.Relocate(ctx, id, mtree.KindOption, targetID, d)
}

func (s AnswerOptionService) Delete(ctx context.Context, id idwrap.IDWrap) (movable.CompactionResult, error) {
	res, err := s.engine.DeleteAndCompact(ctx, id, mtree.KindOption)
	if errors.Is(err, movable.ErrNodeNotFound) {
		return res, fmt.Errorf("%w: %w", ErrNoAnswerOptionFound, err)
	}
	return res, err
}
