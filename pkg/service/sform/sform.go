package sform

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

var ErrNoFormFound = errors.New("form not found")

type FormService struct {
	queries *stree.Queries
	engine  *stree.Engine
	logger  *slog.Logger
}

func New(queries *stree.Queries, engine *stree.Engine, logger *slog.Logger) FormService {
	if logger == nil {
		logger = slog.Default()
	}
	return FormService{queries: queries, engine: engine, logger: logger}
}

func (s FormService) TX(tx *sql.Tx) FormService {
	return FormService{queries: s.queries.WithTx(tx), engine: s.engine, logger: s.logger}
}

func (s FormService) Get(ctx context.Context, id idwrap.IDWrap) (*mform.Form, error) {
	form, err := s.queries.GetForm(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoFormFound
		}
		return nil, err
	}
	return &form, nil
}

// List returns every form in display order.
func (s FormService) List(ctx context.Context) ([]mform.Form, error) {
	forms, err := s.queries.ListForms(ctx)
	if err != nil {
		return nil, err
	}
	if forms == nil {
		return []mform.Form{}, nil
	}
	return forms, nil
}

// Create appends the form after the existing ones. ID is assigned when
// empty; Rank is always assigned.
func (s FormService) Create(ctx context.Context, form *mform.Form) error {
	created, err := stree.Insert(ctx, s.engine, form.Node(), func(ctx context.Context, q *stree.Queries, n mtree.Node) error {
		_, err := q.UpdateFormDetails(ctx, mform.Form{ID: n.ID, Title: form.Title, Description: form.Description})
		return err
	})
	if err != nil {
		return err
	}
	form.ID = created.ID
	form.Rank = created.Rank
	s.logger.InfoContext(ctx, "form created", "form_id", form.ID.String(), "rank", form.Rank)
	return nil
}

// UpdateDetails writes title and description. Rank is left alone.
func (s FormService) UpdateDetails(ctx context.Context, form mform.Form) error {
	n, err := s.queries.UpdateFormDetails(ctx, form)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoFormFound
	}
	return nil
}

// Move places the form above or below another form.
func (s FormService) Move(ctx context.Context, id, targetID idwrap.IDWrap, d mtree.DropDirective) (movable.RelocationResult, error) {
	return s.engine.Relocate(ctx, id, mtree.KindContainer, targetID, d)
}

// Delete removes the form with everything in it and closes the gap among
// the remaining forms.
func (s FormService) Delete(ctx context.Context, id idwrap.IDWrap) (movable.CompactionResult, error) {
	res, err := s.engine.DeleteAndCompact(ctx, id, mtree.KindContainer)
	if errors.Is(err, movable.ErrNodeNotFound) {
		return res, fmt.Errorf("%w: %w", ErrNoFormFound, err)
	}
	return res, err
}
