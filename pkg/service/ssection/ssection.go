package ssection

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

var ErrNoSectionFound = errors.New("section not found")

type SectionService struct {
	queries *stree.Queries
	engine  *stree.Engine
	logger  *slog.Logger
}

func New(queries *stree.Queries, engine *stree.Engine, logger *slog.Logger) SectionService {
	if logger == nil {
		logger = slog.Default()
	}
	return SectionService{queries: queries, engine: engine, logger: logger}
}

func (s SectionService) TX(tx *sql.Tx) SectionService {
	return SectionService{queries: s.queries.WithTx(tx), engine: s.engine, logger: s.logger}
}

func (s SectionService) Get(ctx context.Context, id idwrap.IDWrap) (*mform.Section, error) {
	section, err := s.queries.GetSection(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSectionFound
		}
		return nil, err
	}
	return &section, nil
}

func (s SectionService) ListByForm(ctx context.Context, formID idwrap.IDWrap) ([]mform.Section, error) {
	sections, err := s.queries.ListSectionsByForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if sections == nil {
		return []mform.Section{}, nil
	}
	return sections, nil
}

// Create appends the section as the last one of its form.
func (s SectionService) Create(ctx context.Context, section *mform.Section) error {
	created, err := stree.Insert(ctx, s.engine, section.Node(), func(ctx context.Context, q *stree.Queries, n mtree.Node) error {
		_, err := q.UpdateSectionDetails(ctx, mform.Section{ID: n.ID, Title: section.Title, Description: section.Description})
		return err
	})
	if err != nil {
		return err
	}
	section.ID = created.ID
	section.Rank = created.Rank
	s.logger.InfoContext(ctx, "section created",
		"section_id", section.ID.String(),
		"form_id", section.FormID.String(),
		"rank", section.Rank,
	)
	return nil
}

func (s SectionService) UpdateDetails(ctx context.Context, section mform.Section) error {
	n, err := s.queries.UpdateSectionDetails(ctx, section)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoSectionFound
	}
	return nil
}

// Move drops the section above or below another section, possibly in
// another form, or on top of a form to append it there.
func (s SectionService) Move(ctx context.Context, id, targetID idwrap.IDWrap, d mtree.DropDirective) (movable.RelocationResult, error) {
	return s.engine.Relocate(ctx, id, mtree.KindGroup, targetID, d)
}

func (s SectionService) Delete(ctx context.Context, id idwrap.IDWrap) (movable.CompactionResult, error) {
	res, err := s.engine.DeleteAndCompact(ctx, id, mtree.KindGroup)
	if errors.Is(err, movable.ErrNodeNotFound) {
		return res, fmt.Errorf("%w: %w", ErrNoSectionFound, err)
	}
	return res, err
}
