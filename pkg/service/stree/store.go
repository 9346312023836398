// Package stree persists the form tree in SQLite and implements the
// persistence contract of the ordering engine on top of it.
package stree

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mform"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
)

var ErrUnknownScope = errors.New("no table holds this scope")

// Repo answers the engine's reads and writes through any DBTX.
type Repo struct {
	q *Queries
}

var _ movable.Repository = (*Repo)(nil)

func NewRepo(db DBTX) *Repo {
	return &Repo{q: New(db)}
}

func (r *Repo) Queries() *Queries {
	return r.q
}

func (r *Repo) GetNode(ctx context.Context, id idwrap.IDWrap) (mtree.Node, error) {
	kind, err := r.q.GetNodeKind(ctx, id)
	if err != nil {
		return mtree.Node{}, notFound(err, id)
	}

	var node mtree.Node
	switch kind {
	case mtree.KindContainer:
		var f mform.Form
		f, err = r.q.GetForm(ctx, id)
		node = f.Node()
	case mtree.KindGroup:
		var s mform.Section
		s, err = r.q.GetSection(ctx, id)
		node = s.Node()
	case mtree.KindItem:
		var q mform.Question
		q, err = r.q.GetQuestion(ctx, id)
		node = q.Node()
	case mtree.KindOption:
		var a mform.AnswerOption
		a, err = r.q.GetAnswerOption(ctx, id)
		node = a.Node()
	default:
		return mtree.Node{}, fmt.Errorf("%w: %d", mtree.ErrUnknownKind, kind)
	}
	if err != nil {
		return mtree.Node{}, notFound(err, id)
	}
	return node, nil
}

func (r *Repo) ListChildren(ctx context.Context, scope mtree.Scope) ([]mtree.Node, error) {
	parent := scope.Parent.ID
	switch {
	case scope.Parent.Kind == mtree.KindUnspecified && scope.Kind == mtree.KindContainer:
		return project(r.q.ListForms(ctx))
	case scope.Parent.Kind == mtree.KindContainer && scope.Kind == mtree.KindGroup:
		return project(r.q.ListSectionsByForm(ctx, parent))
	case scope.Parent.Kind == mtree.KindContainer && scope.Kind == mtree.KindItem:
		return project(r.q.ListQuestionsByForm(ctx, parent))
	case scope.Parent.Kind == mtree.KindGroup && scope.Kind == mtree.KindItem:
		return project(r.q.ListQuestionsBySection(ctx, parent))
	case scope.Parent.Kind == mtree.KindItem && scope.Kind == mtree.KindOption:
		return project(r.q.ListAnswerOptionsByQuestion(ctx, parent))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}
}

func (r *Repo) UpdatePlacement(ctx context.Context, node mtree.Node) error {
	parent, err := node.Parent()
	if err != nil {
		return err
	}

	var n int64
	switch node.Kind {
	case mtree.KindContainer:
		n, err = r.q.UpdateFormOrder(ctx, node.ID, node.Rank)
	case mtree.KindGroup:
		n, err = r.q.UpdateSectionPlacement(ctx, node.ID, parent.ID, node.Rank)
	case mtree.KindItem:
		n, err = r.q.UpdateQuestionPlacement(ctx, node.ID, node.ContainerID, node.GroupID, node.Rank)
	case mtree.KindOption:
		n, err = r.q.UpdateAnswerOptionPlacement(ctx, node.ID, parent.ID, node.Rank)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", movable.ErrNodeNotFound, node.ID)
	}
	return nil
}

// InsertNode writes the ordering columns and the title. Detail columns get
// their defaults; adapters fill them in the same transaction.
func (r *Repo) InsertNode(ctx context.Context, node mtree.Node) error {
	parent, err := node.Parent()
	if err != nil {
		return err
	}
	switch node.Kind {
	case mtree.KindContainer:
		return r.q.CreateForm(ctx, mform.Form{ID: node.ID, Title: node.Title, Rank: node.Rank})
	case mtree.KindGroup:
		return r.q.CreateSection(ctx, mform.Section{ID: node.ID, FormID: parent.ID, Title: node.Title, Rank: node.Rank})
	case mtree.KindItem:
		return r.q.CreateQuestion(ctx, mform.Question{
			ID:        node.ID,
			FormID:    node.ContainerID,
			SectionID: node.GroupID,
			Title:     node.Title,
			Rank:      node.Rank,
		})
	case mtree.KindOption:
		return r.q.CreateAnswerOption(ctx, mform.AnswerOption{ID: node.ID, QuestionID: parent.ID, Title: node.Title, Rank: node.Rank})
	default:
		return fmt.Errorf("%w: %d", mtree.ErrUnknownKind, node.Kind)
	}
}

// DeleteNode deletes the row; foreign keys cascade to owned rows.
func (r *Repo) DeleteNode(ctx context.Context, id idwrap.IDWrap) error {
	kind, err := r.q.GetNodeKind(ctx, id)
	if err != nil {
		return notFound(err, id)
	}

	var n int64
	switch kind {
	case mtree.KindContainer:
		n, err = r.q.DeleteForm(ctx, id)
	case mtree.KindGroup:
		n, err = r.q.DeleteSection(ctx, id)
	case mtree.KindItem:
		n, err = r.q.DeleteQuestion(ctx, id)
	case mtree.KindOption:
		n, err = r.q.DeleteAnswerOption(ctx, id)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", movable.ErrNodeNotFound, id)
	}
	return nil
}

// Store opens engine transactions on a database handle.
type Store struct {
	db *sql.DB
}

var _ movable.Store[*Tx] = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{Repo: NewRepo(tx), tx: tx}, nil
}

// Tx is a Repo bound to an open transaction. Adapters reach the typed
// queries through Queries to write detail columns in the same unit.
type Tx struct {
	*Repo
	tx *sql.Tx
}

var _ movable.Tx = (*Tx)(nil)

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

func project[T interface{ Node() mtree.Node }](items []T, err error) ([]mtree.Node, error) {
	if err != nil {
		return nil, err
	}
	out := make([]mtree.Node, len(items))
	for i, item := range items {
		out[i] = item.Node()
	}
	return out, nil
}

func notFound(err error, id idwrap.IDWrap) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", movable.ErrNodeNotFound, id)
	}
	return err
}
