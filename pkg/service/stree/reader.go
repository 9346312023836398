package stree

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
)

// TreeNode is a ranked, nested view of the stored tree.
type TreeNode struct {
	ID       idwrap.IDWrap `json:"id" yaml:"id"`
	Kind     string        `json:"kind" yaml:"kind"`
	Title    string        `json:"title" yaml:"title"`
	Rank     int           `json:"rank" yaml:"rank"`
	Children []TreeNode    `json:"children,omitempty" yaml:"children,omitempty"`
}

type Reader struct {
	repo   *Repo
	logger *slog.Logger
}

func NewReader(db *sql.DB, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{repo: NewRepo(db), logger: logger}
}

func NewReaderFromQueries(queries *Queries, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{repo: &Repo{q: queries}, logger: logger}
}

// Tree returns every form with its descendants. Sections come before the
// questions placed directly on the form.
func (r *Reader) Tree(ctx context.Context) ([]TreeNode, error) {
	return r.children(ctx, mtree.Root)
}

// Subtree returns id and its descendants.
func (r *Reader) Subtree(ctx context.Context, id idwrap.IDWrap) (TreeNode, error) {
	node, err := r.repo.GetNode(ctx, id)
	if err != nil {
		if errors.Is(err, movable.ErrNodeNotFound) {
			r.logger.DebugContext(ctx, "node not found", "node_id", id.String())
		}
		return TreeNode{}, err
	}
	children, err := r.children(ctx, node.Ref())
	if err != nil {
		return TreeNode{}, err
	}
	return TreeNode{ID: node.ID, Kind: node.Kind.String(), Title: node.Title, Rank: node.Rank, Children: children}, nil
}

func (r *Reader) children(ctx context.Context, parent mtree.Ref) ([]TreeNode, error) {
	var out []TreeNode
	for _, kind := range movable.ChildKinds(parent.Kind) {
		set, err := movable.LoadSiblingSet(ctx, r.repo, mtree.Scope{Parent: parent, Kind: kind})
		if err != nil {
			return nil, err
		}
		for _, n := range set.List() {
			children, err := r.children(ctx, n.Ref())
			if err != nil {
				return nil, err
			}
			out = append(out, TreeNode{ID: n.ID, Kind: n.Kind.String(), Title: n.Title, Rank: n.Rank, Children: children})
		}
	}
	return out, nil
}

// Nodes flattens the whole tree in display order.
func (r *Reader) Nodes(ctx context.Context) ([]mtree.Node, error) {
	var out []mtree.Node
	err := r.walk(ctx, mtree.Root, func(_ mtree.Scope, members []mtree.Node) {
		out = append(out, members...)
	})
	return out, err
}

// Scopes lists every scope of the tree, empty ones included.
func (r *Reader) Scopes(ctx context.Context) ([]mtree.Scope, error) {
	var out []mtree.Scope
	err := r.walk(ctx, mtree.Root, func(scope mtree.Scope, _ []mtree.Node) {
		out = append(out, scope)
	})
	return out, err
}

func (r *Reader) walk(ctx context.Context, parent mtree.Ref, visit func(mtree.Scope, []mtree.Node)) error {
	for _, kind := range movable.ChildKinds(parent.Kind) {
		scope := mtree.Scope{Parent: parent, Kind: kind}
		set, err := movable.LoadSiblingSet(ctx, r.repo, scope)
		if err != nil {
			return err
		}
		members := set.List()
		visit(scope, members)
		for _, n := range members {
			if err := r.walk(ctx, n.Ref(), visit); err != nil {
				return err
			}
		}
	}
	return nil
}
