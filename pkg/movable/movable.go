// Package movable keeps sibling ranks dense. Every (parent, kind) scope of the
// form tree holds ranks 1..n, and the engine rewrites them atomically when a
// node is inserted, deleted or dragged to a new place.
package movable

import (
	"context"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

// Repository is the persistence the engine needs. Implementations are bound
// to one transaction.
type Repository interface {
	// GetNode returns ErrNodeNotFound when no node of any kind has id.
	GetNode(ctx context.Context, id idwrap.IDWrap) (mtree.Node, error)

	// ListChildren returns the members of scope. Order is not required; the
	// engine sorts by rank.
	ListChildren(ctx context.Context, scope mtree.Scope) ([]mtree.Node, error)

	// UpdatePlacement writes rank and parent columns of an existing node.
	UpdatePlacement(ctx context.Context, node mtree.Node) error

	InsertNode(ctx context.Context, node mtree.Node) error

	// DeleteNode removes the node. Owned children go with it; that cascade is
	// the store's business.
	DeleteNode(ctx context.Context, id idwrap.IDWrap) error
}

// Tx is a Repository inside an open transaction.
type Tx interface {
	Repository
	Commit() error
	Rollback() error
}

// Store opens transactions of a concrete type so callers composing larger
// units of work keep access to their store-specific writers.
type Store[T Tx] interface {
	BeginTx(ctx context.Context) (T, error)
}

// RelocationResult reports a committed relocation.
type RelocationResult struct {
	Node        mtree.Node
	Source      mtree.Scope
	Destination mtree.Scope
	// Updated holds every row whose rank or parent changed, the moved node included.
	Updated []mtree.Node
}

// CrossParent reports whether the node changed parent.
func (r RelocationResult) CrossParent() bool {
	return r.Source != r.Destination
}

// CompactionResult reports a committed delete.
type CompactionResult struct {
	Deleted mtree.Node
	Scope   mtree.Scope
	Updated []mtree.Node
}
