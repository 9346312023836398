package stree

import (
	"context"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
)

// Engine is the ordering engine over the SQLite store.
type Engine = movable.Engine[*Tx]

func NewEngine(store *Store, opts ...movable.Option) *Engine {
	return movable.NewEngine[*Tx](store, opts...)
}

// Insert appends node to its scope and then calls fill, in the same
// transaction, so the adapter can write the detail columns of the new row.
func Insert(ctx context.Context, engine *Engine, node mtree.Node, fill func(ctx context.Context, q *Queries, created mtree.Node) error) (mtree.Node, error) {
	scope, err := node.Scope()
	if err != nil {
		return mtree.Node{}, err
	}

	var created mtree.Node
	err = engine.Within(ctx, []mtree.Scope{scope}, func(ctx context.Context, tx *Tx) error {
		n, err := movable.AppendTx(ctx, tx, node)
		if err != nil {
			return err
		}
		created = n
		if fill == nil {
			return nil
		}
		return fill(ctx, tx.Queries(), n)
	})
	if err != nil {
		return mtree.Node{}, err
	}
	return created, nil
}
