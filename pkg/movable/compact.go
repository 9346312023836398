package movable

import (
	"context"
	"errors"
	"fmt"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

// AppendTx inserts node at the tail of its scope. The parent must exist and
// be of a kind that accepts node. A zero id is replaced with a fresh one.
func AppendTx(ctx context.Context, repo Repository, node mtree.Node) (mtree.Node, error) {
	if node.ID.IsZero() {
		node.ID = idwrap.NewNow()
	}
	scope, err := node.Scope()
	if err != nil {
		return mtree.Node{}, err
	}

	if _, err := repo.GetNode(ctx, node.ID); err == nil {
		return mtree.Node{}, fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
	} else if !errors.Is(err, ErrNodeNotFound) {
		return mtree.Node{}, err
	}

	nav := NewNavigator(repo)
	if _, err := nav.ParentOf(ctx, node); err != nil {
		if errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrKindMismatch) {
			return mtree.Node{}, fmt.Errorf("%w: %v", ErrParentNotFound, err)
		}
		return mtree.Node{}, err
	}

	set, err := LoadSiblingSet(ctx, repo, scope)
	if err != nil {
		return mtree.Node{}, err
	}
	appended, err := set.Append(node)
	if err != nil {
		return mtree.Node{}, err
	}
	if err := repo.InsertNode(ctx, appended); err != nil {
		return mtree.Node{}, fmt.Errorf("insert %s %s: %w", appended.Kind, appended.ID, err)
	}
	return appended, nil
}

// DeleteTx removes the node and compacts the siblings it leaves behind.
func DeleteTx(ctx context.Context, repo Repository, id idwrap.IDWrap, kind mtree.Kind) (CompactionResult, error) {
	node, err := NewNavigator(repo).Node(ctx, id, kind)
	if err != nil {
		return CompactionResult{}, err
	}
	scope, err := node.Scope()
	if err != nil {
		return CompactionResult{}, err
	}
	set, err := LoadSiblingSet(ctx, repo, scope)
	if err != nil {
		return CompactionResult{}, err
	}

	if err := repo.DeleteNode(ctx, id); err != nil {
		return CompactionResult{}, fmt.Errorf("delete %s %s: %w", node.Kind, id, err)
	}

	changed := set.RemoveAndCompact(id)
	for _, n := range changed {
		if err := repo.UpdatePlacement(ctx, n); err != nil {
			return CompactionResult{}, fmt.Errorf("compact %s %s: %w", n.Kind, n.ID, err)
		}
	}
	return CompactionResult{Deleted: node, Scope: scope, Updated: changed}, nil
}
