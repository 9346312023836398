package movable

import (
	"context"
	"errors"
	"fmt"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

type relocationRule struct {
	moved     mtree.Kind
	target    mtree.Kind
	directive mtree.DropDirective
}

// relocationGrammar is the complete set of legal drops. Above/below keep the
// node among the target's siblings; on top makes the target the new parent.
var relocationGrammar = map[relocationRule]struct{}{
	{mtree.KindContainer, mtree.KindContainer, mtree.DropAbove}: {},
	{mtree.KindContainer, mtree.KindContainer, mtree.DropBelow}: {},

	{mtree.KindGroup, mtree.KindGroup, mtree.DropAbove}:     {},
	{mtree.KindGroup, mtree.KindGroup, mtree.DropBelow}:     {},
	{mtree.KindGroup, mtree.KindContainer, mtree.DropOnTop}: {},

	{mtree.KindItem, mtree.KindItem, mtree.DropAbove}:      {},
	{mtree.KindItem, mtree.KindItem, mtree.DropBelow}:      {},
	{mtree.KindItem, mtree.KindGroup, mtree.DropOnTop}:     {},
	{mtree.KindItem, mtree.KindContainer, mtree.DropOnTop}: {},

	{mtree.KindOption, mtree.KindOption, mtree.DropAbove}: {},
	{mtree.KindOption, mtree.KindOption, mtree.DropBelow}: {},
	{mtree.KindOption, mtree.KindItem, mtree.DropOnTop}:   {},
}

var parentKinds = map[mtree.Kind][]mtree.Kind{
	mtree.KindContainer: nil,
	mtree.KindGroup:     {mtree.KindContainer},
	mtree.KindItem:      {mtree.KindGroup, mtree.KindContainer},
	mtree.KindOption:    {mtree.KindItem},
}

// CanRelocate reports whether dropping a moved node on target with d is
// allowed at all. UI layers use it to grey out drop zones.
func CanRelocate(moved, target mtree.Kind, d mtree.DropDirective) bool {
	_, ok := relocationGrammar[relocationRule{moved: moved, target: target, directive: d}]
	return ok
}

// ValidateRelocation is CanRelocate with an error for the caller.
func ValidateRelocation(moved, target mtree.Kind, d mtree.DropDirective) error {
	if !CanRelocate(moved, target, d) {
		return &UnsupportedRelocationError{Moved: moved, Target: target, Directive: d}
	}
	return nil
}

// ParentKinds lists the kinds a node of kind k may hang under.
func ParentKinds(k mtree.Kind) []mtree.Kind {
	return parentKinds[k]
}

// ChildKinds lists the kinds that may hang under k, in tree order.
func ChildKinds(k mtree.Kind) []mtree.Kind {
	var out []mtree.Kind
	for _, child := range mtree.Kinds {
		if AcceptsChild(k, child) {
			out = append(out, child)
		}
	}
	return out
}

// AcceptsChild reports whether parent may own children of kind child. The
// root accepts containers only.
func AcceptsChild(parent, child mtree.Kind) bool {
	if parent == mtree.KindUnspecified {
		return child == mtree.KindContainer
	}
	for _, k := range parentKinds[child] {
		if k == parent {
			return true
		}
	}
	return false
}

// Navigator answers structural questions about the stored tree.
type Navigator struct {
	repo Repository
}

func NewNavigator(repo Repository) *Navigator {
	return &Navigator{repo: repo}
}

// Node loads id and, when kind is set, checks it.
func (n *Navigator) Node(ctx context.Context, id idwrap.IDWrap, kind mtree.Kind) (mtree.Node, error) {
	node, err := n.repo.GetNode(ctx, id)
	if err != nil {
		return mtree.Node{}, err
	}
	if kind != mtree.KindUnspecified && node.Kind != kind {
		return mtree.Node{}, &KindMismatchError{NodeID: id, Expected: kind, Actual: node.Kind}
	}
	return node, nil
}

// ParentOf resolves the node's single active parent and confirms it still
// exists. A missing parent row yields ErrParentNotFound.
func (n *Navigator) ParentOf(ctx context.Context, node mtree.Node) (mtree.Ref, error) {
	parent, err := node.Parent()
	if err != nil {
		return mtree.Ref{}, err
	}
	if parent.IsRoot() {
		return parent, nil
	}
	if _, err := n.Node(ctx, parent.ID, parent.Kind); err != nil {
		if errors.Is(err, ErrNodeNotFound) {
			return mtree.Ref{}, fmt.Errorf("%w: %s of %s %s", ErrParentNotFound, parent, node.Kind, node.ID)
		}
		return mtree.Ref{}, err
	}
	return parent, nil
}

// Children loads parent's ranked children of kind.
func (n *Navigator) Children(ctx context.Context, parent mtree.Ref, kind mtree.Kind) (*SiblingSet, error) {
	if !AcceptsChild(parent.Kind, kind) {
		return nil, fmt.Errorf("%w: %s cannot own %s", ErrUnsupportedRelocation, parent.Kind, kind)
	}
	return LoadSiblingSet(ctx, n.repo, mtree.Scope{Parent: parent, Kind: kind})
}

// HasChildren reports whether ref owns any node of any child kind.
func (n *Navigator) HasChildren(ctx context.Context, ref mtree.Ref) (bool, error) {
	for _, kind := range ChildKinds(ref.Kind) {
		set, err := n.Children(ctx, ref, kind)
		if err != nil {
			return false, err
		}
		if set.Len() > 0 {
			return true, nil
		}
	}
	return false, nil
}

// SubtreeScopes lists every scope owned by ref or by any node below it.
func (n *Navigator) SubtreeScopes(ctx context.Context, ref mtree.Ref) ([]mtree.Scope, error) {
	var out []mtree.Scope
	for _, kind := range ChildKinds(ref.Kind) {
		set, err := n.Children(ctx, ref, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, set.Scope())
		for _, child := range set.List() {
			below, err := n.SubtreeScopes(ctx, child.Ref())
			if err != nil {
				return nil, err
			}
			out = append(out, below...)
		}
	}
	return out, nil
}
