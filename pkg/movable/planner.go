package movable

import (
	"context"
	"errors"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

// Plan is a validated relocation, resolved against the state read inside
// the transaction that will apply it.
type Plan struct {
	Node      mtree.Node
	Target    mtree.Node
	Directive mtree.DropDirective

	// Source is the node's current scope, node included.
	Source *SiblingSet
	// Destination is the scope the node lands in, node excluded.
	Destination *SiblingSet
	// Position is the 0-based slot in Destination.
	Position int
}

func (p Plan) CrossParent() bool {
	return p.Source.Scope() != p.Destination.Scope()
}

// Scopes lists the distinct scopes the plan rewrites.
func (p Plan) Scopes() []mtree.Scope {
	if !p.CrossParent() {
		return []mtree.Scope{p.Destination.Scope()}
	}
	return []mtree.Scope{p.Source.Scope(), p.Destination.Scope()}
}

// PlanRelocation turns a drop request into a Plan. It only reads; any error
// leaves storage untouched.
func PlanRelocation(ctx context.Context, repo Repository, nodeID idwrap.IDWrap, kind mtree.Kind, targetID idwrap.IDWrap, d mtree.DropDirective) (Plan, error) {
	if nodeID.Compare(targetID) == 0 {
		return Plan{}, ErrSelfReference
	}

	nav := NewNavigator(repo)
	node, err := nav.Node(ctx, nodeID, kind)
	if err != nil {
		return Plan{}, err
	}

	target, err := repo.GetNode(ctx, targetID)
	if err != nil {
		if errors.Is(err, ErrNodeNotFound) {
			return Plan{}, &TargetNotFoundError{TargetID: targetID}
		}
		return Plan{}, err
	}

	if err := ValidateRelocation(node.Kind, target.Kind, d); err != nil {
		return Plan{}, err
	}

	sourceParent, err := nav.ParentOf(ctx, node)
	if err != nil {
		return Plan{}, err
	}

	var destParent mtree.Ref
	switch d {
	case mtree.DropAbove, mtree.DropBelow:
		destParent, err = nav.ParentOf(ctx, target)
		if err != nil {
			if errors.Is(err, ErrParentNotFound) {
				return Plan{}, &TargetNotFoundError{TargetID: targetID}
			}
			return Plan{}, err
		}
	default:
		destParent = target.Ref()
	}

	destFull, err := nav.Children(ctx, destParent, node.Kind)
	if err != nil {
		return Plan{}, err
	}
	dest := destFull.Without(node.ID)

	position := dest.Len()
	if d != mtree.DropOnTop {
		idx := dest.IndexOf(target.ID)
		if idx < 0 {
			scope := dest.Scope()
			return Plan{}, &TargetNotFoundError{TargetID: targetID, Scope: &scope}
		}
		position = idx
		if d == mtree.DropBelow {
			position = idx + 1
		}
	}

	source := destFull
	if !sourceParent.Equal(destParent) {
		source, err = nav.Children(ctx, sourceParent, node.Kind)
		if err != nil {
			return Plan{}, err
		}
	}

	return Plan{
		Node:        node,
		Target:      target,
		Directive:   d,
		Source:      source,
		Destination: dest,
		Position:    position,
	}, nil
}
