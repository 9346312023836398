package movable

import (
	"context"
	"fmt"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

// ApplyPlan writes the ranks a plan implies: the destination scope gets the
// node at plan.Position, and on a cross-parent move the source scope is
// compacted. Run it inside the transaction the plan was read in; on error the
// caller must roll back.
func ApplyPlan(ctx context.Context, repo Repository, plan Plan) (RelocationResult, error) {
	changed, err := plan.Destination.InsertAt(plan.Node, plan.Position)
	if err != nil {
		return RelocationResult{}, err
	}
	if plan.CrossParent() {
		changed = append(changed, plan.Source.RemoveAndCompact(plan.Node.ID)...)
	}

	result := RelocationResult{
		Source:      plan.Source.Scope(),
		Destination: plan.Destination.Scope(),
	}
	for _, n := range changed {
		if n.ID.Compare(plan.Node.ID) == 0 {
			result.Node = n
			if samePlacement(n, plan.Node) {
				continue
			}
		}
		if err := repo.UpdatePlacement(ctx, n); err != nil {
			return RelocationResult{}, fmt.Errorf("update placement of %s %s: %w", n.Kind, n.ID, err)
		}
		result.Updated = append(result.Updated, n)
	}
	return result, nil
}

func samePlacement(a, b mtree.Node) bool {
	return a.Rank == b.Rank &&
		idwrap.Equal(a.ContainerID, b.ContainerID) &&
		idwrap.Equal(a.GroupID, b.GroupID) &&
		idwrap.Equal(a.ItemID, b.ItemID)
}
