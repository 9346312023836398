package movable

import (
	"context"
	"fmt"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

// RankViolation describes one scope whose ranks are not 1..n.
type RankViolation struct {
	Scope mtree.Scope
	// Ranks as stored, ordered by rank then id.
	Ranks []int
}

func (v RankViolation) Error() string {
	return fmt.Sprintf("%s: ranks %v are not 1..%d", v.Scope, v.Ranks, len(v.Ranks))
}

// CheckRanks verifies that the members of a scope hold exactly 1..n.
func CheckRanks(set *SiblingSet) error {
	members := set.List()
	ok := true
	ranks := make([]int, len(members))
	for i, m := range members {
		ranks[i] = m.Rank
		if m.Rank != i+1 {
			ok = false
		}
	}
	if ok {
		return nil
	}
	v := RankViolation{Scope: set.Scope(), Ranks: ranks}
	return fmt.Errorf("%w: %s", ErrRankIntegrity, v.Error())
}

// CheckScope loads scope through repo and runs CheckRanks on it. It also
// rejects members whose parent columns break the one-parent rule.
func CheckScope(ctx context.Context, repo Repository, scope mtree.Scope) error {
	set, err := LoadSiblingSet(ctx, repo, scope)
	if err != nil {
		return err
	}
	for _, m := range set.List() {
		if _, err := m.Parent(); err != nil {
			return err
		}
	}
	return CheckRanks(set)
}
