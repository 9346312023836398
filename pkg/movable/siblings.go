package movable

import (
	"context"
	"fmt"
	"sort"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

// SiblingSet is the ranked sequence of one scope. Operations renumber members
// in memory and return the nodes whose rank or parent changed; nothing is
// written until the caller persists them.
type SiblingSet struct {
	scope   mtree.Scope
	members []mtree.Node
}

// NewSiblingSet orders members by rank, falling back to id so that damaged
// data with duplicate ranks still yields a deterministic order.
func NewSiblingSet(scope mtree.Scope, members []mtree.Node) *SiblingSet {
	sorted := make([]mtree.Node, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rank != sorted[j].Rank {
			return sorted[i].Rank < sorted[j].Rank
		}
		return sorted[i].ID.Compare(sorted[j].ID) < 0
	})
	return &SiblingSet{scope: scope, members: sorted}
}

// LoadSiblingSet reads scope through repo.
func LoadSiblingSet(ctx context.Context, repo Repository, scope mtree.Scope) (*SiblingSet, error) {
	members, err := repo.ListChildren(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", scope, err)
	}
	return NewSiblingSet(scope, members), nil
}

func (s *SiblingSet) Scope() mtree.Scope {
	return s.scope
}

// List returns the members by ascending rank.
func (s *SiblingSet) List() []mtree.Node {
	out := make([]mtree.Node, len(s.members))
	copy(out, s.members)
	return out
}

func (s *SiblingSet) Len() int {
	return len(s.members)
}

// IndexOf returns the 0-based index of id, or -1.
func (s *SiblingSet) IndexOf(id idwrap.IDWrap) int {
	for i, m := range s.members {
		if m.ID.Compare(id) == 0 {
			return i
		}
	}
	return -1
}

func (s *SiblingSet) Contains(id idwrap.IDWrap) bool {
	return s.IndexOf(id) >= 0
}

// Without returns a copy of the set minus id. Ranks are left untouched.
func (s *SiblingSet) Without(id idwrap.IDWrap) *SiblingSet {
	rest := make([]mtree.Node, 0, len(s.members))
	for _, m := range s.members {
		if m.ID.Compare(id) != 0 {
			rest = append(rest, m)
		}
	}
	return &SiblingSet{scope: s.scope, members: rest}
}

// Append puts node at the tail with rank count+1. No other member moves.
func (s *SiblingSet) Append(node mtree.Node) (mtree.Node, error) {
	if s.Contains(node.ID) {
		return mtree.Node{}, fmt.Errorf("%w: %s in %s", ErrDuplicateNode, node.ID, s.scope)
	}
	node = s.attach(node)
	node.Rank = len(s.members) + 1
	s.members = append(s.members, node)
	return node, nil
}

// RemoveAndCompact drops id and renumbers the rest to 1..n-1 in their previous
// relative order. Removing an absent id only compacts.
func (s *SiblingSet) RemoveAndCompact(id idwrap.IDWrap) []mtree.Node {
	rest := s.Without(id).members
	changed := make([]mtree.Node, 0, len(rest))
	for i := range rest {
		if rest[i].Rank != i+1 {
			rest[i].Rank = i + 1
			changed = append(changed, rest[i])
		}
	}
	s.members = rest
	return changed
}

// InsertAt places node at the 0-based position, with members before it ranked
// index+1 and members after it index+2. The set must not already hold node.
func (s *SiblingSet) InsertAt(node mtree.Node, position int) ([]mtree.Node, error) {
	if s.Contains(node.ID) {
		return nil, fmt.Errorf("%w: %s in %s", ErrDuplicateNode, node.ID, s.scope)
	}
	if position < 0 || position > len(s.members) {
		return nil, fmt.Errorf("%w: %d not in 0..%d", ErrPositionOutOfRange, position, len(s.members))
	}

	node = s.attach(node)
	node.Rank = position + 1

	next := make([]mtree.Node, 0, len(s.members)+1)
	changed := make([]mtree.Node, 0, len(s.members)+1)
	for i, m := range s.members {
		want := i + 1
		if i >= position {
			want = i + 2
		}
		if i == position {
			next = append(next, node)
		}
		if m.Rank != want {
			m.Rank = want
			changed = append(changed, m)
		}
		next = append(next, m)
	}
	if position == len(s.members) {
		next = append(next, node)
	}
	changed = append(changed, node)
	s.members = next
	return changed, nil
}

// attach points node at the scope's parent; for the root scope that clears
// every parent column.
func (s *SiblingSet) attach(node mtree.Node) mtree.Node {
	return node.WithParent(s.scope.Parent)
}
