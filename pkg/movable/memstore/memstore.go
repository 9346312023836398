// Package memstore is an in-memory movable.Store. Each transaction works on
// a private snapshot and publishes the rows it wrote on commit, so two
// transactions that are not serialized by the engine can still lose updates
// the way a real database under read-committed would.
package memstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpCommit Op = "commit"
)

// FaultFunc is consulted before every write; a non-nil error fails the write.
type FaultFunc func(op Op, node mtree.Node) error

type Store struct {
	mu      sync.RWMutex
	nodes   map[idwrap.IDWrap]mtree.Node
	fault   FaultFunc
	commits int
}

var _ movable.Store[*Tx] = (*Store)(nil)

func New() *Store {
	return &Store{nodes: make(map[idwrap.IDWrap]mtree.Node)}
}

// Put stores nodes as given, bypassing rank maintenance. Tests use it to
// seed fixtures, including broken ones.
func (s *Store) Put(nodes ...mtree.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		s.nodes[n.ID] = n
	}
}

// Get reads a committed node.
func (s *Store) Get(id idwrap.IDWrap) (mtree.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok
}

// Len counts committed nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Children returns the committed members of scope, ordered by rank.
func (s *Store) Children(scope mtree.Scope) []mtree.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return movable.NewSiblingSet(scope, children(s.nodes, scope)).List()
}

// Scopes lists every non-empty committed scope.
func (s *Store) Scopes() []mtree.Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[mtree.Scope]struct{})
	var out []mtree.Scope
	for _, n := range s.nodes {
		scope, err := n.Scope()
		if err != nil {
			continue
		}
		if _, ok := seen[scope]; !ok {
			seen[scope] = struct{}{}
			out = append(out, scope)
		}
	}
	return out
}

// Commits counts successful commits.
func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

// SetFault installs f; nil clears it.
func (s *Store) SetFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

func (s *Store) BeginTx(ctx context.Context) (*Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := make(map[idwrap.IDWrap]mtree.Node, len(s.nodes))
	for id, n := range s.nodes {
		view[id] = n
	}
	return &Tx{
		store: s,
		view:  view,
		dirty: make(map[idwrap.IDWrap]struct{}),
		fault: s.fault,
	}, nil
}

type Tx struct {
	store *Store
	view  map[idwrap.IDWrap]mtree.Node
	dirty map[idwrap.IDWrap]struct{}
	fault FaultFunc
	done  bool
}

var _ movable.Tx = (*Tx)(nil)

func (tx *Tx) GetNode(ctx context.Context, id idwrap.IDWrap) (mtree.Node, error) {
	if err := tx.check(ctx); err != nil {
		return mtree.Node{}, err
	}
	n, ok := tx.view[id]
	if !ok {
		return mtree.Node{}, fmt.Errorf("%w: %s", movable.ErrNodeNotFound, id)
	}
	return n, nil
}

func (tx *Tx) ListChildren(ctx context.Context, scope mtree.Scope) ([]mtree.Node, error) {
	if err := tx.check(ctx); err != nil {
		return nil, err
	}
	return children(tx.view, scope), nil
}

func (tx *Tx) UpdatePlacement(ctx context.Context, node mtree.Node) error {
	if err := tx.write(ctx, OpUpdate, node); err != nil {
		return err
	}
	current, ok := tx.view[node.ID]
	if !ok {
		return fmt.Errorf("%w: %s", movable.ErrNodeNotFound, node.ID)
	}
	current.Rank = node.Rank
	current.ContainerID = node.ContainerID
	current.GroupID = node.GroupID
	current.ItemID = node.ItemID
	tx.view[node.ID] = current
	tx.dirty[node.ID] = struct{}{}
	return nil
}

func (tx *Tx) InsertNode(ctx context.Context, node mtree.Node) error {
	if err := tx.write(ctx, OpInsert, node); err != nil {
		return err
	}
	if _, ok := tx.view[node.ID]; ok {
		return fmt.Errorf("%w: %s", movable.ErrDuplicateNode, node.ID)
	}
	tx.view[node.ID] = node
	tx.dirty[node.ID] = struct{}{}
	return nil
}

// DeleteNode removes the node and everything it owns.
func (tx *Tx) DeleteNode(ctx context.Context, id idwrap.IDWrap) error {
	node, ok := tx.view[id]
	if !ok {
		return fmt.Errorf("%w: %s", movable.ErrNodeNotFound, id)
	}
	if err := tx.write(ctx, OpDelete, node); err != nil {
		return err
	}
	tx.cascade(node)
	return nil
}

func (tx *Tx) cascade(node mtree.Node) {
	delete(tx.view, node.ID)
	tx.dirty[node.ID] = struct{}{}
	for _, kind := range movable.ChildKinds(node.Kind) {
		for _, child := range children(tx.view, mtree.Scope{Parent: node.Ref(), Kind: kind}) {
			tx.cascade(child)
		}
	}
}

func (tx *Tx) Commit() error {
	if tx.done {
		return sql.ErrTxDone
	}
	tx.done = true
	if tx.fault != nil {
		if err := tx.fault(OpCommit, mtree.Node{}); err != nil {
			return err
		}
	}

	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range tx.dirty {
		if n, ok := tx.view[id]; ok {
			s.nodes[id] = n
		} else {
			delete(s.nodes, id)
		}
	}
	s.commits++
	return nil
}

func (tx *Tx) Rollback() error {
	if tx.done {
		return sql.ErrTxDone
	}
	tx.done = true
	return nil
}

func (tx *Tx) check(ctx context.Context) error {
	if tx.done {
		return sql.ErrTxDone
	}
	return ctx.Err()
}

func (tx *Tx) write(ctx context.Context, op Op, node mtree.Node) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	if tx.fault != nil {
		return tx.fault(op, node)
	}
	return nil
}

// children matches on the raw parent column, the way a SQL query would, so a
// question with both parents set shows up in both scopes.
func children(nodes map[idwrap.IDWrap]mtree.Node, scope mtree.Scope) []mtree.Node {
	var out []mtree.Node
	for _, n := range nodes {
		if n.Kind != scope.Kind {
			continue
		}
		if parentColumnMatches(n, scope.Parent) {
			out = append(out, n)
		}
	}
	return out
}

func parentColumnMatches(n mtree.Node, parent mtree.Ref) bool {
	var col *idwrap.IDWrap
	switch parent.Kind {
	case mtree.KindUnspecified:
		return n.Kind == mtree.KindContainer
	case mtree.KindContainer:
		col = n.ContainerID
	case mtree.KindGroup:
		col = n.GroupID
	case mtree.KindItem:
		col = n.ItemID
	}
	return col != nil && col.Compare(parent.ID) == 0
}
