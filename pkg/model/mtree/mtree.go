// Package mtree holds the kind-agnostic view of the form tree that the
// ordering engine works on. Forms, sections, questions and answer options are
// projected onto Node before they are ranked.
package mtree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
)

type Kind int8

const (
	KindUnspecified Kind = iota
	// KindContainer is a form, the root of a tree.
	KindContainer
	// KindGroup is a section inside a form.
	KindGroup
	// KindItem is a question, attached to a section or directly to a form.
	KindItem
	// KindOption is an answer option of a question.
	KindOption
)

// Kinds lists every concrete kind from the root down.
var Kinds = []Kind{KindContainer, KindGroup, KindItem, KindOption}

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindGroup:
		return "group"
	case KindItem:
		return "item"
	case KindOption:
		return "option"
	default:
		return "unspecified"
	}
}

var ErrUnknownKind = errors.New("unknown node kind")

// ParseKind accepts both the generic kind names and the form-domain names.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "container", "form":
		return KindContainer, nil
	case "group", "section":
		return KindGroup, nil
	case "item", "question":
		return KindItem, nil
	case "option", "answer_option", "answeroption", "answer":
		return KindOption, nil
	default:
		return KindUnspecified, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Ref points at a parent node. The zero Ref is the tree root, which is the
// parent of every container.
type Ref struct {
	ID   idwrap.IDWrap
	Kind Kind
}

var Root = Ref{}

func (r Ref) IsRoot() bool {
	return r.Kind == KindUnspecified && r.ID.IsZero()
}

func (r Ref) Equal(o Ref) bool {
	return r.Kind == o.Kind && r.ID.Compare(o.ID) == 0
}

func (r Ref) String() string {
	if r.IsRoot() {
		return "root"
	}
	return r.Kind.String() + ":" + r.ID.String()
}

// Scope identifies one ranked sibling sequence: the children of Parent that
// are of kind Kind. A form's sections and a form's direct questions are two
// different scopes.
type Scope struct {
	Parent Ref
	Kind   Kind
}

// Key is a stable text form of the scope, used for lock ordering.
func (s Scope) Key() string {
	return s.Parent.String() + "/" + s.Kind.String()
}

func (s Scope) String() string {
	return s.Key()
}

// Node is the ordering view of a persisted entity. Exactly one parent column
// is set for every kind except containers, which have none.
type Node struct {
	ID    idwrap.IDWrap
	Kind  Kind
	Title string
	Rank  int

	ContainerID *idwrap.IDWrap
	GroupID     *idwrap.IDWrap
	ItemID      *idwrap.IDWrap
}

// Parent resolves the single active parent reference. Items prefer their
// group; an item with both or neither parent set is rejected.
func (n Node) Parent() (Ref, error) {
	switch n.Kind {
	case KindContainer:
		if n.ContainerID != nil || n.GroupID != nil || n.ItemID != nil {
			return Ref{}, &InvalidParentStateError{NodeID: n.ID, Kind: n.Kind, Reason: "container cannot have a parent"}
		}
		return Root, nil
	case KindGroup:
		if n.ContainerID == nil {
			return Ref{}, &InvalidParentStateError{NodeID: n.ID, Kind: n.Kind, Reason: "group has no container"}
		}
		return Ref{ID: *n.ContainerID, Kind: KindContainer}, nil
	case KindItem:
		switch {
		case n.GroupID != nil && n.ContainerID != nil:
			return Ref{}, &InvalidParentStateError{NodeID: n.ID, Kind: n.Kind, Reason: "item has both group and container set"}
		case n.GroupID != nil:
			return Ref{ID: *n.GroupID, Kind: KindGroup}, nil
		case n.ContainerID != nil:
			return Ref{ID: *n.ContainerID, Kind: KindContainer}, nil
		default:
			return Ref{}, &InvalidParentStateError{NodeID: n.ID, Kind: n.Kind, Reason: "item has neither group nor container set"}
		}
	case KindOption:
		if n.ItemID == nil {
			return Ref{}, &InvalidParentStateError{NodeID: n.ID, Kind: n.Kind, Reason: "option has no item"}
		}
		return Ref{ID: *n.ItemID, Kind: KindItem}, nil
	default:
		return Ref{}, fmt.Errorf("%w: %d", ErrUnknownKind, n.Kind)
	}
}

// Scope is the sibling scope the node currently ranks in.
func (n Node) Scope() (Scope, error) {
	parent, err := n.Parent()
	if err != nil {
		return Scope{}, err
	}
	return Scope{Parent: parent, Kind: n.Kind}, nil
}

// WithParent returns a copy of n attached to parent, clearing every other
// parent column so the xor rule for items holds.
func (n Node) WithParent(parent Ref) Node {
	n.ContainerID, n.GroupID, n.ItemID = nil, nil, nil
	switch parent.Kind {
	case KindContainer:
		n.ContainerID = idwrap.Ptr(parent.ID)
	case KindGroup:
		n.GroupID = idwrap.Ptr(parent.ID)
	case KindItem:
		n.ItemID = idwrap.Ptr(parent.ID)
	}
	return n
}

// Ref returns the reference other nodes use to point at n.
func (n Node) Ref() Ref {
	return Ref{ID: n.ID, Kind: n.Kind}
}

// ErrInvalidParentState marks data that breaks the one-parent rule. It is an
// integrity problem, never something to patch silently.
var ErrInvalidParentState = errors.New("invalid parent state")

type InvalidParentStateError struct {
	NodeID idwrap.IDWrap
	Kind   Kind
	Reason string
}

func (e *InvalidParentStateError) Error() string {
	return fmt.Sprintf("invalid parent state for %s %s: %s", e.Kind, e.NodeID, e.Reason)
}

func (e *InvalidParentStateError) Is(target error) bool {
	return target == ErrInvalidParentState
}
