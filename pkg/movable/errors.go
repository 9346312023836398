package movable

import (
	"errors"
	"fmt"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

var (
	ErrNodeNotFound          = errors.New("node not found")
	ErrTargetNotFound        = errors.New("target not found")
	ErrParentNotFound        = errors.New("parent not found")
	ErrUnsupportedRelocation = errors.New("unsupported relocation")
	ErrKindMismatch          = errors.New("node kind mismatch")
	ErrStaleScope            = errors.New("sibling scope changed while waiting for lock")
	ErrRankIntegrity         = errors.New("rank integrity violated")
	ErrDuplicateNode         = errors.New("node already present in scope")
	ErrPositionOutOfRange    = errors.New("position out of range")

	ErrInvalidParentState = mtree.ErrInvalidParentState

	// ErrSelfReference also matches ErrTargetNotFound: the target is the
	// moved node, which has already left the scope it would be placed in.
	ErrSelfReference error = selfReferenceError{}
)

type selfReferenceError struct{}

func (selfReferenceError) Error() string {
	return "cannot move node relative to itself"
}

func (selfReferenceError) Is(target error) bool {
	return target == ErrTargetNotFound
}

// UnsupportedRelocationError is returned for a (moved, target, directive)
// combination outside the relocation grammar. Retrying the same request
// cannot succeed.
type UnsupportedRelocationError struct {
	Moved     mtree.Kind
	Target    mtree.Kind
	Directive mtree.DropDirective
}

func (e *UnsupportedRelocationError) Error() string {
	return fmt.Sprintf("%s can not be moved %s %s", e.Moved, e.Directive, e.Target)
}

func (e *UnsupportedRelocationError) Is(target error) bool {
	return target == ErrUnsupportedRelocation
}

// TargetNotFoundError is returned when the drop target, or the parent it
// implies, is gone. The caller may refresh and resubmit.
type TargetNotFoundError struct {
	TargetID idwrap.IDWrap
	Scope    *mtree.Scope
}

func (e *TargetNotFoundError) Error() string {
	if e.Scope != nil {
		return fmt.Sprintf("target %s not found in %s", e.TargetID, e.Scope)
	}
	return fmt.Sprintf("target %s not found", e.TargetID)
}

func (e *TargetNotFoundError) Is(target error) bool {
	return target == ErrTargetNotFound
}

// InvalidParentStateError is re-exported so engine callers need one import.
type InvalidParentStateError = mtree.InvalidParentStateError

// KindMismatchError is returned when the caller's kind disagrees with storage.
type KindMismatchError struct {
	NodeID   idwrap.IDWrap
	Expected mtree.Kind
	Actual   mtree.Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("node %s is a %s, not a %s", e.NodeID, e.Actual, e.Expected)
}

func (e *KindMismatchError) Is(target error) bool {
	return target == ErrKindMismatch
}
