package errmap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/movable"
)

// Code classifies engine errors for user-facing messages and exit codes.
type Code string

const (
	CodeUnsupportedRelocation Code = "unsupported_relocation"
	CodeTargetNotFound        Code = "target_not_found"
	CodeInvalidParentState    Code = "invalid_parent_state"
	CodeNotFound              Code = "not_found"
	CodeParentNotFound        Code = "parent_not_found"
	CodeKindMismatch          Code = "kind_mismatch"
	CodeSelfReference         Code = "self_reference"
	CodeStaleScope            Code = "stale_scope"
	CodeDuplicate             Code = "duplicate"
	CodeRankIntegrity         Code = "rank_integrity"
	CodeInvalidDirective      Code = "invalid_directive"
	CodeCanceled              Code = "canceled"
	CodeTimeout               Code = "timeout"
	CodeBusy                  Code = "busy"
	CodeUnexpected            Code = "unexpected"
)

// Error carries a code and flags while preserving the original cause via
// Unwrap.
type Error struct {
	Code      Code
	Message   string
	Retryable bool
	// Fatal marks storage failures; the request itself may have been fine.
	Fatal bool
	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return e.Message
	}
	return humanize(e.Code, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

func humanize(code Code, cause error) string {
	switch code {
	case CodeCanceled:
		return "request was canceled"
	case CodeTimeout:
		return "request timed out"
	case CodeBusy:
		return "database is busy"
	case CodeStaleScope:
		return "siblings changed while the request waited, try again"
	default:
		if cause != nil {
			return cause.Error()
		}
		return "unexpected error"
	}
}

// rules is checked in order; typed errors come before the sentinels they
// match so the more specific code wins.
var rules = []struct {
	target    error
	code      Code
	retryable bool
}{
	{movable.ErrSelfReference, CodeSelfReference, false},
	{movable.ErrUnsupportedRelocation, CodeUnsupportedRelocation, false},
	{movable.ErrTargetNotFound, CodeTargetNotFound, false},
	{movable.ErrInvalidParentState, CodeInvalidParentState, false},
	{movable.ErrParentNotFound, CodeParentNotFound, false},
	{movable.ErrNodeNotFound, CodeNotFound, false},
	{movable.ErrKindMismatch, CodeKindMismatch, false},
	{movable.ErrStaleScope, CodeStaleScope, true},
	{movable.ErrDuplicateNode, CodeDuplicate, false},
	{movable.ErrRankIntegrity, CodeRankIntegrity, false},
	{mtree.ErrUnknownDropDirective, CodeInvalidDirective, false},
	{mtree.ErrUnknownKind, CodeInvalidDirective, false},
	{context.Canceled, CodeCanceled, true},
	{context.DeadlineExceeded, CodeTimeout, true},
}

// Classify converts an arbitrary error into an *Error with a best-effort
// code, keeping the original as the cause. Nil stays nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	for _, r := range rules {
		if errors.Is(err, r.target) {
			return &Error{Code: r.code, Retryable: r.retryable, cause: err}
		}
	}

	// SQLITE_BUSY surfaces as text through database/sql
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "database is locked") || strings.Contains(lower, "sqlite_busy") {
		return &Error{Code: CodeBusy, Retryable: true, cause: err}
	}
	return &Error{Code: CodeUnexpected, Fatal: true, cause: err}
}

// Map is Classify typed as error, for return statements.
func Map(err error) error {
	if err == nil {
		return nil
	}
	return Classify(err)
}

// New constructs an Error with the supplied code, message, and underlying cause.
func New(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Friendly returns a short, action-oriented message.
func Friendly(err error) string {
	if err == nil {
		return ""
	}
	e := Classify(err)

	var unsupported *movable.UnsupportedRelocationError
	var target *movable.TargetNotFoundError
	switch {
	case errors.As(err, &unsupported):
		return fmt.Sprintf("Can not drop %s %s %s.", unsupported.Moved, directivePhrase(unsupported.Directive), unsupported.Target)
	case errors.As(err, &target):
		return fmt.Sprintf("Drop target %s does not exist.", target.TargetID)
	}

	switch e.Code {
	case CodeNotFound:
		return "The node does not exist."
	case CodeParentNotFound:
		return "The parent does not exist."
	case CodeKindMismatch:
		return "The node is not of the requested kind."
	case CodeSelfReference:
		return "A node can not be dropped relative to itself."
	case CodeStaleScope:
		return "The siblings changed while waiting. Try again."
	case CodeInvalidDirective:
		return "Unknown drop directive or kind."
	case CodeBusy:
		return "The database is busy. Try again."
	case CodeCanceled:
		return "Request was canceled."
	case CodeTimeout:
		return "Request timed out."
	default:
		return e.Error()
	}
}

func directivePhrase(d mtree.DropDirective) string {
	switch d {
	case mtree.DropAbove:
		return "above"
	case mtree.DropBelow:
		return "below"
	default:
		return "on top of"
	}
}

// ExitCode maps err onto a process exit status: 0 success, 1 rejected
// request, 2 retryable conflict, 3 storage failure.
func ExitCode(err error) int {
	e := Classify(err)
	switch {
	case e == nil:
		return 0
	case e.Fatal:
		return 3
	case e.Retryable:
		return 2
	default:
		return 1
	}
}
