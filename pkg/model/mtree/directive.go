package mtree

import (
	"errors"
	"fmt"
	"strings"
)

// DropDirective says where a dragged node lands relative to its target.
type DropDirective int8

const (
	DropOnTop DropDirective = iota
	DropAbove
	DropBelow
)

func (d DropDirective) String() string {
	switch d {
	case DropAbove:
		return "above"
	case DropBelow:
		return "below"
	default:
		return "on_top"
	}
}

var ErrUnknownDropDirective = errors.New("unknown drop directive")

// ParseDropDirective matches case-insensitively. Anything it does not
// recognise becomes DropOnTop, which is what existing clients rely on.
func ParseDropDirective(s string) DropDirective {
	d, err := ParseDropDirectiveStrict(s)
	if err != nil {
		return DropOnTop
	}
	return d
}

// ParseDropDirectiveStrict is ParseDropDirective without the fallback.
func ParseDropDirectiveStrict(s string) (DropDirective, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "above":
		return DropAbove, nil
	case "below":
		return DropBelow, nil
	case "on_top":
		return DropOnTop, nil
	default:
		return DropOnTop, fmt.Errorf("%w: %q", ErrUnknownDropDirective, s)
	}
}
