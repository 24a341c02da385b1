package rollup

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCycle         = errors.New("cycle detected")
	ErrNodeNotFound  = errors.New("node not found")
	ErrDuplicateNode = errors.New("node already exists")
	ErrNotChild      = errors.New("node is not a child of parent")
	ErrInvalidNode   = errors.New("invalid node")
)

// CycleError reports an Attach that would make a node its own ancestor.
// Path runs from the child down to the proposed parent and back to the child.
type CycleError struct {
	Parent string
	Child  string
	Path   []string
}

func (e *CycleError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: attaching %s under %s", ErrCycle, e.Child, e.Parent)
	}
	return fmt.Sprintf("%s: attaching %s under %s: %s", ErrCycle, e.Child, e.Parent, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
}
