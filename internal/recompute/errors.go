package recompute

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidGraph = errors.New("invalid dependency graph")
	ErrCycleFound   = errors.New("cycle detected")
)

// GraphError wraps dependency graph validation failures.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []Key) error {
	msg := "cycle"
	if len(path) > 0 {
		names := make([]string, len(path))
		for i, k := range path {
			names[i] = string(k)
		}
		msg = "cycle: " + strings.Join(names, " -> ")
	}
	return &GraphError{Kind: ErrCycleFound, Msg: msg}
}
