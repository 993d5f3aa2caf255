package graph

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateNode = errors.New("duplicate node key")
	ErrUnmappedKey   = errors.New("node key not mapped")
	ErrSelfLoop      = errors.New("self loop not allowed")
	ErrStarViolation = errors.New("edge must join a claim to a non-claim node")
	ErrEmptyKey      = errors.New("empty node key")
)

// GraphError provides structured error information for graph operations.
type GraphError struct {
	Op    string // Operation that failed (e.g., "AddEdge")
	Key   string // Node key involved
	Other string // Second endpoint for edge operations
	Cause error
}

func (e *GraphError) Error() string {
	if e.Other != "" {
		return fmt.Sprintf("%s %q-%q: %v", e.Op, e.Key, e.Other, e.Cause)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Cause)
}

func (e *GraphError) Unwrap() error {
	return e.Cause
}
