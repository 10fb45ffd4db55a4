package traversal

import (
	"errors"
	"fmt"
)

var (
	// ErrGraphUnavailable means the category has no diagnostic graph. It is an
	// ordinary outcome for callers to present, not a fault.
	ErrGraphUnavailable = errors.New("no diagnosis graph available for this category")
	// ErrSessionFinished is returned when advancing a terminal or dead-end session.
	ErrSessionFinished = errors.New("diagnostic session already finished")
	// ErrSessionNotStarted is returned when advancing a session without a category.
	ErrSessionNotStarted = errors.New("diagnostic session has not started")
)

// NoStartNodeError reports a graph with nodes but no start node.
type NoStartNodeError struct {
	Category string
}

func (e *NoStartNodeError) Error() string {
	return fmt.Sprintf("diagnostic graph for %q has no start node", e.Category)
}
