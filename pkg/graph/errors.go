package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoStartNode is returned by StartNode when no node is flagged as start.
var ErrNoStartNode = errors.New("graph has no start node")

// GraphLoadError reports that the record store could not serve a category's graph.
type GraphLoadError struct {
	Category string
	Err      error
}

func (e *GraphLoadError) Error() string {
	return fmt.Sprintf("loading diagnostic graph for %q: %v", e.Category, e.Err)
}

func (e *GraphLoadError) Unwrap() error {
	return e.Err
}

// AmbiguousStartError is returned by StartNode when several nodes are flagged as start.
type AmbiguousStartError struct {
	Category string
	NodeIDs  []string
}

func (e *AmbiguousStartError) Error() string {
	return fmt.Sprintf("category %q has %d start nodes: %s", e.Category, len(e.NodeIDs), strings.Join(e.NodeIDs, ", "))
}
