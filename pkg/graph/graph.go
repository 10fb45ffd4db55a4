package graph

import "fmt"

// Graph is an immutable snapshot of one category's nodes.
type Graph struct {
	category string
	order    []string
	nodes    map[string]Node
	dupes    []string
}

// New builds a graph. When ids repeat the first node wins and the duplicate
// is reported by Validate.
func New(category string, nodes []Node) *Graph {
	g := &Graph{
		category: category,
		nodes:    make(map[string]Node, len(nodes)),
	}
	for _, n := range nodes {
		if _, exists := g.nodes[n.ID]; exists {
			g.dupes = append(g.dupes, n.ID)
			continue
		}
		g.order = append(g.order, n.ID)
		g.nodes[n.ID] = cloneNode(n)
	}
	return g
}

// Category returns the category the graph belongs to.
func (g *Graph) Category() string { return g.category }

// Empty reports whether the graph has no nodes.
func (g *Graph) Empty() bool { return len(g.order) == 0 }

// Len returns the node count.
func (g *Graph) Len() int { return len(g.order) }

// Node looks up a node by id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return cloneNode(n), true
}

// Nodes returns every node in load order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, cloneNode(g.nodes[id]))
	}
	return out
}

// StartNodes returns the nodes flagged as start, in load order.
func (g *Graph) StartNodes() []Node {
	var out []Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.IsStart {
			out = append(out, cloneNode(n))
		}
	}
	return out
}

// StartNode returns the single start node.
func (g *Graph) StartNode() (Node, error) {
	starts := g.StartNodes()
	switch len(starts) {
	case 1:
		return starts[0], nil
	case 0:
		return Node{}, ErrNoStartNode
	default:
		ids := make([]string, len(starts))
		for i, n := range starts {
			ids[i] = n.ID
		}
		return Node{}, &AmbiguousStartError{Category: g.category, NodeIDs: ids}
	}
}

// IssueKind classifies a validation finding.
type IssueKind string

const (
	IssueNoStart             IssueKind = "no_start"
	IssueMultipleStarts      IssueKind = "multiple_starts"
	IssueDuplicateID         IssueKind = "duplicate_id"
	IssueTerminalWithTargets IssueKind = "terminal_with_targets"
	IssueDanglingTarget      IssueKind = "dangling_target"
	IssueTooManyTargets      IssueKind = "too_many_targets"
	IssueNoTargets           IssueKind = "no_targets"
)

// Issue is a data problem found in a graph. Issues are reported, never repaired.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	NodeID  string    `json:"node_id,omitempty"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	if i.NodeID == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", i.Kind, i.NodeID, i.Message)
}

// Validate checks the branch convention and structural invariants.
func (g *Graph) Validate() []Issue {
	if g.Empty() {
		return nil
	}
	var issues []Issue

	starts := g.StartNodes()
	switch {
	case len(starts) == 0:
		issues = append(issues, Issue{Kind: IssueNoStart, Message: "graph has no start node"})
	case len(starts) > 1:
		for _, n := range starts {
			issues = append(issues, Issue{Kind: IssueMultipleStarts, NodeID: n.ID, Message: "more than one start node"})
		}
	}
	for _, id := range g.dupes {
		issues = append(issues, Issue{Kind: IssueDuplicateID, NodeID: id, Message: "node id appears more than once"})
	}

	for _, id := range g.order {
		n := g.nodes[id]
		if n.IsTerminal {
			if len(n.BranchTargets) > 0 {
				issues = append(issues, Issue{Kind: IssueTerminalWithTargets, NodeID: id,
					Message: fmt.Sprintf("terminal node has %d branch targets", len(n.BranchTargets))})
			}
			continue
		}
		if len(n.BranchTargets) == 0 {
			issues = append(issues, Issue{Kind: IssueNoTargets, NodeID: id, Message: "question node has no branch targets"})
		}
		if len(n.BranchTargets) > MaxBranches {
			issues = append(issues, Issue{Kind: IssueTooManyTargets, NodeID: id,
				Message: fmt.Sprintf("%d branch targets; only yes and no are used", len(n.BranchTargets))})
		}
		for _, target := range n.BranchTargets {
			if _, ok := g.nodes[target]; !ok {
				issues = append(issues, Issue{Kind: IssueDanglingTarget, NodeID: id,
					Message: fmt.Sprintf("target %q does not exist", target)})
			}
		}
	}
	return issues
}
