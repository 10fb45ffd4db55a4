// Package traversal drives diagnostic sessions through a category graph.
package traversal

import (
	"github.com/zen-systems/repairdesk/pkg/graph"
)

// State is the lifecycle position of a session.
type State string

const (
	StateAwaitingCategory  State = "awaiting_category"
	StateInProgress        State = "in_progress"
	StateTerminalDiagnosis State = "terminal_diagnosis"
	StateDeadEnd           State = "dead_end"
)

// Dead-end reasons reported on Step.
const (
	ReasonNoPath      = "no further diagnostic path"
	ReasonCycle       = "diagnostic path revisits a question"
	ReasonMissingNode = "diagnostic path points to a missing question"
)

// Session is the caller-owned state of one walk through a graph. Advance never
// mutates a session; it returns a new one.
type Session struct {
	ID             string   `json:"id"`
	Category       string   `json:"category"`
	CurrentNodeID  string   `json:"current_node_id"`
	VisitedNodeIDs []string `json:"visited_node_ids"`
	Answers        []bool   `json:"answers"`
	State          State    `json:"state"`

	graph *graph.Graph
}

// NewSession returns a session waiting for a category.
func NewSession() Session {
	return Session{State: StateAwaitingCategory}
}

// Finished reports whether the session reached a terminal state.
func (s Session) Finished() bool {
	return s.State == StateTerminalDiagnosis || s.State == StateDeadEnd
}

// Question returns the current node's question, or "" when none.
func (s Session) Question() string {
	if s.graph == nil {
		return ""
	}
	n, ok := s.graph.Node(s.CurrentNodeID)
	if !ok || n.IsTerminal {
		return ""
	}
	return n.Question
}

// Steps returns the number of answers given so far.
func (s Session) Steps() int {
	return len(s.Answers)
}

func (s Session) visited(id string) bool {
	for _, v := range s.VisitedNodeIDs {
		if v == id {
			return true
		}
	}
	return false
}

func (s Session) next(nodeID string, answer bool, state State) Session {
	out := s
	out.Answers = append(append([]bool(nil), s.Answers...), answer)
	out.VisitedNodeIDs = append([]string(nil), s.VisitedNodeIDs...)
	if nodeID != "" {
		out.CurrentNodeID = nodeID
		out.VisitedNodeIDs = append(out.VisitedNodeIDs, nodeID)
	}
	out.State = state
	return out
}

// Step is the result of one Advance call.
type Step struct {
	Session       Session  `json:"session"`
	Question      string   `json:"question,omitempty"`
	Outcome       *Outcome `json:"outcome,omitempty"`
	DeadEndReason string   `json:"dead_end_reason,omitempty"`
}
