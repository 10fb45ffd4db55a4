// Package graph models the per-category yes/no diagnostic decision graphs.
package graph

import (
	"strings"

	"github.com/zen-systems/repairdesk/pkg/recordstore"
)

// Branch positions. Targets are positional: the first answers "yes", the second "no".
const (
	YesBranch = 0
	NoBranch  = 1

	// MaxBranches is the number of targets a binary node may carry.
	MaxBranches = 2
)

// Node is one question or terminal diagnosis.
type Node struct {
	ID            string   `json:"id" yaml:"id"`
	Question      string   `json:"question,omitempty" yaml:"question,omitempty"`
	Category      string   `json:"category" yaml:"category"`
	IsStart       bool     `json:"is_start,omitempty" yaml:"is_start,omitempty"`
	IsTerminal    bool     `json:"is_terminal,omitempty" yaml:"is_terminal,omitempty"`
	BranchTargets []string `json:"branch_targets,omitempty" yaml:"branch_targets,omitempty"`
	ResultText    string   `json:"result_text,omitempty" yaml:"result_text,omitempty"`
}

// NodeFromRecord converts a loosely-typed store record. Missing fields become
// zero values; branch targets may be a list or a comma-separated string.
func NodeFromRecord(r recordstore.Record) Node {
	targets := r.Strings("branch_targets")
	if targets == nil {
		targets = r.Strings("next_nodes")
	}
	return Node{
		ID:            strings.TrimSpace(r.First("id", "$id", "node_id")),
		Question:      r.String("question"),
		Category:      r.String("category"),
		IsStart:       r.Bool("is_start"),
		IsTerminal:    r.Bool("is_terminal"),
		BranchTargets: targets,
		ResultText:    r.String("result_text"),
	}
}

// ResolveBranch returns the target for answer, or false when the node has no
// target in that position.
func ResolveBranch(node Node, answer bool) (string, bool) {
	idx := NoBranch
	if answer {
		idx = YesBranch
	}
	if idx >= len(node.BranchTargets) {
		return "", false
	}
	target := node.BranchTargets[idx]
	if target == "" {
		return "", false
	}
	return target, true
}

func cloneNode(n Node) Node {
	n.BranchTargets = append([]string(nil), n.BranchTargets...)
	return n
}
