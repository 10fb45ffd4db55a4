package traversal

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zen-systems/repairdesk/pkg/graph"
)

// GraphSource loads a category's graph. *graph.Loader implements it.
type GraphSource interface {
	Load(ctx context.Context, category string) (*graph.Graph, error)
}

// Engine starts and advances sessions. It holds no per-session state.
type Engine struct {
	source GraphSource
	costs  *CostTable
	logger *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCostTable replaces the built-in cost table.
func WithCostTable(costs *CostTable) EngineOption {
	return func(e *Engine) {
		if costs != nil {
			e.costs = costs
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine reading graphs from source.
func NewEngine(source GraphSource, opts ...EngineOption) *Engine {
	e := &Engine{source: source, costs: DefaultCostTable(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("traversal")
	return e
}

// Start loads the category's graph and positions a new session on its start node.
// The graph snapshot is fixed for the session's lifetime.
func (e *Engine) Start(ctx context.Context, category string) (Session, error) {
	g, err := e.source.Load(ctx, category)
	if err != nil {
		return Session{}, err
	}
	if g == nil || g.Empty() {
		return Session{}, ErrGraphUnavailable
	}

	start, err := g.StartNode()
	if errors.Is(err, graph.ErrNoStartNode) {
		return Session{}, &NoStartNodeError{Category: category}
	}
	if err != nil {
		return Session{}, err
	}

	state := StateInProgress
	if start.IsTerminal {
		state = StateTerminalDiagnosis
	}
	s := Session{
		ID:             uuid.NewString(),
		Category:       category,
		CurrentNodeID:  start.ID,
		VisitedNodeIDs: []string{start.ID},
		State:          state,
		graph:          g,
	}
	e.logger.Debug("session started", zap.String("session", s.ID), zap.String("category", category), zap.String("node", start.ID))
	return s, nil
}

// Advance applies one answer and returns the resulting step.
func (e *Engine) Advance(s Session, answer bool) (Step, error) {
	switch {
	case s.Finished():
		return Step{Session: s}, ErrSessionFinished
	case s.State != StateInProgress || s.graph == nil:
		return Step{Session: s}, ErrSessionNotStarted
	}

	current, ok := s.graph.Node(s.CurrentNodeID)
	if !ok {
		return e.deadEnd(s.next("", answer, StateDeadEnd), ReasonMissingNode), nil
	}
	if current.IsTerminal {
		return Step{Session: s}, ErrSessionFinished
	}

	targetID, ok := graph.ResolveBranch(current, answer)
	if !ok {
		return e.deadEnd(s.next("", answer, StateDeadEnd), ReasonNoPath), nil
	}
	if s.visited(targetID) {
		return e.deadEnd(s.next("", answer, StateDeadEnd), ReasonCycle), nil
	}
	target, ok := s.graph.Node(targetID)
	if !ok {
		return e.deadEnd(s.next("", answer, StateDeadEnd), ReasonMissingNode), nil
	}

	if target.IsTerminal {
		next := s.next(target.ID, answer, StateTerminalDiagnosis)
		outcome := ComputeOutcome(s.Category, target.ResultText, e.costs)
		e.logger.Debug("session reached diagnosis",
			zap.String("session", s.ID),
			zap.String("node", target.ID),
			zap.String("urgency", string(outcome.Urgency)))
		return Step{Session: next, Outcome: &outcome}, nil
	}

	next := s.next(target.ID, answer, StateInProgress)
	return Step{Session: next, Question: target.Question}, nil
}

// Outcome returns the diagnosis for a session in TerminalDiagnosis.
func (e *Engine) Outcome(s Session) (*Outcome, bool) {
	if s.State != StateTerminalDiagnosis || s.graph == nil {
		return nil, false
	}
	n, ok := s.graph.Node(s.CurrentNodeID)
	if !ok || !n.IsTerminal {
		return nil, false
	}
	outcome := ComputeOutcome(s.Category, n.ResultText, e.costs)
	return &outcome, true
}

func (e *Engine) deadEnd(s Session, reason string) Step {
	e.logger.Warn("session reached dead end",
		zap.String("session", s.ID),
		zap.String("category", s.Category),
		zap.String("node", s.CurrentNodeID),
		zap.String("reason", reason))
	return Step{Session: s, DeadEndReason: reason}
}
