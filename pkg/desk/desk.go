// Package desk is the front door of repairdesk: it classifies a fault report,
// gathers reference material and drives diagnostic sessions.
package desk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zen-systems/repairdesk/pkg/catalog"
	"github.com/zen-systems/repairdesk/pkg/classifier"
	"github.com/zen-systems/repairdesk/pkg/feedback"
	"github.com/zen-systems/repairdesk/pkg/graph"
	"github.com/zen-systems/repairdesk/pkg/knowledge"
	"github.com/zen-systems/repairdesk/pkg/knowledge/sources"
	"github.com/zen-systems/repairdesk/pkg/traversal"
)

// SymptomClassifier is satisfied by both classifier implementations.
type SymptomClassifier interface {
	classifier.Classifier
	ClassifyMulti(text string, topN int) []classifier.Candidate
}

// Desk wires the diagnosis components together. It is safe for concurrent use.
type Desk struct {
	catalog      *catalog.Catalog
	classifier   SymptomClassifier
	retriever    *knowledge.Retriever
	loaders      []sources.Loader
	graphs       traversal.GraphSource
	engine       *traversal.Engine
	composer     *feedback.Composer
	threshold    float64
	useExternal  bool
	topN         int
	modelTimeout time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	entries []knowledge.Entry
	loaded  bool
}

// Option configures a Desk.
type Option func(*Desk)

// WithClassifier replaces the keyword-only classifier.
func WithClassifier(c SymptomClassifier) Option {
	return func(d *Desk) {
		if c != nil {
			d.classifier = c
		}
	}
}

// WithRetriever replaces the default retriever.
func WithRetriever(r *knowledge.Retriever) Option {
	return func(d *Desk) {
		if r != nil {
			d.retriever = r
		}
	}
}

// WithLoaders sets the knowledge sources.
func WithLoaders(loaders ...sources.Loader) Option {
	return func(d *Desk) {
		d.loaders = append(d.loaders, loaders...)
	}
}

// WithEngine replaces the traversal engine built from the graph source.
func WithEngine(e *traversal.Engine) Option {
	return func(d *Desk) {
		if e != nil {
			d.engine = e
		}
	}
}

// WithComposer replaces the template-only feedback composer.
func WithComposer(c *feedback.Composer) Option {
	return func(d *Desk) {
		if c != nil {
			d.composer = c
		}
	}
}

// WithThreshold sets the clarification threshold.
func WithThreshold(threshold float64) Option {
	return func(d *Desk) {
		d.threshold = threshold
	}
}

// WithExternal toggles the language-model classification path.
func WithExternal(enabled bool) Option {
	return func(d *Desk) {
		d.useExternal = enabled
	}
}

// WithTopN sets how many knowledge results Consult returns.
func WithTopN(n int) Option {
	return func(d *Desk) {
		if n > 0 {
			d.topN = n
		}
	}
}

// WithModelTimeout bounds each classification call.
func WithModelTimeout(timeout time.Duration) Option {
	return func(d *Desk) {
		d.modelTimeout = timeout
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Desk) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a desk over a catalog and a graph source.
func New(cat *catalog.Catalog, graphs traversal.GraphSource, opts ...Option) *Desk {
	d := &Desk{
		catalog:     cat,
		graphs:      graphs,
		threshold:   classifier.DefaultThreshold,
		useExternal: true,
		topN:        5,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named("desk")
	if d.classifier == nil {
		d.classifier = classifier.NewKeywordClassifier(cat)
	}
	if d.retriever == nil {
		d.retriever = knowledge.NewRetriever(knowledge.WithKeywordMap(knowledge.KeywordMapFromCatalog(cat)), knowledge.WithLogger(d.logger))
	}
	if d.engine == nil {
		d.engine = traversal.NewEngine(graphs, traversal.WithLogger(d.logger))
	}
	if d.composer == nil {
		d.composer = feedback.NewComposer(feedback.WithLogger(d.logger))
	}
	return d
}

// Catalog returns the category catalog.
func (d *Desk) Catalog() *catalog.Catalog {
	return d.catalog
}

// Consultation is the combined answer to a fault report.
type Consultation struct {
	Classification classifier.Result     `json:"classification"`
	Candidates     []classifier.Candidate `json:"candidates"`
	References     []knowledge.Result     `json:"references"`
}

// Consult classifies text and retrieves reference material concurrently.
func (d *Desk) Consult(ctx context.Context, text string) (Consultation, error) {
	var c Consultation

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Classification = d.Classify(gctx, text)
		c.Candidates = d.Candidates(text, classifier.DefaultTopN)
		return nil
	})
	g.Go(func() error {
		refs, err := d.Search(gctx, text, d.topN)
		c.References = refs
		return err
	})
	if err := g.Wait(); err != nil {
		return Consultation{}, err
	}

	d.logger.Info("consultation complete",
		zap.String("category", c.Classification.Category),
		zap.Float64("confidence", c.Classification.Confidence),
		zap.String("method", string(c.Classification.Method)),
		zap.Int("references", len(c.References)))
	return c, nil
}

// Classify resolves the single best category for text.
func (d *Desk) Classify(ctx context.Context, text string) classifier.Result {
	if d.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.modelTimeout)
		defer cancel()
	}
	return d.classifier.Classify(ctx, text,
		classifier.WithThreshold(d.threshold),
		classifier.UseExternal(d.useExternal))
}

// Candidates ranks every matching category by keyword evidence.
func (d *Desk) Candidates(text string, topN int) []classifier.Candidate {
	return d.classifier.ClassifyMulti(text, topN)
}

// Search ranks reference material for query. Sources are gathered on first use.
func (d *Desk) Search(ctx context.Context, query string, topN int) ([]knowledge.Result, error) {
	entries, err := d.gathered(ctx)
	if err != nil {
		return nil, err
	}
	return d.retriever.Retrieve(query, entries, topN), nil
}

// Refresh drops gathered knowledge so the next search reloads every source.
func (d *Desk) Refresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = nil
	d.loaded = false
}

func (d *Desk) gathered(ctx context.Context) ([]knowledge.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return d.entries, nil
	}
	entries := sources.Gather(ctx, d.loaders, d.logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.entries = entries
	d.loaded = true
	d.logger.Debug("knowledge gathered", zap.Int("entries", len(entries)), zap.Int("sources", len(d.loaders)))
	return entries, nil
}

// ValidateGraph loads a category's graph and reports its structural issues.
func (d *Desk) ValidateGraph(ctx context.Context, category string) (*graph.Graph, []graph.Issue, error) {
	g, err := d.graphs.Load(ctx, category)
	if err != nil {
		return nil, nil, err
	}
	return g, g.Validate(), nil
}

// Turn is one exchange of a diagnostic session.
type Turn struct {
	Session  traversal.Session  `json:"session"`
	Question string             `json:"question,omitempty"`
	Outcome  *traversal.Outcome `json:"outcome,omitempty"`
	DeadEnd  string             `json:"dead_end,omitempty"`
	Feedback *feedback.Feedback `json:"feedback,omitempty"`
	// Answered is false when the reply was not a yes or a no and the
	// session did not move.
	Answered bool `json:"answered"`
}

// StartDiagnosis opens a session for category.
func (d *Desk) StartDiagnosis(ctx context.Context, category string) (Turn, error) {
	if _, ok := d.catalog.Lookup(category); !ok {
		return Turn{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s, err := d.engine.Start(ctx, category)
	if err != nil {
		return Turn{}, err
	}
	t := Turn{Session: s, Question: s.Question()}
	if outcome, ok := d.engine.Outcome(s); ok {
		t.Outcome = outcome
	}
	return t, nil
}

// ErrUnknownCategory is returned when a category is not in the catalog.
var ErrUnknownCategory = errors.New("unknown category")

// Answer applies a free-text reply to the session. Replies that are neither
// yes nor no leave the session in place and only produce feedback.
func (d *Desk) Answer(ctx context.Context, s traversal.Session, reply, symptom string) (Turn, error) {
	nc := feedback.NodeContext{Category: s.Category, Symptom: symptom}

	answer, ok := ParseAnswer(reply)
	if !ok {
		fb := d.composer.Compose(ctx, reply, nc)
		return Turn{Session: s, Question: s.Question(), Feedback: &fb}, nil
	}

	step, err := d.engine.Advance(s, answer)
	if err != nil {
		return Turn{Session: s}, err
	}
	t := Turn{
		Session:  step.Session,
		Question: step.Question,
		Outcome:  step.Outcome,
		DeadEnd:  step.DeadEndReason,
		Answered: true,
	}
	if step.Outcome != nil {
		nc.Urgency = string(step.Outcome.Urgency)
	}
	fb := d.composer.Compose(ctx, reply, nc)
	t.Feedback = &fb
	return t, nil
}

// ParseAnswer maps a reply to a branch. ok is false for anything else.
func ParseAnswer(reply string) (answer bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "y", "yes", "true", "1", "はい", "うん", "ある":
		return true, true
	case "n", "no", "false", "0", "いいえ", "ない", "なし":
		return false, true
	}
	return false, false
}
