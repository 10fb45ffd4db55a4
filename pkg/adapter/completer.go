package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Target names one adapter/model pair in a call chain.
type Target struct {
	Adapter Adapter
	Model   string
}

// RetryPolicy bounds retries of transient failures on a single target.
type RetryPolicy struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy mirrors the retry settings used when none are configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseBackoff: 200 * time.Millisecond, MaxBackoff: 2 * time.Second}
}

// Completer calls a primary target, retrying transient errors and then
// walking the fallback chain. It satisfies LanguageModel.
type Completer struct {
	targets []Target
	retry   RetryPolicy
	limiter *rate.Limiter
	logger  *zap.Logger
}

// CompleterOption configures a Completer.
type CompleterOption func(*Completer)

// WithFallback appends a fallback target.
func WithFallback(a Adapter, model string) CompleterOption {
	return func(c *Completer) {
		if a != nil {
			c.targets = append(c.targets, Target{Adapter: a, Model: model})
		}
	}
}

// WithRetry overrides the retry policy.
func WithRetry(policy RetryPolicy) CompleterOption {
	return func(c *Completer) {
		c.retry = policy
	}
}

// WithRateLimit caps outbound calls per second. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) CompleterOption {
	return func(c *Completer) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) CompleterOption {
	return func(c *Completer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCompleter builds a Completer around a primary adapter.
func NewCompleter(primary Adapter, model string, opts ...CompleterOption) (*Completer, error) {
	if primary == nil {
		return nil, errors.New("completer requires a primary adapter")
	}
	c := &Completer{
		targets: []Target{{Adapter: primary, Model: model}},
		retry:   DefaultRetryPolicy(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Targets returns the call chain, primary first.
func (c *Completer) Targets() []Target {
	out := make([]Target, len(c.targets))
	copy(out, c.targets)
	return out
}

// Complete implements LanguageModel.
func (c *Completer) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, _, err := c.Call(ctx, Prompt{System: systemPrompt, User: userPrompt})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Call runs the prompt through the chain and reports every target it touched.
func (c *Completer) Call(ctx context.Context, prompt Prompt) (*Response, []CallReport, error) {
	var reports []CallReport
	var lastErr error

	for idx, target := range c.targets {
		for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					return nil, reports, err
				}
			}

			resp, err := target.Adapter.Generate(ctx, target.Model, prompt)
			if err == nil {
				reports = append(reports, CallReport{
					Adapter:      target.Adapter.Name(),
					Model:        target.Model,
					Usage:        normalizeUsage(resp.Usage),
					Retries:      attempt,
					FallbackUsed: idx > 0,
				})
				return resp, reports, nil
			}

			lastErr = err
			if ctx.Err() != nil {
				return nil, reports, ctx.Err()
			}
			if !IsTransient(err) || attempt == c.retry.MaxRetries {
				reports = append(reports, CallReport{
					Adapter:      target.Adapter.Name(),
					Model:        target.Model,
					Retries:      attempt,
					FallbackUsed: idx > 0,
					Error:        err.Error(),
				})
				c.logger.Warn("language model call failed",
					zap.String("adapter", target.Adapter.Name()),
					zap.String("model", target.Model),
					zap.Int("attempt", attempt),
					zap.Error(err))
				break
			}

			backoff := computeBackoff(c.retry.BaseBackoff, c.retry.MaxBackoff, attempt)
			c.logger.Debug("retrying language model call",
				zap.String("adapter", target.Adapter.Name()),
				zap.Duration("backoff", backoff),
				zap.Error(err))
			if err := sleepWithContext(ctx, backoff); err != nil {
				return nil, reports, err
			}
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("adapter call failed")
	}
	return nil, reports, lastErr
}

func computeBackoff(base, max time.Duration, attempt int) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= max {
			return max
		}
	}
	if backoff > max {
		return max
	}
	return backoff
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
