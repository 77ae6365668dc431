// ABOUTME: Guard wraps model backends with a timeout, rate limiter, circuit breaker, and tracing
// ABOUTME: Every failure it surfaces is tagged with models.ErrModelUnavailable
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/jarvis/internal/models"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/harper/jarvis/internal/llm"

// Completer produces a text continuation for a prompt
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder produces a vector for a piece of text
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GuardConfig tunes a Guard
type GuardConfig struct {
	Name      string        // breaker and span label, e.g. "ollama"
	Timeout   time.Duration // per call, 0 disables
	RateLimit float64       // calls per second, 0 is unlimited
	Logger    *log.Logger
}

type guard struct {
	name    string
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func newGuard(op string, cfg GuardConfig) *guard {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("llm")

	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}

	name := cfg.Name + "." + op
	return &guard{
		name:    name,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (g *guard) do(ctx context.Context, attrs []attribute.KeyValue, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, g.name)
	defer span.End()
	span.SetAttributes(attrs...)

	if err := g.limiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("llm.rate_limited", true))
		return nil, g.fail(span, err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	span.SetAttributes(attribute.Int64("llm.duration_ms", time.Since(start).Milliseconds()))
	if err != nil {
		return nil, g.fail(span, err)
	}

	span.SetStatus(codes.Ok, "")
	return out, nil
}

func (g *guard) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return fmt.Errorf("%s: %w: %w", g.name, models.ErrModelUnavailable, err)
}

// GuardedCompleter is a Completer behind a Guard
type GuardedCompleter struct {
	next  Completer
	guard *guard
}

// NewGuardedCompleter wraps next
func NewGuardedCompleter(next Completer, cfg GuardConfig) *GuardedCompleter {
	return &GuardedCompleter{next: next, guard: newGuard("complete", cfg)}
}

// Complete calls the wrapped completer under the guard
func (g *GuardedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := g.guard.do(ctx, []attribute.KeyValue{attribute.Int("llm.prompt_chars", len(prompt))},
		func(ctx context.Context) (interface{}, error) {
			return g.next.Complete(ctx, prompt)
		})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// GuardedEmbedder is an Embedder behind a Guard
type GuardedEmbedder struct {
	next  Embedder
	guard *guard
}

// NewGuardedEmbedder wraps next
func NewGuardedEmbedder(next Embedder, cfg GuardConfig) *GuardedEmbedder {
	return &GuardedEmbedder{next: next, guard: newGuard("embed", cfg)}
}

// Embed calls the wrapped embedder under the guard
func (g *GuardedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := g.guard.do(ctx, []attribute.KeyValue{attribute.Int("llm.input_chars", len(text))},
		func(ctx context.Context) (interface{}, error) {
			return g.next.Embed(ctx, text)
		})
	if err != nil {
		return nil, err
	}
	return out.([]float32), nil
}

// Prepare forwards corpus preparation to embedders that need it
func (g *GuardedEmbedder) Prepare(corpus []string) (restore func()) {
	if p, ok := g.next.(interface{ Prepare(corpus []string) func() }); ok {
		return p.Prepare(corpus)
	}
	return func() {}
}
