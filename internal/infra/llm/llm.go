// Package llm provides completion clients for the page extraction step.
// Ollama, OpenAI and Gemini are reached through their OpenAI-compatible endpoints;
// Claude uses the Anthropic SDK. Every call is rate limited, guarded by a circuit breaker and retried.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"parserapi/internal/config"
	"parserapi/internal/observability/metrics"
	"parserapi/internal/resilience/circuitbreaker"
	"parserapi/internal/resilience/retry"
)

// Completer sends a prompt to a language model and returns its text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrDisabled is returned by the none provider.
	ErrDisabled = errors.New("llm: provider disabled")
	// ErrEmptyResponse is returned when the model answers without text.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrUnavailable is returned while the provider's circuit breaker is open.
	ErrUnavailable = errors.New("llm: provider unavailable")
)

// systemPrompt is sent ahead of every extraction prompt.
const systemPrompt = "You turn web pages into structured feed data. Answer with a single JSON object and nothing else."

// Option customizes a client built by New.
type Option func(*options)

type options struct {
	httpClient *http.Client
	retryCfg   retry.Config
	breakerCfg *circuitbreaker.Config
}

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRetryConfig replaces the retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(o *options) { o.retryCfg = cfg }
}

// WithBreakerConfig replaces the circuit breaker configuration.
func WithBreakerConfig(cfg circuitbreaker.Config) Option {
	return func(o *options) { o.breakerCfg = &cfg }
}

// New builds the Completer for cfg.Provider.
func New(cfg *config.LLMConfig, opts ...Option) (Completer, error) {
	if cfg == nil {
		return nil, errors.New("llm: config is nil")
	}
	o := options{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retryCfg:   retry.LLMConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.Provider {
	case config.ProviderNone:
		return Noop{}, nil
	case config.ProviderOllama, config.ProviderOpenAI, config.ProviderGemini:
		return newOpenAICompatible(cfg, newGuard(cfg, o), o.httpClient), nil
	case config.ProviderClaude:
		return newClaude(cfg, newGuard(cfg, o), o.httpClient), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// guard applies the shared rate limit, circuit breaker, timeout and retry policy to provider calls.
type guard struct {
	provider string
	limiter  *rate.Limiter
	breaker  *circuitbreaker.CircuitBreaker
	retryCfg retry.Config
	timeout  time.Duration
}

func newGuard(cfg *config.LLMConfig, o options) *guard {
	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	cbCfg := circuitbreaker.LLMConfig(cfg.Provider)
	if o.breakerCfg != nil {
		cbCfg = *o.breakerCfg
	}
	cbCfg.IsSuccessful = func(err error) bool {
		// Client errors say nothing about the provider's health.
		var httpErr *retry.HTTPError
		return errors.As(err, &httpErr) && !retry.IsRetryable(err)
	}

	return &guard{
		provider: cfg.Provider,
		limiter:  rate.NewLimiter(limit, burst),
		breaker:  circuitbreaker.New(cbCfg),
		retryCfg: o.retryCfg,
		timeout:  cfg.Timeout,
	}
}

func (g *guard) run(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	requestID := uuid.New().String()
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	slog.DebugContext(ctx, "llm completion started",
		slog.String("provider", g.provider),
		slog.String("llm_request_id", requestID))

	start := time.Now()
	out, err := retry.Do(ctx, g.retryCfg, func() (string, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("llm rate limiter: %w", err)
		}
		res, err := circuitbreaker.Run(g.breaker, func() (string, error) {
			return call(ctx)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			slog.WarnContext(ctx, "llm circuit breaker open, request rejected",
				slog.String("provider", g.provider),
				slog.String("state", g.breaker.State().String()))
			return "", fmt.Errorf("%w: %s", ErrUnavailable, g.provider)
		}
		return res, err
	})
	duration := time.Since(start)

	if err != nil {
		metrics.RecordLLMRequest(g.provider, outcome(err), duration)
		slog.WarnContext(ctx, "llm completion failed",
			slog.String("provider", g.provider),
			slog.String("llm_request_id", requestID),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return "", err
	}

	metrics.RecordLLMRequest(g.provider, "success", duration)
	slog.InfoContext(ctx, "llm completion finished",
		slog.String("provider", g.provider),
		slog.String("llm_request_id", requestID),
		slog.Int("response_length", len(out)),
		slog.Duration("duration", duration))
	return out, nil
}

func outcome(err error) string {
	var httpErr *retry.HTTPError
	switch {
	case errors.Is(err, ErrUnavailable):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case errors.As(err, &httpErr):
		return fmt.Sprintf("http_%d", httpErr.StatusCode)
	default:
		return "error"
	}
}

// Noop is the Completer of the none provider.
type Noop struct{}

// Complete always fails with ErrDisabled.
func (Noop) Complete(context.Context, string) (string, error) {
	return "", ErrDisabled
}
