// Package circuitbreaker provides circuit breaker implementations for external service calls.
// It uses the github.com/sony/gobreaker library to prevent cascading failures.
package circuitbreaker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name is the circuit breaker name for logging and metrics
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests uint32

	// Interval is the cyclic period of the closed state to clear success/failure counts
	Interval time.Duration

	// Timeout is how long to wait in open state before trying again
	Timeout time.Duration

	// FailureThreshold is the failure ratio threshold to trip the circuit
	// For example, 0.6 means 60% failure rate
	FailureThreshold float64

	// MinRequests is the minimum number of requests before calculating failure ratio
	MinRequests uint32

	// IsSuccessful reports errors that should not count as failures.
	// When nil, every non-nil error is a failure.
	IsSuccessful func(err error) bool
}

// DefaultConfig returns a default configuration for circuit breakers.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// PageFetchConfig returns configuration for fetching pages from a single host.
// The breaker opens when a host keeps failing so clients get a fast error instead of a long timeout.
func PageFetchConfig() Config {
	return Config{
		Name:             "page-fetch",
		MaxRequests:      2,
		Interval:         60 * time.Second,
		Timeout:          2 * time.Minute,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// LLMConfig returns configuration for an LLM provider.
func LLMConfig(provider string) Config {
	return Config{
		Name:             "llm-" + provider,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker with additional functionality.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a new circuit breaker with the given configuration.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
	if cfg.IsSuccessful != nil {
		isSuccessful := cfg.IsSuccessful
		settings.IsSuccessful = func(err error) bool {
			return err == nil || isSuccessful(err)
		}
	}

	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs the given function through the circuit breaker.
// If the circuit is open, it returns gobreaker.ErrOpenState immediately.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen returns true if the circuit breaker is in the open state.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}

// Run executes fn through cb and returns its typed result.
func Run[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

// DefaultGroupMaxKeys bounds the number of breakers a Group keeps.
const DefaultGroupMaxKeys = 1024

// Group lazily creates one breaker per key, sharing a base configuration.
// It is used to keep one failing host from opening the breaker for every other host.
// At most maxKeys breakers are kept; when a new key arrives at capacity the
// least recently used closed breaker is dropped, or the least recently used
// breaker of any state when none is closed.
type Group struct {
	base     Config
	maxKeys  int
	mu       sync.Mutex
	tick     uint64
	breakers map[string]*groupEntry
}

type groupEntry struct {
	cb       *CircuitBreaker
	lastUsed uint64
}

// NewGroup returns an empty Group whose breakers are named "<base.Name>:<key>".
func NewGroup(base Config) *Group {
	return NewBoundedGroup(base, DefaultGroupMaxKeys)
}

// NewBoundedGroup is NewGroup with an explicit breaker cap.
// A non-positive maxKeys uses DefaultGroupMaxKeys.
func NewBoundedGroup(base Config, maxKeys int) *Group {
	if maxKeys <= 0 {
		maxKeys = DefaultGroupMaxKeys
	}
	return &Group{base: base, maxKeys: maxKeys, breakers: make(map[string]*groupEntry)}
}

// Get returns the breaker for key, creating it on first use.
func (g *Group) Get(key string) *CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tick++
	if e, ok := g.breakers[key]; ok {
		e.lastUsed = g.tick
		return e.cb
	}
	if len(g.breakers) >= g.maxKeys {
		g.evictLocked()
	}
	cfg := g.base
	cfg.Name = g.base.Name + ":" + key
	cb := New(cfg)
	g.breakers[key] = &groupEntry{cb: cb, lastUsed: g.tick}
	return cb
}

func (g *Group) evictLocked() {
	var oldestKey, oldestClosedKey string
	var oldest, oldestClosed uint64
	foundClosed := false
	for k, e := range g.breakers {
		if oldestKey == "" || e.lastUsed < oldest {
			oldestKey, oldest = k, e.lastUsed
		}
		if e.cb.State() == gobreaker.StateClosed && (!foundClosed || e.lastUsed < oldestClosed) {
			oldestClosedKey, oldestClosed, foundClosed = k, e.lastUsed, true
		}
	}
	if foundClosed {
		delete(g.breakers, oldestClosedKey)
		return
	}
	delete(g.breakers, oldestKey)
}

// Len returns the number of breakers currently held.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.breakers)
}
