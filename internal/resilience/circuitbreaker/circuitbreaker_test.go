package circuitbreaker

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      2,
		Interval:         10 * time.Second,
		Timeout:          100 * time.Millisecond,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func TestNew(t *testing.T) {
	cb := New(testConfig())

	require.NotNil(t, cb)
	assert.Equal(t, "test-circuit", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb := New(testConfig())

	result, err := cb.Execute(func() (interface{}, error) {
		return "success", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "success", result)

	testErr := errors.New("test error")
	result, err = cb.Execute(func() (interface{}, error) {
		return nil, testErr
	})
	assert.Equal(t, testErr, err)
	assert.Nil(t, result)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_TripsOpen(t *testing.T) {
	cb := New(testConfig())
	testErr := errors.New("test error")

	// 4 failures + 1 success + 1 failure: ratio 5/6 over MinRequests
	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })
	}
	_, _ = cb.Execute(func() (interface{}, error) { return "ok", nil })
	_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })

	require.True(t, cb.IsOpen(), "expected open circuit, got %v", cb.State())

	_, err := cb.Execute(func() (interface{}, error) {
		t.Error("function should not be called when circuit is open")
		return nil, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := New(testConfig())
	testErr := errors.New("test error")
	for i := 0; i < 6; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	time.Sleep(150 * time.Millisecond)

	_, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.NotEqual(t, gobreaker.StateOpen, cb.State())
}

func TestCircuitBreaker_MinRequests(t *testing.T) {
	cfg := testConfig()
	cfg.MinRequests = 10
	cb := New(cfg)

	testErr := errors.New("test error")
	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_IsSuccessful(t *testing.T) {
	notFound := errors.New("not found")
	cfg := testConfig()
	cfg.IsSuccessful = func(err error) bool { return errors.Is(err, notFound) }
	cb := New(cfg)

	for i := 0; i < 10; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, notFound })
		assert.ErrorIs(t, err, notFound)
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State(), "ignored errors must not trip the breaker")
}

func TestRun(t *testing.T) {
	cb := New(testConfig())

	n, err := Run(cb, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	testErr := errors.New("boom")
	n, err = Run(cb, func() (int, error) { return 7, testErr })
	assert.ErrorIs(t, err, testErr)
	assert.Zero(t, n)
}

func TestGroup_PerKeyIsolation(t *testing.T) {
	g := NewGroup(testConfig())

	a := g.Get("a.example.com")
	b := g.Get("b.example.com")

	assert.Same(t, a, g.Get("a.example.com"))
	assert.Equal(t, "test-circuit:a.example.com", a.Name())
	assert.Equal(t, 2, g.Len())

	testErr := errors.New("down")
	for i := 0; i < 6; i++ {
		_, _ = a.Execute(func() (interface{}, error) { return nil, testErr })
	}

	assert.True(t, a.IsOpen())
	assert.False(t, b.IsOpen())
}

func TestGroup_EvictsLeastRecentlyUsedClosed(t *testing.T) {
	g := NewBoundedGroup(testConfig(), 2)

	a := g.Get("a.example.com")
	g.Get("b.example.com")
	assert.Same(t, a, g.Get("a.example.com"))

	g.Get("c.example.com")

	assert.Equal(t, 2, g.Len())
	assert.Same(t, a, g.Get("a.example.com"), "recently used breaker must be kept")
}

func TestGroup_KeepsOpenBreakerOverClosed(t *testing.T) {
	g := NewBoundedGroup(testConfig(), 2)

	down := g.Get("down.example.com")
	testErr := errors.New("down")
	for i := 0; i < 6; i++ {
		_, _ = down.Execute(func() (interface{}, error) { return nil, testErr })
	}
	require.True(t, down.IsOpen())

	g.Get("b.example.com")
	g.Get("c.example.com")

	assert.Equal(t, 2, g.Len())
	assert.Same(t, down, g.Get("down.example.com"), "open breaker must survive eviction")
}

func TestGroup_BoundedUnderManyHosts(t *testing.T) {
	g := NewBoundedGroup(testConfig(), 16)

	for i := 0; i < 500; i++ {
		g.Get(fmt.Sprintf("host-%d.example.com", i))
	}

	assert.Equal(t, 16, g.Len())
}

func TestNewBoundedGroup_DefaultCap(t *testing.T) {
	g := NewBoundedGroup(testConfig(), 0)
	assert.Equal(t, DefaultGroupMaxKeys, g.maxKeys)
}

func TestPresetConfigs(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
	}{
		{name: "default", cfg: DefaultConfig("x"), wantName: "x"},
		{name: "page fetch", cfg: PageFetchConfig(), wantName: "page-fetch"},
		{name: "llm", cfg: LLMConfig("ollama"), wantName: "llm-ollama"},
		{name: "db", cfg: DBConfig(), wantName: "database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantName, tt.cfg.Name)
			assert.Greater(t, tt.cfg.MaxRequests, uint32(0))
			assert.Greater(t, tt.cfg.MinRequests, uint32(0))
			assert.Greater(t, tt.cfg.FailureThreshold, 0.0)
			assert.LessOrEqual(t, tt.cfg.FailureThreshold, 1.0)
		})
	}
}
