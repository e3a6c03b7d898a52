package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis_InvalidURL(t *testing.T) {
	_, err := NewRedis("http://not-redis", "p:")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestNewRedis_ValidURL(t *testing.T) {
	r, err := NewRedis("redis://localhost:6379/2", "p:")
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	assert.Equal(t, "redis", r.Name())
}

// unreachableClient points at a port nobody listens on.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedis_BackendErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRedisFromClient(unreachableClient(t), "p:")
	defer func() { _ = r.Close() }()

	_, ok, err := r.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)

	assert.Error(t, r.Set(ctx, "k", []byte("v"), time.Minute))
	assert.NoError(t, r.Set(ctx, "k", []byte("v"), 0), "non-positive TTL never reaches the server")
	assert.Error(t, r.Ping(ctx))
}
