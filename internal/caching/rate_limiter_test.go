package caching

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestLimiter(t *testing.T) (*miniredis.Miniredis, RateLimiter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisRateLimiter(client, zap.NewNop())
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	mr, limiter := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "generate:p1", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "call %d", i+1)
	}
	ok, err := limiter.Allow(ctx, "generate:p1", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := limiter.Allow(ctx, "generate:p2", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, other)

	assert.Equal(t, time.Hour, mr.TTL("leasegen:ratelimit:generate:p1"))
}

func TestRateLimiterWindowResets(t *testing.T) {
	mr, limiter := newTestLimiter(t)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = limiter.Allow(ctx, "k", 1, time.Minute)
	assert.False(t, ok)

	mr.FastForward(time.Minute + time.Second)

	ok, err = limiter.Allow(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiterRepairsMissingExpiry(t *testing.T) {
	mr, limiter := newTestLimiter(t)
	require.NoError(t, mr.Set("leasegen:ratelimit:k", "5"))

	_, err := limiter.Allow(context.Background(), "k", 10, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("leasegen:ratelimit:k"))
}

// failExpire makes every EXPIRE command fail while other commands pass through.
type failExpire struct{}

func (failExpire) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (failExpire) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "expire" {
			err := errors.New("READONLY You can't write against a read only replica")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (failExpire) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRateLimiterLogsFailedExpiryRepair(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("leasegen:ratelimit:k", "5"))

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	client.AddHook(failExpire{})

	core, logs := observer.New(zapcore.WarnLevel)
	limiter := NewRedisRateLimiter(client, zap.New(core))

	ok, err := limiter.Allow(context.Background(), "k", 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	failed := logs.FilterMessage("failed to repair rate limit expiry").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Contains(t, failed[0].ContextMap()["error"], "READONLY")
}

func TestRateLimiterDisabledAndErrors(t *testing.T) {
	mr, limiter := newTestLimiter(t)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "k", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, limiter.Ping(ctx))
	mr.SetError("LOADING")
	_, err = limiter.Allow(ctx, "k", 1, time.Minute)
	assert.Error(t, err)
	assert.Error(t, limiter.Ping(ctx))
}

func TestNewRedisClientParsesURL(t *testing.T) {
	client, err := NewRedisClient("redis://:secret@localhost:6380/2", "", 0)
	require.NoError(t, err)
	opts := client.Options()
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = NewRedisClient("redis://%zz", "", 0)
	assert.Error(t, err)
}
