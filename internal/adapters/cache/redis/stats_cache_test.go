package redis

import (
	"context"
	"testing"
	"time"

	"pet-health/internal/platform/breaker"
	"pet-health/internal/platform/logger"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStatsCache_LogsWhenCircuitOpens(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)

	// Nada escucha en el puerto 1: cada comando falla al conectar.
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewStatsCache(client, time.Minute, logger.NewFromZap(zap.New(core)))

	for i := 0; i < int(breaker.DefaultConfig("redis-stats").MinRequests); i++ {
		_, _, _, err := cache.Get(ctx, "pet-1")
		require.Error(t, err)
	}
	assert.Equal(t, 0, logs.FilterMessage("stats cache circuit open").Len())

	_, _, _, err := cache.Get(ctx, "pet-1")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	err = cache.Invalidate(ctx, "pet-1")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	open := logs.FilterMessage("stats cache circuit open").All()
	require.Len(t, open, 2)
	assert.Equal(t, "get", open[0].ContextMap()["op"])
	assert.Equal(t, "invalidate", open[1].ContextMap()["op"])
	assert.Equal(t, 1, logs.FilterMessage("circuit breaker state changed").Len())
}
