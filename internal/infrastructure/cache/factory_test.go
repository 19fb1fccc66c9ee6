package cache

import (
	"context"
	"testing"

	"github.com/canoe/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableRedis points at a port nothing listens on
func unreachableRedis() config.RedisConfig {
	return config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}
}

func TestIdempotencyStoreFactory_Disabled(t *testing.T) {
	factory := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: false})

	store, err := factory.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestIdempotencyStoreFactory_FallbackToMemory(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	factory := NewIdempotencyStoreFactory(unreachableRedis(), WithLogger(zap.New(core)))

	store, err := factory.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	assert.Equal(t, 1, logs.Len())
}

func TestIdempotencyStoreFactory_NoFallback(t *testing.T) {
	factory := NewIdempotencyStoreFactory(unreachableRedis(), WithInMemoryFallback(false))

	store, err := factory.CreateStore(context.Background())
	assert.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "redis required")
}
