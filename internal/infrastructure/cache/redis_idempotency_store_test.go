package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRedis runs a disposable Redis container and returns its address
func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestRedisIdempotencyStore(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	store, err := NewRedisIdempotencyStore(ctx, RedisOptions{Addr: addr, KeyPrefix: "test:"})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(ctx))

	t.Run("first mark wins", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "fund_duplicate:1:v1", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "fund_duplicate:1:v1", time.Minute)
		require.NoError(t, err)
		assert.False(t, isNew)

		processed, err := store.IsProcessed(ctx, "fund_duplicate:1:v1")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("keys are namespaced", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "fund_duplicate:2:v1", time.Minute)
		require.NoError(t, err)

		n, err := store.client.Exists(ctx, "test:fund_duplicate:2:v1").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("forget releases the claim", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "fund_duplicate:4:v1", time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Forget(ctx, "fund_duplicate:4:v1"))

		isNew, err := store.MarkProcessed(ctx, "fund_duplicate:4:v1", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("keys expire", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "fund_duplicate:3:v1", 50*time.Millisecond)
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			processed, err := store.IsProcessed(ctx, "fund_duplicate:3:v1")
			return err == nil && !processed
		}, 2*time.Second, 20*time.Millisecond)
	})
}

func TestNewRedisIdempotencyStore_Unreachable(t *testing.T) {
	_, err := NewRedisIdempotencyStore(context.Background(), RedisOptions{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
	})
	assert.Error(t, err)
}
