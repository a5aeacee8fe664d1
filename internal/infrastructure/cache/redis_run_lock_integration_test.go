//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisRunLock(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	first := NewRedisRunLockWithClient(client, "test:")
	second := NewRedisRunLockWithClient(client, "test:")
	require.NoError(t, first.Ping(ctx))

	release, ok, err := first.TryAcquire(ctx, "charges:generate-monthly", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = second.TryAcquire(ctx, "charges:generate-monthly", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "lock is shared through redis")

	ttl, err := client.PTTL(ctx, "test:charges:generate-monthly").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, release(ctx))
	_, ok, err = second.TryAcquire(ctx, "charges:generate-monthly", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisRunLock_ReleaseKeepsForeignToken(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	lock := NewRedisRunLockWithClient(client, "test:")

	release, ok, err := lock.TryAcquire(ctx, "job", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Simulate expiry followed by another holder taking the key.
	require.NoError(t, client.Set(ctx, "test:job", "other-holder", time.Minute).Err())

	require.NoError(t, release(ctx))
	val, err := client.Get(ctx, "test:job").Result()
	require.NoError(t, err)
	assert.Equal(t, "other-holder", val)
}
