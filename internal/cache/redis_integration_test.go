//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"mecabal-location/internal/apperr"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRedis(t *testing.T) *redis.Client {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		redisC.Terminate(ctx)
	})

	host, err := redisC.Host(ctx)
	require.NoError(t, err)

	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := OpenRedis(host+":"+port.Port(), "", 0)
	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func TestRedisStore_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	client := setupTestRedis(t)
	store := NewRedisStore(client, "test:")
	ctx := context.Background()

	missing, err := store.Get(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)

	c := New(store, time.Minute)
	calls := 0
	compute := func(context.Context) (map[string]int, error) {
		calls++
		return map[string]int{"hospital": 3}, nil
	}

	for i := 0; i < 2; i++ {
		got, err := GetOrCompute(ctx, c, "landmarks:6.6050,3.3550:1000", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"hospital": 3}, got)
	}
	assert.Equal(t, 1, calls)

	ttl, err := client.TTL(ctx, "test:landmarks:6.6050,3.3550:1000").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisStore_NegativeEntry(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	store := NewRedisStore(setupTestRedis(t), "test:")
	c := New(store, time.Minute)
	ctx := context.Background()

	compute := func(context.Context) ([]string, error) {
		return nil, apperr.New(apperr.RateLimited, "over query limit")
	}
	_, err := GetOrCompute(ctx, c, "text:lekki", time.Minute, compute)
	require.Error(t, err)

	entry, err := store.Get(ctx, "text:lekki")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, apperr.RateLimited, entry.ErrKind)
}
