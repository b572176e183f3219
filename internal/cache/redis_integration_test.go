//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(ctx context.Context, t *testing.T) (addr string, terminate func()) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	addr = fmt.Sprintf("%s:%s", host, port.Port())
	terminate = func() {
		require.NoError(t, redisC.Terminate(ctx))
	}
	return addr, terminate
}

func TestRedis_SetGetDeletePrefix(t *testing.T) {
	ctx := context.Background()
	addr, terminate := startRedis(ctx, t)
	defer terminate()

	c := NewRedis(addr, "", 0)
	defer c.Close()
	require.NoError(t, c.Ping(ctx))

	_, ok, err := c.Get(ctx, "catalog:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	for i := 0; i < 250; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("catalog:k%d", i), []byte("v"), time.Minute))
	}
	require.NoError(t, c.Set(ctx, "other:k", []byte("keep"), time.Minute))

	v, ok, err := c.Get(ctx, "catalog:k7")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))

	require.NoError(t, c.DeletePrefix(ctx, CatalogPrefix))
	_, ok, _ = c.Get(ctx, "catalog:k7")
	assert.False(t, ok)
	v, ok, _ = c.Get(ctx, "other:k")
	assert.True(t, ok)
	assert.Equal(t, "keep", string(v))
}
