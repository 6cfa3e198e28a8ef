package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestEntryFresh(t *testing.T) {
	t.Parallel()

	stored := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := Entry{StoredAt: stored}

	assert.True(t, e.Fresh(stored.Add(59*time.Second), time.Minute))
	assert.False(t, e.Fresh(stored.Add(time.Minute), time.Minute))
	assert.False(t, Entry{}.Fresh(stored, time.Hour))
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	stored := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Set(ctx, "tpl", Entry{Value: []byte("<p>{{.Code}}</p>"), StoredAt: stored}))

	got, ok, err := s.Get(ctx, "tpl")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("<p>{{.Code}}</p>"), got.Value)
	assert.True(t, stored.Equal(got.StoredAt))

	require.NoError(t, s.Set(ctx, "tpl", Entry{Value: []byte("v2"), StoredAt: stored}))
	got, _, err = s.Get(ctx, "tpl")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got.Value)
}

func TestMemory(t *testing.T) {
	t.Parallel()
	testStore(t, NewMemory())
}

func TestRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	testStore(t, NewRedis(client, "test:", time.Minute))

	ttl, err := client.TTL(ctx, "test:tpl").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
