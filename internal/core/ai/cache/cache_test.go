package cache

import (
	"context"
	"testing"
	"time"

	"bouquet-recommender/internal/infrastructure/config"
	"bouquet-recommender/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(maxSize int, ttl time.Duration) (*CacheManager, *time.Time) {
	now := time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)
	m := NewManager(&config.CacheConfig{MaxSize: maxSize, TTL: ttl})
	m.now = func() time.Time { return now }
	return m, &now
}

func TestCacheManager_GetSet(t *testing.T) {
	m, _ := newTestManager(10, time.Hour)
	defer m.Close()
	ctx := context.Background()

	_, err := m.Get(ctx, "prompt")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "prompt", "value"))
	got, err := m.Get(ctx, "prompt")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	stats := m.Stats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
}

func TestCacheManager_Expiry(t *testing.T) {
	m, now := newTestManager(10, time.Minute)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "prompt", "value"))
	*now = now.Add(2 * time.Minute)

	_, err := m.Get(ctx, "prompt")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	assert.Equal(t, 0, m.Stats()["size"])
}

func TestCacheManager_EvictsLeastUsed(t *testing.T) {
	m, now := newTestManager(2, time.Hour)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1"))
	*now = now.Add(time.Second)
	require.NoError(t, m.Set(ctx, "b", "2"))
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "c", "3"))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, common.ErrCacheMiss, "b was never read and should be evicted")
	_, err = m.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("x"), Key("x"))
	assert.NotEqual(t, Key("x"), Key("y"))
	assert.Contains(t, Key("x"), "bouquet:gen:")
}

func TestNew_Disabled(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Enabled = false

	store, err := New(cfg)
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestService_UnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	svc := NewServiceWithClient(client, &config.CacheConfig{TTL: time.Minute, RedisAddr: "127.0.0.1:1"})
	defer svc.Close()

	_, err := svc.Get(context.Background(), "prompt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrCacheMiss)
	assert.Error(t, svc.Set(context.Background(), "prompt", "value"))
	assert.Equal(t, "redis", svc.Stats()["backend"])
}
