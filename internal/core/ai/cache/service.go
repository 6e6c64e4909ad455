package cache

import (
	"context"
	"errors"
	"fmt"

	"bouquet-recommender/internal/infrastructure/config"
	"bouquet-recommender/internal/pkg/common"
	"bouquet-recommender/internal/pkg/metrics"

	"github.com/go-redis/redis/v8"
)

// Service Redis 緩存服務
type Service struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewService 創建 Redis 緩存服務
func NewService(cfg *config.CacheConfig) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewServiceWithClient(client, cfg), nil
}

// NewServiceWithClient 以既有的 Redis 客戶端建立緩存服務
func NewServiceWithClient(client *redis.Client, cfg *config.CacheConfig) *Service {
	return &Service{client: client, config: cfg}
}

// Get 獲取緩存
func (s *Service) Get(ctx context.Context, prompt string) (string, error) {
	val, err := s.client.Get(ctx, Key(prompt)).Result()
	if errors.Is(err, redis.Nil) {
		metrics.GenerationCacheHits.WithLabelValues("miss").Inc()
		common.LogCacheMiss("redis")
		return "", common.ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cache: %w", err)
	}

	metrics.GenerationCacheHits.WithLabelValues("hit").Inc()
	common.LogCacheHit("redis")
	return val, nil
}

// Set 設置緩存
func (s *Service) Set(ctx context.Context, prompt, value string) error {
	if err := s.client.Set(ctx, Key(prompt), value, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Stats 緩存統計
func (s *Service) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"backend": "redis",
		"addr":    s.config.RedisAddr,
	}
	if pool := s.client.PoolStats(); pool != nil {
		stats["hits"] = pool.Hits
		stats["misses"] = pool.Misses
		stats["total_conns"] = pool.TotalConns
	}
	return stats
}

// Close 關閉 Redis 連線
func (s *Service) Close() error {
	return s.client.Close()
}
