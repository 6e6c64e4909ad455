package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bouquet-recommender/internal/core/ai/cache"
	"bouquet-recommender/internal/core/ai/provider"
	"bouquet-recommender/internal/core/ai/queue"
	"bouquet-recommender/internal/infrastructure/config"
	"bouquet-recommender/internal/pkg/common"
	"bouquet-recommender/internal/pkg/metrics"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// Service 文字生成服務
type Service struct {
	config   *config.Config
	provider provider.Provider
	cache    cache.Store
	queue    *queue.Manager
}

// NewService 創建文字生成服務，cache 與 queue 可以為 nil
func NewService(cfg *config.Config, p provider.Provider, store cache.Store, q *queue.Manager) *Service {
	return &Service{
		config:   cfg,
		provider: p,
		cache:    store,
		queue:    q,
	}
}

// Render 以 {name} 佔位符渲染模板，{{ 與 }} 代表字面大括號
func Render(ctx context.Context, template string, vars map[string]any) (string, error) {
	tpl := prompt.FromMessages(schema.FString, schema.UserMessage(template))
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("failed to render prompt: no messages")
	}
	return msgs[0].Content, nil
}

// Generate 渲染模板並呼叫一次生成供應商，返回原始文字
func (s *Service) Generate(ctx context.Context, template string, vars map[string]any) (string, error) {
	rendered, err := Render(ctx, template, vars)
	if err != nil {
		return "", common.ErrGenerationFailed.Wrap(err)
	}
	rendered = strings.TrimSpace(rendered)

	// 檢查緩存
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, rendered); err == nil && val != "" {
			return val, nil
		} else if err != nil && !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取生成快取失敗", zap.Error(err))
		}
	}

	if s.queue != nil {
		release, err := s.queue.Acquire(ctx)
		if err != nil {
			return "", common.ErrGenerationFailed.Wrap(err)
		}
		defer release()
	}

	callCtx := ctx
	if timeout := s.provider.GetTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	common.LogDebug("送出生成請求", zap.String("prompt", rendered))

	start := time.Now()
	resp, err := s.provider.Generate(callCtx, &provider.Request{
		Messages:    []provider.Message{{Role: provider.RoleUser, Content: rendered}},
		MaxTokens:   s.config.AI.MaxTokens,
		Temperature: s.config.AI.Temperature,
	})
	duration := time.Since(start)
	common.LogGeneration(s.provider.Name(), duration, err, common.RequestIDFrom(ctx))

	if err != nil {
		status := "error"
		if common.IsQuotaError(err) {
			status = "quota"
		}
		metrics.GenerationDuration.WithLabelValues(s.provider.Name(), status).Observe(duration.Seconds())
		return "", err
	}
	metrics.GenerationDuration.WithLabelValues(s.provider.Name(), "ok").Observe(duration.Seconds())

	if s.cache != nil && strings.TrimSpace(resp.Content) != "" {
		if err := s.cache.Set(ctx, rendered, resp.Content); err != nil {
			common.LogWarn("寫入生成快取失敗", zap.Error(err))
		}
	}

	return resp.Content, nil
}

// Stats 返回緩存統計，未啟用緩存時為 nil
func (s *Service) Stats() map[string]interface{} {
	if s.cache == nil {
		return nil
	}
	return s.cache.Stats()
}

// Close 關閉供應商與緩存
func (s *Service) Close() error {
	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	if s.queue != nil {
		s.queue.Close()
	}
	errs = append(errs, s.provider.Close())
	return errors.Join(errs...)
}
