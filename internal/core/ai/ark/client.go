package ark

import (
	"context"
	"fmt"
	"time"

	"bouquet-recommender/internal/core/ai/provider"
	"bouquet-recommender/internal/infrastructure/config"
	"bouquet-recommender/internal/pkg/common"

	arkmodel "github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// chatModel ark.ChatModel 中本服務用到的部分
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Client 火山方舟文字生成客戶端
type Client struct {
	model   chatModel
	name    string
	timeout time.Duration
}

// NewClient 創建方舟客戶端
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	maxTokens := cfg.AI.MaxTokens
	temperature := float32(cfg.AI.Temperature)
	timeout := cfg.AI.Timeout
	retries := 0

	cm, err := arkmodel.NewChatModel(ctx, &arkmodel.ChatModelConfig{
		BaseURL:     cfg.Ark.BaseURL,
		APIKey:      cfg.Ark.APIKey,
		Model:       cfg.Ark.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		Timeout:     &timeout,
		RetryTimes:  &retries,
	})
	if err != nil {
		return nil, fmt.Errorf("init ark chat model failed: %w", err)
	}

	return &Client{model: cm, name: cfg.Ark.Model, timeout: timeout}, nil
}

// Name 供應商名稱
func (c *Client) Name() string {
	return "ark"
}

// GetModel 模型名稱
func (c *Client) GetModel() string {
	return c.name
}

// GetTimeout 請求超時
func (c *Client) GetTimeout() time.Duration {
	return c.timeout
}

// Close 關閉客戶端
func (c *Client) Close() error {
	return nil
}

// Generate 發送一次對話請求
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	messages := make([]*schema.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case provider.RoleSystem:
			messages = append(messages, schema.SystemMessage(m.Content))
		default:
			messages = append(messages, schema.UserMessage(m.Content))
		}
	}

	out, err := c.model.Generate(ctx, messages)
	if err != nil {
		if common.IsQuotaError(err) {
			return nil, common.ErrQuotaExceeded.Wrap(err)
		}
		return nil, common.ErrGenerationFailed.Wrap(err)
	}
	if out == nil {
		return nil, common.ErrGenerationFailed.Wrap(fmt.Errorf("empty ark response"))
	}

	resp := &provider.Response{Content: out.Content}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		resp.Usage = provider.Usage{
			PromptTokens:     out.ResponseMeta.Usage.PromptTokens,
			CompletionTokens: out.ResponseMeta.Usage.CompletionTokens,
			TotalTokens:      out.ResponseMeta.Usage.TotalTokens,
		}
	}
	return resp, nil
}
