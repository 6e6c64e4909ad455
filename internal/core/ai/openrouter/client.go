package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bouquet-recommender/internal/core/ai/provider"
	"bouquet-recommender/internal/infrastructure/config"
	"bouquet-recommender/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client OpenRouter 文字生成客戶端
type Client struct {
	config  *config.Config
	client  *resty.Client
	timeout time.Duration
}

// chatRequest OpenRouter chat completion 請求
type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []provider.Message `json:"messages"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
}

// chatResponse OpenRouter chat completion 響應
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage provider.Usage `json:"usage"`
	Error *apiError      `json:"error,omitempty"`
}

// apiError OpenRouter 錯誤內容，有時會以 200 回傳
type apiError struct {
	Message string      `json:"message"`
	Code    interface{} `json:"code"`
}

// NewClient 創建 OpenRouter 客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.OpenRouter.BaseURL).
		SetTimeout(cfg.AI.Timeout).
		SetRetryCount(0).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.OpenRouter.APIKey)).
		SetHeader("HTTP-Referer", "https://flome.kr").
		SetHeader("X-Title", "FloMe Bouquet Recommender")

	return &Client{
		config:  cfg,
		client:  client,
		timeout: cfg.AI.Timeout,
	}
}

// Name 供應商名稱
func (c *Client) Name() string {
	return "openrouter"
}

// GetModel 模型名稱
func (c *Client) GetModel() string {
	return c.config.OpenRouter.Model
}

// GetTimeout 請求超時
func (c *Client) GetTimeout() time.Duration {
	return c.timeout
}

// Close 關閉客戶端
func (c *Client) Close() error {
	return nil
}

// Generate 發送一次 chat completion 請求
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	body := chatRequest{
		Model:       c.config.OpenRouter.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, common.ErrGenerationFailed.Wrap(fmt.Errorf("failed to send request to OpenRouter: %w", err))
	}

	if resp.StatusCode() != http.StatusOK {
		cause := fmt.Errorf("OpenRouter API returned %d: %s", resp.StatusCode(), truncate(resp.String(), 300))
		if resp.StatusCode() == http.StatusTooManyRequests || common.IsQuotaError(cause) {
			return nil, common.ErrQuotaExceeded.Wrap(cause)
		}
		return nil, common.ErrGenerationFailed.Wrap(cause)
	}

	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, common.ErrGenerationFailed.Wrap(fmt.Errorf("failed to parse OpenRouter response: %w", err))
	}

	if result.Error != nil {
		cause := fmt.Errorf("OpenRouter error %v: %s", result.Error.Code, result.Error.Message)
		if common.IsQuotaError(cause) {
			return nil, common.ErrQuotaExceeded.Wrap(cause)
		}
		return nil, common.ErrGenerationFailed.Wrap(cause)
	}

	if len(result.Choices) == 0 {
		return nil, common.ErrGenerationFailed.Wrap(fmt.Errorf("no choices in OpenRouter response"))
	}

	common.LogDebug("OpenRouter 回應",
		zap.Int("total_tokens", result.Usage.TotalTokens),
		zap.String("raw_output", truncate(result.Choices[0].Message.Content, 200)),
	)

	return &provider.Response{
		Content: result.Choices[0].Message.Content,
		Usage:   result.Usage,
	}, nil
}

// truncate 截斷過長的文字
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
