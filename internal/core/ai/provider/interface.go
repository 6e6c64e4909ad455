package provider

import (
	"context"
	"time"
)

// 消息角色
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message 表示與模型的對話消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 表示發送到生成供應商的請求
type Request struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Usage 用量資訊
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response 表示從生成供應商收到的響應
type Response struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Provider 定義文字生成供應商介面
//
// Generate 只做一次呼叫，不重試。額度或限流錯誤必須包裝 common.ErrQuotaExceeded，
// 其他失敗包裝 common.ErrGenerationFailed。
type Provider interface {
	// Generate 生成回應
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Name 供應商名稱，用於日誌與指標
	Name() string

	// GetModel 獲取當前使用的模型名稱
	GetModel() string

	// GetTimeout 獲取請求超時時間
	GetTimeout() time.Duration

	// Close 關閉供應商連接
	Close() error
}
