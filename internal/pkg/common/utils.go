package common

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WriteErrorResponse 寫入錯誤響應
func WriteErrorResponse(c *gin.Context, err *CustomError) {
	c.AbortWithStatusJSON(err.Status, gin.H{
		"error": err.Message,
		"code":  err.Code,
	})
}

type requestIDKey struct{}

// WithRequestID 把請求 ID 放入 context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom 從 context 取出請求 ID
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
