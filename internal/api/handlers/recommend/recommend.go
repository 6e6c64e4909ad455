package recommend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"bouquet-recommender/internal/core/bouquet"
	"bouquet-recommender/internal/core/stream"
	"bouquet-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxSituationLength 情境文字的最大字數
const maxSituationLength = 1000

// Recommender 推薦流程
type Recommender interface {
	Recommend(ctx context.Context, situation string, report bouquet.Reporter) common.BouquetRecipeResult
}

// Handler 花束推薦處理器
type Handler struct {
	recommender Recommender
	timeout     time.Duration
}

// NewHandler 創建推薦處理器，timeout 為 0 時不設上限
func NewHandler(r Recommender, timeout time.Duration) *Handler {
	return &Handler{recommender: r, timeout: timeout}
}

// situation 從查詢字串或 JSON 請求體取得情境
func situation(c *gin.Context) (string, *common.CustomError) {
	var req common.RecommendRequest
	req.Situation = c.Query("situation")

	if strings.TrimSpace(req.Situation) == "" && c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			return "", common.NewError(common.ErrCodeInvalidRequest, "요청 형식이 올바르지 않아요.", http.StatusBadRequest, err)
		}
	}

	s := strings.TrimSpace(req.Situation)
	if s == "" {
		return "", common.NewError(common.ErrCodeInvalidRequest, "상황을 입력해주세요.", http.StatusBadRequest, nil)
	}
	if utf8.RuneCountInString(s) > maxSituationLength {
		return "", common.NewError(common.ErrCodeInvalidRequest, "상황 설명이 너무 길어요.", http.StatusBadRequest, nil)
	}
	return s, nil
}

// HandleRecommend 以換行分隔 JSON 串流輸出進度與唯一的推薦結果
func (h *Handler) HandleRecommend(c *gin.Context) {
	s, cerr := situation(c)
	if cerr != nil {
		common.LogWarn("無效的推薦請求", zap.Error(cerr))
		common.WriteErrorResponse(c, cerr)
		return
	}

	c.Header("Content-Type", "application/x-ndjson; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	em := stream.NewEmitter(c.Writer, c.Writer.Flush)
	defer em.Recover()

	// 用戶端斷線不會中斷流程，一旦開始就走到結果為止
	ctx := context.WithoutCancel(c.Request.Context())
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	common.LogInfo("開始推薦",
		zap.String("request_id", common.RequestIDFrom(ctx)),
		zap.Int("situation_length", utf8.RuneCountInString(s)),
	)

	result := h.recommender.Recommend(ctx, s, em.Report)
	if err := em.Result(result); err != nil {
		common.LogWarn("推薦結果寫入失敗",
			zap.Error(err),
			zap.String("request_id", common.RequestIDFrom(ctx)),
		)
	}
}
