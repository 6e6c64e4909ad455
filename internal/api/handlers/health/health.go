package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"bouquet-recommender/internal/core/ai/queue"
	"bouquet-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger 可以檢查連線的依賴，例如花卉目錄
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsReporter 回報緩存統計
type StatsReporter interface {
	Stats() map[string]interface{}
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Catalog   string                 `json:"catalog"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	version string
	catalog Pinger
	queue   *queue.Manager
	cache   StatsReporter
	timeout time.Duration
}

// NewHandler 創建健康檢查處理器，queue 與 cache 可為 nil
func NewHandler(version string, catalog Pinger, q *queue.Manager, cache StatsReporter) *Handler {
	return &Handler{version: version, catalog: catalog, queue: q, cache: cache, timeout: 2 * time.Second}
}

func (h *Handler) pingCatalog(ctx context.Context) error {
	if h.catalog == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.catalog.Ping(ctx)
}

// HealthCheck 回報執行狀態、目錄連線與生成隊列
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Catalog:   "ok",
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.queue != nil {
		response.Queue = h.queue.GetQueueStatus()
	}
	if h.cache != nil {
		response.Cache = h.cache.Stats()
	}

	status := http.StatusOK
	if err := h.pingCatalog(c.Request.Context()); err != nil {
		common.LogWarn("花卉目錄連線失敗", zap.Error(err))
		response.Status = "degraded"
		response.Catalog = "unavailable"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, response)
}

// ReadinessCheck 目錄可連線時才算就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if err := h.pingCatalog(c.Request.Context()); err != nil {
		common.LogWarn("就緒檢查失敗", zap.Error(err))
		common.WriteErrorResponse(c, common.ErrServiceUnavailable.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
