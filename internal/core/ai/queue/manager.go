package queue

import (
	"context"
	"errors"
	"sync/atomic"

	"bouquet-recommender/internal/infrastructure/config"
	"bouquet-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrQueueFull 等待中的請求已達上限
var ErrQueueFull = errors.New("queue is full")

// ErrClosed 隊列已關閉
var ErrClosed = errors.New("queue manager is closed")

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	InFlight       int `json:"in_flight"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 限制同時進行的生成呼叫數量
type Manager struct {
	config    *config.QueueConfig
	slots     chan struct{}
	done      chan struct{}
	waiting   int64
	processed int64
	closed    int32
}

// NewManager 創建新的隊列管理器
func NewManager(cfg *config.QueueConfig) *Manager {
	return &Manager{
		config: cfg,
		slots:  make(chan struct{}, cfg.Workers),
		done:   make(chan struct{}),
	}
}

// Acquire 取得一個執行名額，返回釋放函式
func (m *Manager) Acquire(ctx context.Context) (func(), error) {
	if atomic.LoadInt32(&m.closed) == 1 {
		return nil, ErrClosed
	}

	// 檢查隊列容量
	if int(atomic.AddInt64(&m.waiting, 1)) > m.config.MaxSize {
		atomic.AddInt64(&m.waiting, -1)
		common.LogWarn("生成隊列已滿",
			zap.Int("max_queue_size", m.config.MaxSize),
		)
		return nil, ErrQueueFull
	}
	defer atomic.AddInt64(&m.waiting, -1)

	select {
	case m.slots <- struct{}{}:
		var released int32
		return func() {
			if atomic.CompareAndSwapInt32(&released, 0, 1) {
				<-m.slots
				atomic.AddInt64(&m.processed, 1)
			}
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, ErrClosed
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    int(atomic.LoadInt64(&m.waiting)),
		InFlight:       len(m.slots),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		MaxQueueSize:   m.config.MaxSize,
		Workers:        m.config.Workers,
	}
}

// Close 關閉隊列管理器
func (m *Manager) Close() {
	if atomic.CompareAndSwapInt32(&m.closed, 0, 1) {
		close(m.done)
	}
}
