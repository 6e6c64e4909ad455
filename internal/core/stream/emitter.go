package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"bouquet-recommender/internal/core/bouquet"
	"bouquet-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrResultSent 結果事件已經送出，串流不再接受事件
	ErrResultSent = errors.New("stream: result already sent")
)

// Emitter 以換行分隔 JSON 輸出進度事件與唯一一個結果事件
type Emitter struct {
	mu       sync.Mutex
	enc      *json.Encoder
	flush    func()
	finished bool
	writeErr error
}

// NewEmitter 創建事件輸出器，flush 可為 nil
func NewEmitter(w io.Writer, flush func()) *Emitter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if flush == nil {
		flush = func() {}
	}
	return &Emitter{enc: enc, flush: flush}
}

// Progress 輸出進度事件，結果送出後的進度會被丟棄
func (e *Emitter) Progress(message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.finished {
		return ErrResultSent
	}
	return e.write(common.StreamEvent{Type: common.EventProgress, Message: message})
}

// Report 以 bouquet.Reporter 的形式輸出進度
func (e *Emitter) Report(message string) {
	if err := e.Progress(message); err != nil && !errors.Is(err, ErrResultSent) {
		common.LogDebug("進度事件寫入失敗", zap.Error(err))
	}
}

// Result 輸出唯一的結果事件
func (e *Emitter) Result(result common.BouquetRecipeResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.finished {
		return ErrResultSent
	}
	e.finished = true
	return e.write(common.StreamEvent{Type: common.EventResult, Data: &result})
}

// Close 尚未送出結果時補送錯誤結果
func (e *Emitter) Close() error {
	e.mu.Lock()
	finished := e.finished
	e.mu.Unlock()

	if finished {
		return nil
	}
	return e.Result(bouquet.ErrorResult(""))
}

// Recover 攔截推薦流程中的 panic 並確保串流以結果結束，需以 defer 呼叫
func (e *Emitter) Recover() {
	if r := recover(); r != nil {
		common.LogError("推薦流程發生 panic", zap.Any("panic", r))
	}
	if err := e.Close(); err != nil {
		common.LogWarn("關閉串流失敗", zap.Error(err))
	}
}

// Finished 是否已送出結果
func (e *Emitter) Finished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finished
}

// Err 第一個寫入錯誤
func (e *Emitter) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writeErr
}

func (e *Emitter) write(event common.StreamEvent) error {
	if e.writeErr != nil {
		return e.writeErr
	}
	if err := e.enc.Encode(event); err != nil {
		// 用戶端斷線後仍讓流程走完，只記錄第一個錯誤
		e.writeErr = fmt.Errorf("write %s event: %w", event.Type, err)
		return e.writeErr
	}
	e.flush()
	return nil
}
