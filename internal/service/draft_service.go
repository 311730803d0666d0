package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"quizsmith/internal/util"
	"quizsmith/pkg/debounce"
	"quizsmith/pkg/logger"
	"quizsmith/pkg/monitoring"

	"go.uber.org/zap"
)

const draftWriteTimeout = 5 * time.Second

// DraftService 草稿自动保存：同一用户同一 key 的快照在静默期后只写入最后一次，后写覆盖先写
type DraftService struct {
	Store     DraftStore
	debouncer *debounce.Debouncer

	// writeMu 串行化对 Store 的写入和删除
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]*Draft
}

func NewDraftService(store DraftStore, wait time.Duration) *DraftService {
	return &DraftService{
		Store:     store,
		debouncer: debounce.New(wait),
		pending:   make(map[string]*Draft),
	}
}

func draftKey(userID uint, key string) string {
	return fmt.Sprintf("%d:%s", userID, key)
}

// Save 登记新的快照并重新计时，立即返回
func (s *DraftService) Save(caller Caller, key string, data json.RawMessage) (*Draft, error) {
	if key == "" {
		return nil, util.NewValidationError("key", "is required")
	}
	if !json.Valid(data) {
		return nil, util.NewValidationError("data", "must be valid JSON")
	}

	storeKey := draftKey(caller.UserID, key)
	draft := &Draft{Key: key, Data: data, UpdatedAt: time.Now()}

	s.mu.Lock()
	s.pending[storeKey] = draft
	s.mu.Unlock()

	s.debouncer.Trigger(storeKey, func() { s.write(storeKey, draft) })
	return draft, nil
}

// write 只写入仍是最新的快照；已被更新、取消或放弃的快照直接跳过
func (s *DraftService) write(storeKey string, draft *Draft) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	current := s.pending[storeKey] == draft
	s.mu.Unlock()
	if !current {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), draftWriteTimeout)
	defer cancel()

	if err := s.Store.Put(ctx, storeKey, draft); err != nil {
		logger.Log.Error("Failed to write draft", zap.String("key", storeKey), zap.Error(err))
	} else {
		monitoring.DraftWrites.Inc()
	}

	s.mu.Lock()
	if s.pending[storeKey] == draft {
		delete(s.pending, storeKey)
	}
	s.mu.Unlock()
}

// Get 返回最新快照；尚未落盘的快照优先
func (s *DraftService) Get(ctx context.Context, caller Caller, key string) (*Draft, error) {
	storeKey := draftKey(caller.UserID, key)

	s.mu.Lock()
	draft, ok := s.pending[storeKey]
	s.mu.Unlock()
	if ok {
		return draft, nil
	}
	return s.Store.Get(ctx, storeKey)
}

// Discard 放弃草稿：丢弃尚未写入的快照并删除已保存的版本
func (s *DraftService) Discard(ctx context.Context, caller Caller, key string) error {
	storeKey := draftKey(caller.UserID, key)

	s.debouncer.Cancel(storeKey)
	s.mu.Lock()
	delete(s.pending, storeKey)
	s.mu.Unlock()

	// 等待正在进行的写入结束，避免旧快照在删除后写回
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.Store.Delete(ctx, storeKey)
}

// Cancel 只丢弃尚未写入的快照（离开编辑器时调用），已保存的版本保留
func (s *DraftService) Cancel(caller Caller, key string) bool {
	storeKey := draftKey(caller.UserID, key)
	dropped := s.debouncer.Cancel(storeKey)

	s.mu.Lock()
	delete(s.pending, storeKey)
	s.mu.Unlock()
	return dropped
}

// Flush 立即写入所有待保存的快照，退出前调用
func (s *DraftService) Flush() {
	s.debouncer.Flush()
}
