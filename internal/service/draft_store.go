package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"quizsmith/internal/util"

	"github.com/go-redis/redis/v8"
	"github.com/natefinch/atomic"
)

// Draft 未保存的编辑快照，整体覆盖，不做合并
type Draft struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data" swaggertype:"object"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// DraftStore 草稿存储后端
type DraftStore interface {
	Put(ctx context.Context, key string, draft *Draft) error
	Get(ctx context.Context, key string) (*Draft, error)
	Delete(ctx context.Context, key string) error
}

// RedisDraftStore 以 JSON 形式保存在 Redis，带过期时间
type RedisDraftStore struct {
	Client redis.Cmdable
	TTL    time.Duration
}

const draftKeyPrefix = "quizsmith:draft:"

func NewRedisDraftStore(client redis.Cmdable, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{Client: client, TTL: ttl}
}

func (s *RedisDraftStore) Put(ctx context.Context, key string, draft *Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, draftKeyPrefix+key, payload, s.TTL).Err()
}

func (s *RedisDraftStore) Get(ctx context.Context, key string) (*Draft, error) {
	payload, err := s.Client.Get(ctx, draftKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, util.ErrDraftNotFound
		}
		return nil, err
	}
	var draft Draft
	if err := json.Unmarshal(payload, &draft); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", key, err)
	}
	return &draft, nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, draftKeyPrefix+key).Err()
}

// FileDraftStore 每个草稿一个文件，原子替换写入
type FileDraftStore struct {
	Dir string
}

func NewFileDraftStore(dir string) (*FileDraftStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileDraftStore{Dir: dir}, nil
}

func (s *FileDraftStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.Dir, hex.EncodeToString(sum[:])+".json")
}

func (s *FileDraftStore) Put(ctx context.Context, key string, draft *Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return atomic.WriteFile(s.path(key), bytes.NewReader(payload))
}

func (s *FileDraftStore) Get(ctx context.Context, key string) (*Draft, error) {
	payload, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, util.ErrDraftNotFound
		}
		return nil, err
	}
	var draft Draft
	if err := json.Unmarshal(payload, &draft); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", key, err)
	}
	return &draft, nil
}

func (s *FileDraftStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
