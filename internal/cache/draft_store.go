package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

const draftKeyPrefix = "checkout:draft"

// DraftStore 草稿订单存储
// Redis 启用时写入 Redis，否则退化为进程内存储（单实例部署与测试使用）。
type DraftStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	local map[string]localDraft
}

type localDraft struct {
	payload   []byte
	expiresAt time.Time
}

// NewDraftStore 创建草稿存储
func NewDraftStore(ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &DraftStore{
		ttl:   ttl,
		now:   time.Now,
		local: make(map[string]localDraft),
	}
}

// Save 保存草稿
func (s *DraftStore) Save(ctx context.Context, draftID string, value interface{}) error {
	id := strings.TrimSpace(draftID)
	if id == "" {
		return fmt.Errorf("empty draft id")
	}
	if Enabled() {
		return SetJSON(ctx, draftKey(id), value, s.ttl)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
	s.local[id] = localDraft{payload: payload, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Load 读取草稿，不存在或已过期时返回 false
func (s *DraftStore) Load(ctx context.Context, draftID string, dest interface{}) (bool, error) {
	id := strings.TrimSpace(draftID)
	if id == "" {
		return false, nil
	}
	if Enabled() {
		return GetJSON(ctx, draftKey(id), dest)
	}
	s.mu.Lock()
	entry, ok := s.local[id]
	if ok && !s.now().Before(entry.expiresAt) {
		delete(s.local, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Delete 删除草稿
func (s *DraftStore) Delete(ctx context.Context, draftID string) error {
	id := strings.TrimSpace(draftID)
	if Enabled() {
		return Del(ctx, draftKey(id))
	}
	s.mu.Lock()
	delete(s.local, id)
	s.mu.Unlock()
	return nil
}

func (s *DraftStore) evictExpiredLocked() {
	now := s.now()
	for id, entry := range s.local {
		if !now.Before(entry.expiresAt) {
			delete(s.local, id)
		}
	}
}

func draftKey(id string) string {
	return fmt.Sprintf("%s:%s", draftKeyPrefix, id)
}
