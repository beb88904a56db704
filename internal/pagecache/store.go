// Package pagecache 整页缓存：按 URL 缓存渲染好的 HTML，到期前内容可以是旧的
package pagecache

import (
	"context"
	"sync"
	"time"
)

// Store 缓存后端
type Store interface {
	// Get 未命中时返回 nil, false, nil
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
	// Clear 清空本 Store 下的全部页面
	Clear(ctx context.Context) error
}

type memEntry struct {
	body    []byte
	expires time.Time
}

// MemoryStore 进程内实现，单实例部署与测试使用
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry), now: time.Now}
}

// WithClock 替换时钟，测试用
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
	return m
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.body, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, body []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	cp := make([]byte, len(body))
	copy(cp, body)
	m.mu.Lock()
	m.entries[key] = memEntry{body: cp, expires: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memEntry)
	m.mu.Unlock()
	return nil
}

// Len 含未清理的过期项
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
