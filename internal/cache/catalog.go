// Package cache 课程目录缓存与会话存储，Redis 不可用时退化为进程内实现。
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/studentenschaft/Biddit2-sub002/internal/model"
	pkgredis "github.com/studentenschaft/Biddit2-sub002/pkg/redis"
)

// CatalogEntry 单个 cisId 的课程目录快照
type CatalogEntry struct {
	FetchedAt time.Time      `json:"fetched_at"`
	Courses   []model.Course `json:"courses"`
}

// CatalogCache 课程目录缓存，未命中返回 redis.ErrCacheMiss
type CatalogCache interface {
	Get(ctx context.Context, cisID string) (*CatalogEntry, error)
	Set(ctx context.Context, cisID string, entry *CatalogEntry) error
	Invalidate(ctx context.Context, cisID string) error
}

const catalogKeyPrefix = "catalog:"

// ── Redis 实现 ──

type redisCatalogCache struct {
	rc  *pkgredis.Client
	ttl time.Duration
}

// NewRedisCatalogCache 基于 Redis 的目录缓存
func NewRedisCatalogCache(rc *pkgredis.Client, ttl time.Duration) CatalogCache {
	return &redisCatalogCache{rc: rc, ttl: ttl}
}

func (c *redisCatalogCache) Get(ctx context.Context, cisID string) (*CatalogEntry, error) {
	var entry CatalogEntry
	if err := c.rc.GetJSON(ctx, catalogKeyPrefix+cisID, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *redisCatalogCache) Set(ctx context.Context, cisID string, entry *CatalogEntry) error {
	return c.rc.SetJSON(ctx, catalogKeyPrefix+cisID, entry, c.ttl)
}

func (c *redisCatalogCache) Invalidate(ctx context.Context, cisID string) error {
	return c.rc.Delete(ctx, catalogKeyPrefix+cisID)
}

// ── 进程内实现 ──

type memoryCatalogCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]*CatalogEntry
	now     func() time.Time
}

// NewMemoryCatalogCache 进程内目录缓存
func NewMemoryCatalogCache(ttl time.Duration) CatalogCache {
	return &memoryCatalogCache{ttl: ttl, entries: make(map[string]*CatalogEntry), now: time.Now}
}

func (c *memoryCatalogCache) Get(_ context.Context, cisID string) (*CatalogEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[cisID]
	if !ok || (c.ttl > 0 && c.now().Sub(entry.FetchedAt) > c.ttl) {
		return nil, pkgredis.ErrCacheMiss
	}
	return cloneEntry(entry), nil
}

func (c *memoryCatalogCache) Set(_ context.Context, cisID string, entry *CatalogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cisID] = cloneEntry(entry)
	return nil
}

func (c *memoryCatalogCache) Invalidate(_ context.Context, cisID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cisID)
	return nil
}

func cloneEntry(e *CatalogEntry) *CatalogEntry {
	out := &CatalogEntry{FetchedAt: e.FetchedAt, Courses: make([]model.Course, len(e.Courses))}
	for i, c := range e.Courses {
		out.Courses[i] = c.Clone()
	}
	return out
}
