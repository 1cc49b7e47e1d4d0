package cache

import (
	"context"
	"sync"
	"time"

	pkgredis "github.com/studentenschaft/Biddit2-sub002/pkg/redis"
)

// SessionStore 会话相关存储：上游 token 与已注销的会话 jti
// *redis.Client 直接满足该接口
type SessionStore interface {
	PutUpstreamToken(ctx context.Context, jti, token string, ttl time.Duration) error
	GetUpstreamToken(ctx context.Context, jti string) (string, error)
	DeleteUpstreamToken(ctx context.Context, jti string) error
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

type expiring struct {
	value     string
	expiresAt time.Time
}

// memorySessionStore 单实例部署或测试使用
type memorySessionStore struct {
	mu        sync.RWMutex
	tokens    map[string]expiring
	blacklist map[string]time.Time
	now       func() time.Time
}

// NewMemorySessionStore 进程内会话存储
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		tokens:    make(map[string]expiring),
		blacklist: make(map[string]time.Time),
		now:       time.Now,
	}
}

func (s *memorySessionStore) PutUpstreamToken(_ context.Context, jti, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[jti] = expiring{value: token, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memorySessionStore) GetUpstreamToken(_ context.Context, jti string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.tokens[jti]
	if !ok || !s.now().Before(e.expiresAt) {
		return "", pkgredis.ErrCacheMiss
	}
	return e.value, nil
}

func (s *memorySessionStore) DeleteUpstreamToken(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, jti)
	return nil
}

func (s *memorySessionStore) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[jti] = s.now().Add(ttl)
	return nil
}

func (s *memorySessionStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	until, ok := s.blacklist[jti]
	return ok && s.now().Before(until), nil
}
