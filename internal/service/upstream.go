package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/studentenschaft/Biddit2-sub002/internal/cache"
	"github.com/studentenschaft/Biddit2-sub002/internal/client"
	"github.com/studentenschaft/Biddit2-sub002/internal/model"
	"github.com/studentenschaft/Biddit2-sub002/internal/session"
	pkgerrors "github.com/studentenschaft/Biddit2-sub002/pkg/errors"
	pkgredis "github.com/studentenschaft/Biddit2-sub002/pkg/redis"
)

// ErrSessionExpired 会话对应的上游 token 不存在或已被判定失效
var ErrSessionExpired = errors.New("会话已过期，请重新登录")

// Caller 请求方身份，来自会话 JWT
type Caller struct {
	UserID    string
	Role      string
	SessionID string // jti
}

// Upstream 上游调用的公共协作者：取 token、上报错误、累计 401
type Upstream struct {
	sessions cache.SessionStore
	tracker  *session.Tracker
	reporter pkgerrors.Reporter
}

// NewUpstream 创建上游协作者
func NewUpstream(sessions cache.SessionStore, tracker *session.Tracker, reporter pkgerrors.Reporter) *Upstream {
	return &Upstream{sessions: sessions, tracker: tracker, reporter: reporter}
}

// Token 读取会话对应的上游 token
func (u *Upstream) Token(ctx context.Context, caller Caller) (string, error) {
	token, err := u.sessions.GetUpstreamToken(ctx, caller.SessionID)
	if errors.Is(err, pkgredis.ErrCacheMiss) {
		return "", ErrSessionExpired
	}
	if err != nil {
		return "", fmt.Errorf("读取上游 token 失败: %w", err)
	}
	return token, nil
}

// Observe 记录一次上游调用结果：成功清零失败计数，401 累计失败，其余错误仅上报
func (u *Upstream) Observe(ctx context.Context, caller Caller, op string, err error, fields ...zap.Field) {
	if err == nil {
		u.tracker.RecordSuccess(caller.UserID)
		return
	}
	if errors.Is(err, client.ErrUnauthorized) {
		u.tracker.RecordFailure(caller.UserID, caller.SessionID)
	}
	fields = append(fields, zap.String("user_id", caller.UserID))
	u.reporter.Report(ctx, op, err, fields...)
}

// ── 课程数据来源 ──

// courseSource 目录（带缓存）与已注册课程的读取
type courseSource struct {
	api      client.CourseAPI
	catalog  cache.CatalogCache
	upstream *Upstream
	logger   *zap.Logger
	now      func() time.Time
}

func newCourseSource(api client.CourseAPI, catalog cache.CatalogCache, upstream *Upstream, logger *zap.Logger) *courseSource {
	return &courseSource{api: api, catalog: catalog, upstream: upstream, logger: logger, now: time.Now}
}

// Catalog 读取 cisId 的课程目录；缓存未命中时拉取上游并回写
func (s *courseSource) Catalog(ctx context.Context, caller Caller, token, cisID string) ([]model.Course, time.Time, error) {
	if cisID == "" {
		return nil, time.Time{}, nil
	}
	entry, err := s.catalog.Get(ctx, cisID)
	if err == nil {
		return entry.Courses, entry.FetchedAt, nil
	}
	if !errors.Is(err, pkgredis.ErrCacheMiss) {
		s.logger.Warn("读取目录缓存失败", zap.String("cis_id", cisID), zap.Error(err))
	}

	courses, err := s.api.ListCourses(ctx, token, cisID)
	s.upstream.Observe(ctx, caller, "course_api.list_courses", err, zap.String("cis_id", cisID))
	if err != nil {
		return nil, time.Time{}, err
	}

	fetched := s.now()
	if err := s.catalog.Set(ctx, cisID, &cache.CatalogEntry{FetchedAt: fetched, Courses: courses}); err != nil {
		s.logger.Warn("写入目录缓存失败", zap.String("cis_id", cisID), zap.Error(err))
	}
	return courses, fetched, nil
}

// Enrolled 读取已注册课程（不缓存）
func (s *courseSource) Enrolled(ctx context.Context, caller Caller, token, cisID string) ([]model.Course, error) {
	if cisID == "" {
		return nil, nil
	}
	courses, err := s.api.ListMyCourses(ctx, token, cisID)
	s.upstream.Observe(ctx, caller, "course_api.list_my_courses", err, zap.String("cis_id", cisID))
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// identifierSet 课程标识集合
func identifierSet(courses []model.Course) map[string]bool {
	set := make(map[string]bool)
	for _, c := range courses {
		for _, id := range c.Identifiers() {
			set[id] = true
		}
	}
	return set
}

func containsAny(set map[string]bool, ids []string) bool {
	for _, id := range ids {
		if set[id] {
			return true
		}
	}
	return false
}
