package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/studentenschaft/Biddit2-sub002/config"
	"github.com/studentenschaft/Biddit2-sub002/internal/cache"
	"github.com/studentenschaft/Biddit2-sub002/internal/client"
	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/model"
	"github.com/studentenschaft/Biddit2-sub002/internal/repository"
	"github.com/studentenschaft/Biddit2-sub002/internal/session"
	"github.com/studentenschaft/Biddit2-sub002/pkg/jwt"
)

var (
	ErrIdentityRejected = errors.New("身份提供方未能确认该 token")
	ErrIdentityMismatch = errors.New("新 token 与当前会话不属于同一用户")
	ErrUserNotFound     = errors.New("用户不存在")
)

// AuthService 会话业务接口
// 身份由学校身份提供方确认；本服务只签发自己的会话 JWT，并按 jti 保存上游 token
type AuthService interface {
	CreateSession(ctx context.Context, idToken string) (*dto.SessionResponse, error)
	RefreshSession(ctx context.Context, caller Caller, idToken string, oldExpiry time.Time) (*dto.SessionResponse, error)
	Logout(ctx context.Context, caller Caller, expiry time.Time) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type authService struct {
	cfg      *config.Config
	repo     *repository.Repository
	jwtMgr   *jwt.Manager
	api      client.CourseAPI
	sessions cache.SessionStore
	tracker  *session.Tracker
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	api client.CourseAPI,
	sessions cache.SessionStore,
	tracker *session.Tracker,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:      cfg,
		repo:     repo,
		jwtMgr:   jwtMgr,
		api:      api,
		sessions: sessions,
		tracker:  tracker,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *authService) CreateSession(ctx context.Context, idToken string) (*dto.SessionResponse, error) {
	// 1. 向上游确认身份
	profile, err := s.verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	// 2. 建立 / 更新本地用户映射
	role := model.RoleStudent
	if s.cfg.Auth.IsAdmin(profile.ID) {
		role = model.RoleAdmin
	}
	user := &model.User{
		ExternalID: profile.ID,
		Name:       profile.DisplayName(),
		Email:      profile.Email,
		Role:       role,
	}
	if err := s.repo.User.Upsert(ctx, user); err != nil {
		s.logger.Error("保存用户失败", zap.String("external_id", profile.ID), zap.Error(err))
		return nil, err
	}

	// 3. 签发会话
	resp, err := s.issue(ctx, user, idToken)
	if err != nil {
		return nil, err
	}
	s.tracker.Reset(user.UserID)
	return resp, nil
}

func (s *authService) RefreshSession(ctx context.Context, caller Caller, idToken string, oldExpiry time.Time) (*dto.SessionResponse, error) {
	user, err := s.repo.User.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	profile, err := s.verify(ctx, idToken)
	if err != nil {
		// 静默续期失败计入会话失效判定
		s.tracker.RecordFailure(caller.UserID, caller.SessionID)
		return nil, err
	}
	if !strings.EqualFold(profile.ID, user.ExternalID) {
		return nil, ErrIdentityMismatch
	}

	resp, err := s.issue(ctx, user, idToken)
	if err != nil {
		return nil, err
	}

	s.revoke(ctx, caller.SessionID, oldExpiry)
	s.tracker.Reset(user.UserID)
	return resp, nil
}

func (s *authService) Logout(ctx context.Context, caller Caller, expiry time.Time) error {
	if err := s.sessions.BlacklistToken(ctx, caller.SessionID, expiry.Sub(s.now())); err != nil {
		s.logger.Error("注销会话失败", zap.String("jti", caller.SessionID), zap.Error(err))
		return err
	}
	if err := s.sessions.DeleteUpstreamToken(ctx, caller.SessionID); err != nil {
		s.logger.Warn("删除上游 token 失败", zap.String("jti", caller.SessionID), zap.Error(err))
	}
	s.tracker.Reset(caller.UserID)
	return nil
}

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ── 内部辅助方法 ──

func (s *authService) verify(ctx context.Context, idToken string) (*client.Profile, error) {
	profile, err := s.api.GetProfile(ctx, idToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return nil, ErrIdentityRejected
		}
		s.logger.Warn("身份确认失败", zap.Error(err))
		return nil, err
	}
	if profile.ID == "" {
		return nil, ErrIdentityRejected
	}
	return profile, nil
}

func (s *authService) issue(ctx context.Context, user *model.User, idToken string) (*dto.SessionResponse, error) {
	token, claims, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成会话 Token 失败", zap.Error(err))
		return nil, err
	}
	if err := s.sessions.PutUpstreamToken(ctx, claims.ID, idToken, s.jwtMgr.AccessTokenTTL()); err != nil {
		s.logger.Error("保存上游 token 失败", zap.Error(err))
		return nil, err
	}
	return &dto.SessionResponse{
		AccessToken: token,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:        toUserResponse(user),
	}, nil
}

func (s *authService) revoke(ctx context.Context, jti string, expiry time.Time) {
	if err := s.sessions.BlacklistToken(ctx, jti, expiry.Sub(s.now())); err != nil {
		s.logger.Warn("旧会话加入黑名单失败", zap.String("jti", jti), zap.Error(err))
	}
	if err := s.sessions.DeleteUpstreamToken(ctx, jti); err != nil {
		s.logger.Warn("删除旧上游 token 失败", zap.String("jti", jti), zap.Error(err))
	}
}

func toUserResponse(user *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:         user.UserID,
		ExternalID: user.ExternalID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
	}
	if user.LastLoginAt != nil {
		resp.LastLoginAt = user.LastLoginAt.Format(time.RFC3339)
	}
	return resp
}
