package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/model"
	"github.com/studentenschaft/Biddit2-sub002/internal/repository"
)

// ── 界面开关模块业务错误 ──

var (
	ErrFlagUnknown = errors.New("未知的开关键")
)

// FlagService 用户界面开关业务接口
type FlagService interface {
	List(ctx context.Context, userID string) (*dto.FlagsResponse, error)
	Set(ctx context.Context, userID, key string, value bool) (*dto.FlagsResponse, error)
}

type flagService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFlagService 创建 FlagService 实例
func NewFlagService(repo *repository.Repository, logger *zap.Logger) FlagService {
	return &flagService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *flagService) List(ctx context.Context, userID string) (*dto.FlagsResponse, error) {
	flags, err := s.repo.UserFlag.List(ctx, userID)
	if err != nil {
		s.logger.Error("查询界面开关失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toFlagsResponse(flags), nil
}

// ────────────────────── Set ──────────────────────

func (s *flagService) Set(ctx context.Context, userID, key string, value bool) (*dto.FlagsResponse, error) {
	if !model.IsKnownFlag(key) {
		return nil, ErrFlagUnknown
	}

	flag := &model.UserFlag{UserID: userID, FlagKey: key, Value: value}
	flag.StampUpdated(userID)
	if err := s.repo.UserFlag.Upsert(ctx, flag); err != nil {
		s.logger.Error("更新界面开关失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return s.List(ctx, userID)
}

func toFlagsResponse(flags []model.UserFlag) *dto.FlagsResponse {
	resp := &dto.FlagsResponse{Flags: make(map[string]bool, len(model.KnownFlagKeys))}
	for _, key := range model.KnownFlagKeys {
		resp.Flags[key] = false
	}
	var latest time.Time
	for _, f := range flags {
		if !model.IsKnownFlag(f.FlagKey) {
			continue
		}
		resp.Flags[f.FlagKey] = f.Value
		if f.UpdatedAt.After(latest) {
			latest = f.UpdatedAt
		}
	}
	if !latest.IsZero() {
		resp.UpdatedAt = latest.Format("2006-01-02T15:04:05Z")
	}
	return resp
}
