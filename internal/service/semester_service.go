package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/studentenschaft/Biddit2-sub002/config"
	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/model"
	"github.com/studentenschaft/Biddit2-sub002/internal/repository"
	pkgerrors "github.com/studentenschaft/Biddit2-sub002/pkg/errors"
)

// ── 学期模块业务错误 ──

var (
	ErrSemesterNotFound      = errors.New("学期不存在")
	ErrSemesterDateInvalid   = errors.New("学期结束日期必须晚于开始日期")
	ErrSemesterExists        = errors.New("学期已存在")
	ErrReferenceInvalid      = errors.New("预估学期必须引用一个已存在的非预估学期")
	ErrProjectedDisabled     = errors.New("预估学期功能未开启")
	ErrSemesterVersionStale  = errors.New("学期已被其他操作修改，请刷新后重试")
	ErrSemesterHasDependents = errors.New("该学期仍被预估学期引用，无法删除")
)

const dateLayout = "2006-01-02"

// SemesterService 学期业务接口
type SemesterService interface {
	Create(ctx context.Context, req *dto.CreateSemesterRequest, callerID string) (*dto.SemesterResponse, error)
	GetByShortName(ctx context.Context, shortName string) (*dto.SemesterResponse, error)
	GetCurrent(ctx context.Context) (*dto.SemesterResponse, error)
	List(ctx context.Context) ([]dto.SemesterResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSemesterRequest, callerID string) (*dto.SemesterResponse, error)
	Activate(ctx context.Context, id string, callerID string) error
	Delete(ctx context.Context, id string, callerID string) error
}

type semesterService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSemesterService 创建 SemesterService 实例
func NewSemesterService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) SemesterService {
	return &semesterService{cfg: cfg, repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *semesterService) Create(ctx context.Context, req *dto.CreateSemesterRequest, callerID string) (*dto.SemesterResponse, error) {
	term, err := ParseTerm(req.ShortName)
	if err != nil {
		return nil, err
	}
	shortName := term.ShortName()

	if _, err := s.repo.Semester.GetByShortName(ctx, shortName); err == nil {
		return nil, ErrSemesterExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询学期失败", zap.String("short_name", shortName), zap.Error(err))
		return nil, err
	}

	startDate, endDate := term.DateRange(time.UTC)
	if req.StartDate != "" {
		if startDate, err = time.Parse(dateLayout, req.StartDate); err != nil {
			return nil, ErrSemesterDateInvalid
		}
	}
	if req.EndDate != "" {
		if endDate, err = time.Parse(dateLayout, req.EndDate); err != nil {
			return nil, ErrSemesterDateInvalid
		}
	}
	if !endDate.After(startDate) {
		return nil, ErrSemesterDateInvalid
	}

	semester := &model.Semester{
		ShortName:   shortName,
		CisID:       req.CisID,
		StartDate:   startDate,
		EndDate:     endDate,
		IsProjected: req.IsProjected,
		Status:      "active",
	}
	if req.IsProjected {
		ref, err := s.validateReference(ctx, req.ReferenceSemester, shortName)
		if err != nil {
			return nil, err
		}
		semester.ReferenceSemester = ref
	}
	semester.StampCreated(callerID)

	if err := s.repo.Semester.Create(ctx, semester); err != nil {
		s.logger.Error("创建学期失败", zap.Error(err))
		return nil, err
	}

	return toSemesterResponse(semester), nil
}

// validateReference 预估学期的参考学期必须存在且自身不是预估学期
func (s *semesterService) validateReference(ctx context.Context, reference, self string) (string, error) {
	if !s.cfg.Feature.ProjectedSemesters {
		return "", ErrProjectedDisabled
	}
	ref := CanonicalTermName(reference)
	if ref == "" || ref == self {
		return "", ErrReferenceInvalid
	}
	refSem, err := s.repo.Semester.GetByShortName(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrReferenceInvalid
		}
		s.logger.Error("查询参考学期失败", zap.String("reference", ref), zap.Error(err))
		return "", err
	}
	if refSem.IsProjected {
		return "", ErrReferenceInvalid
	}
	return ref, nil
}

// ────────────────────── GetByShortName ──────────────────────

func (s *semesterService) GetByShortName(ctx context.Context, shortName string) (*dto.SemesterResponse, error) {
	semester, err := resolveSemester(ctx, s.repo, shortName)
	if err != nil {
		if !errors.Is(err, ErrSemesterNotFound) {
			s.logger.Error("查询学期失败", zap.String("short_name", shortName), zap.Error(err))
		}
		return nil, err
	}
	return toSemesterResponse(semester), nil
}

// ────────────────────── GetCurrent ──────────────────────

func (s *semesterService) GetCurrent(ctx context.Context) (*dto.SemesterResponse, error) {
	semester, err := s.repo.Semester.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		s.logger.Error("查询当前学期失败", zap.Error(err))
		return nil, err
	}

	return toSemesterResponse(semester), nil
}

// ────────────────────── List ──────────────────────

// List 按学期先后倒序（最新在前）
func (s *semesterService) List(ctx context.Context) ([]dto.SemesterResponse, error) {
	semesters, err := s.repo.Semester.List(ctx)
	if err != nil {
		s.logger.Error("列出学期失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SemesterResponse, 0, len(semesters))
	for i := len(semesters) - 1; i >= 0; i-- {
		if semesters[i].IsProjected && !s.cfg.Feature.ProjectedSemesters {
			continue
		}
		result = append(result, *toSemesterResponse(&semesters[i]))
	}

	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *semesterService) Update(ctx context.Context, id string, req *dto.UpdateSemesterRequest, callerID string) (*dto.SemesterResponse, error) {
	semester, err := s.repo.Semester.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if semester.IsStale(req.Version) {
		return nil, ErrSemesterVersionStale
	}

	if req.CisID != nil {
		semester.CisID = *req.CisID
	}
	if req.StartDate != nil {
		startDate, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			return nil, ErrSemesterDateInvalid
		}
		semester.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return nil, ErrSemesterDateInvalid
		}
		semester.EndDate = endDate
	}
	if !semester.EndDate.After(semester.StartDate) {
		return nil, ErrSemesterDateInvalid
	}
	if req.IsProjected != nil {
		semester.IsProjected = *req.IsProjected
	}
	if req.ReferenceSemester != nil {
		semester.ReferenceSemester = *req.ReferenceSemester
	}
	if semester.IsProjected {
		ref, err := s.validateReference(ctx, semester.ReferenceSemester, semester.ShortName)
		if err != nil {
			return nil, err
		}
		semester.ReferenceSemester = ref
	} else {
		semester.ReferenceSemester = ""
	}
	if req.Status != nil {
		semester.Status = *req.Status
	}

	semester.StampUpdated(callerID)

	if err := s.repo.Semester.Update(ctx, semester); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrSemesterVersionStale
		}
		s.logger.Error("更新学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toSemesterResponse(semester), nil
}

// ────────────────────── Activate ──────────────────────

// Activate 将目标学期设为唯一的当前学期
func (s *semesterService) Activate(ctx context.Context, id string, callerID string) error {
	semester, err := s.repo.Semester.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSemesterNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
		return err
	}

	// 使用事务保证 ClearCurrent + Update 的原子性
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Semester.ClearCurrent(ctx); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("清除当前学期失败", zap.Error(err))
		return err
	}

	semester.IsCurrent = true
	semester.StampUpdated(callerID)

	if err := txRepo.Semester.Update(ctx, semester); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrSemesterVersionStale
		}
		s.logger.Error("激活学期失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}

	return nil
}

// ────────────────────── Delete ──────────────────────

func (s *semesterService) Delete(ctx context.Context, id string, callerID string) error {
	semester, err := s.repo.Semester.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSemesterNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
		return err
	}

	all, err := s.repo.Semester.List(ctx)
	if err != nil {
		s.logger.Error("列出学期失败", zap.Error(err))
		return err
	}
	for _, other := range all {
		if other.IsProjected && other.ReferenceSemester == semester.ShortName {
			return ErrSemesterHasDependents
		}
	}

	if err := s.repo.Semester.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除学期失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ── 内部辅助方法 ──

// resolveSemester 按简称（兼容旧版命名）查找已登记学期
func resolveSemester(ctx context.Context, repo *repository.Repository, name string) (*model.Semester, error) {
	term, err := ParseTerm(name)
	if err != nil {
		return nil, ErrSemesterNotFound
	}
	semester, err := repo.Semester.GetByShortName(ctx, term.ShortName())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		return nil, err
	}
	return semester, nil
}

// currentTerm 当前学期：优先登记的当前学期，否则按日期推断
func currentTerm(ctx context.Context, repo *repository.Repository, now time.Time) Term {
	if semester, err := repo.Semester.GetCurrent(ctx); err == nil {
		if t, err := ParseTerm(semester.ShortName); err == nil {
			return t
		}
	}
	return TermForDate(now)
}

func toSemesterResponse(semester *model.Semester) *dto.SemesterResponse {
	return &dto.SemesterResponse{
		ID:                semester.SemesterID,
		ShortName:         semester.ShortName,
		CisID:             semester.CisID,
		StartDate:         semester.StartDate.Format(dateLayout),
		EndDate:           semester.EndDate.Format(dateLayout),
		IsCurrent:         semester.IsCurrent,
		IsProjected:       semester.IsProjected,
		ReferenceSemester: semester.ReferenceSemester,
		Status:            semester.Status,
		Version:           semester.Version,
		CreatedAt:         semester.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:         semester.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
