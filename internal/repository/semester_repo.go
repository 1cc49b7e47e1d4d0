package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/studentenschaft/Biddit2-sub002/internal/model"
	pkgerrors "github.com/studentenschaft/Biddit2-sub002/pkg/errors"
)

// SemesterRepository 学期数据访问接口
type SemesterRepository interface {
	Create(ctx context.Context, semester *model.Semester) error
	GetByID(ctx context.Context, id string) (*model.Semester, error)
	GetByShortName(ctx context.Context, shortName string) (*model.Semester, error)
	GetCurrent(ctx context.Context) (*model.Semester, error)
	List(ctx context.Context) ([]model.Semester, error)
	Update(ctx context.Context, semester *model.Semester) error
	Delete(ctx context.Context, id string, deletedBy string) error
	ClearCurrent(ctx context.Context) error
}

type semesterRepo struct {
	db *gorm.DB
}

// NewSemesterRepo 创建 SemesterRepository 实例
func NewSemesterRepo(db *gorm.DB) SemesterRepository {
	return &semesterRepo{db: db}
}

func (r *semesterRepo) Create(ctx context.Context, semester *model.Semester) error {
	return r.db.WithContext(ctx).Create(semester).Error
}

func (r *semesterRepo) GetByID(ctx context.Context, id string) (*model.Semester, error) {
	var semester model.Semester
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", id).
		First(&semester).Error
	if err != nil {
		return nil, err
	}
	return &semester, nil
}

func (r *semesterRepo) GetByShortName(ctx context.Context, shortName string) (*model.Semester, error) {
	var semester model.Semester
	err := r.db.WithContext(ctx).
		Where("short_name = ?", shortName).
		First(&semester).Error
	if err != nil {
		return nil, err
	}
	return &semester, nil
}

func (r *semesterRepo) GetCurrent(ctx context.Context) (*model.Semester, error) {
	var semester model.Semester
	err := r.db.WithContext(ctx).
		Where("is_current = ?", true).
		First(&semester).Error
	if err != nil {
		return nil, err
	}
	return &semester, nil
}

func (r *semesterRepo) List(ctx context.Context) ([]model.Semester, error) {
	var semesters []model.Semester
	err := r.db.WithContext(ctx).
		Order("start_date ASC").
		Find(&semesters).Error
	return semesters, err
}

// Update 带版本号校验的更新，版本不匹配返回 ErrOptimisticLock
func (r *semesterRepo) Update(ctx context.Context, semester *model.Semester) error {
	oldVersion := semester.Version
	result := r.db.WithContext(ctx).
		Model(&model.Semester{}).
		Where("semester_id = ? AND version = ?", semester.SemesterID, oldVersion).
		Updates(map[string]interface{}{
			"short_name":         semester.ShortName,
			"cis_id":             semester.CisID,
			"start_date":         semester.StartDate,
			"end_date":           semester.EndDate,
			"is_current":         semester.IsCurrent,
			"is_projected":       semester.IsProjected,
			"reference_semester": semester.ReferenceSemester,
			"status":             semester.Status,
			"updated_by":         semester.UpdatedBy,
			"updated_at":         gorm.Expr("NOW()"),
			"version":            oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	semester.Version = oldVersion + 1
	return nil
}

func (r *semesterRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Semester{}).
		Where("semester_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ClearCurrent 取消所有学期的当前标记
func (r *semesterRepo) ClearCurrent(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&model.Semester{}).
		Where("is_current = ?", true).
		Update("is_current", false).Error
}
