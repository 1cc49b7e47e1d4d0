package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studentenschaft/Biddit2-sub002/internal/model"
)

// SelectionRepository 已选课程数据访问接口
type SelectionRepository interface {
	ListByUserAndSemester(ctx context.Context, userID, semester string) ([]model.SelectedCourse, error)
	ListByUser(ctx context.Context, userID string) ([]model.SelectedCourse, error)
	// Create 插入选课记录，(user, semester, course_number) 已存在时不做任何事并返回 false
	Create(ctx context.Context, sel *model.SelectedCourse) (bool, error)
	// DeleteByIdentifiers 删除课程编号或旧版 id 命中任一标识的记录，返回删除条数
	DeleteByIdentifiers(ctx context.Context, userID, semester string, ids []string) (int64, error)
}

type selectionRepo struct {
	db *gorm.DB
}

// NewSelectionRepo 创建 SelectionRepository 实例
func NewSelectionRepo(db *gorm.DB) SelectionRepository {
	return &selectionRepo{db: db}
}

func (r *selectionRepo) ListByUserAndSemester(ctx context.Context, userID, semester string) ([]model.SelectedCourse, error) {
	var list []model.SelectedCourse
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND semester = ?", userID, semester).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *selectionRepo) ListByUser(ctx context.Context, userID string) ([]model.SelectedCourse, error) {
	var list []model.SelectedCourse
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("semester ASC, created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *selectionRepo) Create(ctx context.Context, sel *model.SelectedCourse) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "semester"}, {Name: "course_number"}},
			DoNothing: true,
		}).
		Create(sel)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *selectionRepo) DeleteByIdentifiers(ctx context.Context, userID, semester string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND semester = ?", userID, semester).
		Where("course_number IN ? OR legacy_id IN ?", ids, ids).
		Delete(&model.SelectedCourse{})
	return result.RowsAffected, result.Error
}
