package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studentenschaft/Biddit2-sub002/internal/model"
)

// UserFlagRepository 用户界面开关数据访问接口
type UserFlagRepository interface {
	List(ctx context.Context, userID string) ([]model.UserFlag, error)
	Upsert(ctx context.Context, flag *model.UserFlag) error
}

type userFlagRepo struct {
	db *gorm.DB
}

// NewUserFlagRepo 创建 UserFlagRepository 实例
func NewUserFlagRepo(db *gorm.DB) UserFlagRepository {
	return &userFlagRepo{db: db}
}

func (r *userFlagRepo) List(ctx context.Context, userID string) ([]model.UserFlag, error) {
	var flags []model.UserFlag
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&flags).Error
	return flags, err
}

func (r *userFlagRepo) Upsert(ctx context.Context, flag *model.UserFlag) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "flag_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(flag).Error
}
