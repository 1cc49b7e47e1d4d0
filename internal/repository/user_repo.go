package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studentenschaft/Biddit2-sub002/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	// Upsert 按 external_id 插入或更新展示信息与最近登录时间，回填 UserID
	Upsert(ctx context.Context, user *model.User) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.LastLoginAt = &now
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"name":          user.Name,
				"email":         user.Email,
				"role":          user.Role,
				"last_login_at": now,
				"updated_at":    now,
			}),
		}).
		Create(user).Error
	if err != nil {
		return err
	}
	// 冲突更新时 RETURNING 不一定回填主键，按 external_id 重新读取
	if user.UserID == "" {
		stored, err := r.GetByExternalID(ctx, user.ExternalID)
		if err != nil {
			return err
		}
		*user = *stored
	}
	return nil
}
