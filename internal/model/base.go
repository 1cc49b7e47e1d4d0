package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 审计字段（所有持久化模型嵌入）
// CreatedBy / UpdatedBy 为内部用户 UUID，系统写入（如 CLI 迁移）时可为空
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// StampCreated 记录创建人，同时作为首个更新人
func (b *BaseModel) StampCreated(userID string) {
	if userID == "" {
		return
	}
	created, updated := userID, userID
	b.CreatedBy, b.UpdatedBy = &created, &updated
}

// StampUpdated 记录最近更新人
func (b *BaseModel) StampUpdated(userID string) {
	if userID == "" {
		return
	}
	b.UpdatedBy = &userID
}

// SoftDeleteModel 支持软删除的审计字段（学期）
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel 支持乐观锁的软删除模型
// 管理端提交的 version 与库中不一致时拒绝更新
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// IsStale 判断调用方持有的版本是否已过期
func (v VersionedModel) IsStale(seen int) bool {
	return seen != v.Version
}
