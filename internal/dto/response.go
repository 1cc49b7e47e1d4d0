package dto

// ── 用户模块响应 ──

// UserResponse 用户信息响应
type UserResponse struct {
	ID          string `json:"id"`
	ExternalID  string `json:"external_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	LastLoginAt string `json:"last_login_at,omitempty"`
}
