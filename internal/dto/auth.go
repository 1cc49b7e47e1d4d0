package dto

// ── 认证模块 DTO ──

// CreateSessionRequest 用身份提供方 token 创建会话
type CreateSessionRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// RefreshSessionRequest 前端静默续期后提交的新身份提供方 token
type RefreshSessionRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// SessionResponse 会话响应
type SessionResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"` // 会话 Token 有效期（秒）
	User        UserResponse `json:"user"`
}
