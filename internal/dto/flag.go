package dto

// SetFlagRequest 设置界面开关
type SetFlagRequest struct {
	Value *bool `json:"value" binding:"required"`
}

// FlagsResponse 全部开关；未设置的键为 false
type FlagsResponse struct {
	Flags     map[string]bool `json:"flags"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}
