package dto

// ── 学期模块 DTO ──

// CreateSemesterRequest 创建学期请求
// 日期留空时取学期 ISO 周约定的默认范围
type CreateSemesterRequest struct {
	ShortName         string `json:"short_name"         binding:"required,min=4,max=10"`
	CisID             string `json:"cis_id"             binding:"max=100"`
	StartDate         string `json:"start_date"` // "2024-09-16"
	EndDate           string `json:"end_date"`   // "2024-12-22"
	IsProjected       bool   `json:"is_projected"`
	ReferenceSemester string `json:"reference_semester" binding:"max=10"`
}

// UpdateSemesterRequest 更新学期请求
type UpdateSemesterRequest struct {
	CisID             *string `json:"cis_id"             binding:"omitempty,max=100"`
	StartDate         *string `json:"start_date"`
	EndDate           *string `json:"end_date"`
	IsProjected       *bool   `json:"is_projected"`
	ReferenceSemester *string `json:"reference_semester" binding:"omitempty,max=10"`
	Status            *string `json:"status"             binding:"omitempty,oneof=active archived"`
	Version           int     `json:"version"            binding:"omitempty,min=1"` // 缺省时取 If-Match
}

// SemesterResponse 学期信息响应
type SemesterResponse struct {
	ID                string `json:"id"`
	ShortName         string `json:"short_name"`
	CisID             string `json:"cis_id"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	IsCurrent         bool   `json:"is_current"`
	IsProjected       bool   `json:"is_projected"`
	ReferenceSemester string `json:"reference_semester,omitempty"`
	Status            string `json:"status"`
	Version           int    `json:"version"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}
