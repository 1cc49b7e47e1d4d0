package dto

import "github.com/studentenschaft/Biddit2-sub002/internal/model"

// ── 学期课程状态 DTO ──

// CourseFilter 课程列表筛选条件（query 参数）
type CourseFilter struct {
	Classification string   `form:"classification"`
	Language       string   `form:"language"`
	Search         string   `form:"search"`
	ECTS           *float64 `form:"ects"       binding:"omitempty,min=0"`
	MinRating      *float64 `form:"min_rating" binding:"omitempty,min=0,max=5"`
	SelectedOnly   bool     `form:"selected_only"`
}

// SemesterStateResponse 单学期统一视图
// filtered 由 available 与心愿单补全条目派生，仅用于展示
type SemesterStateResponse struct {
	Semester          string             `json:"semester"`
	Available         []model.Course     `json:"available"`
	Enrolled          []model.Course     `json:"enrolled"`
	Selected          []model.Course     `json:"selected"`
	Filtered          []model.Course     `json:"filtered"`
	Ratings           map[string]float64 `json:"ratings"`
	SelectedIDs       []string           `json:"selected_ids"`
	CisID             string             `json:"cis_id"`
	IsProjected       bool               `json:"is_projected"`
	ReferenceSemester string             `json:"reference_semester,omitempty"`
	LastFetched       string             `json:"last_fetched,omitempty"`
	Credits           float64            `json:"credits"`
	Warnings          []string           `json:"warnings,omitempty"`
}
