package dto

import "github.com/studentenschaft/Biddit2-sub002/internal/model"

// ── 选课模块 DTO ──

// 切换动作
const (
	ToggleAdded   = "added"
	ToggleRemoved = "removed"
)

// ToggleCourseRequest 选中 / 取消选中课程
// Semester 为界面当前学期，课程自带 semester 字段时以课程为准
type ToggleCourseRequest struct {
	Course   model.Course `json:"course"`
	Semester string       `json:"semester"`
}

// ToggleCourseResponse 切换结果；SyncErrors 非空表示远端学习计划未同步成功
type ToggleCourseResponse struct {
	Action       string   `json:"action"`
	Semester     string   `json:"semester"`
	CourseNumber string   `json:"course_number"`
	SelectedIDs  []string `json:"selected_ids"`
	SyncErrors   []string `json:"sync_errors,omitempty"`
}

// SelectedCourseResponse 已选课程
type SelectedCourseResponse struct {
	ID             string  `json:"id"`
	Semester       string  `json:"semester"`
	CourseNumber   string  `json:"course_number"`
	LegacyID       string  `json:"legacy_id,omitempty"`
	Name           string  `json:"name"`
	Classification string  `json:"classification"`
	Credits        float64 `json:"credits"`
	CreatedAt      string  `json:"created_at"`
}

// SyncStudyPlanResponse 学习计划双向同步结果
type SyncStudyPlanResponse struct {
	Semester    string   `json:"semester"`
	PlanCreated bool     `json:"plan_created"`
	Imported    []string `json:"imported"`
	Pushed      []string `json:"pushed"`
	Unresolved  []string `json:"unresolved,omitempty"`
	SyncErrors  []string `json:"sync_errors,omitempty"`
}
