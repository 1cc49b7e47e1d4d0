package dto

import "github.com/studentenschaft/Biddit2-sub002/internal/model"

// CalendarResponse 学期日历
type CalendarResponse struct {
	Semester           string                `json:"semester"`
	StartDate          string                `json:"start_date"`
	EndDate            string                `json:"end_date"`
	Events             []model.CalendarEvent `json:"events"`
	OverlappingCourses []string              `json:"overlapping_courses"`
	Heatmap            []model.HeatmapDay    `json:"heatmap"`
	Warnings           []string              `json:"warnings,omitempty"`
}

// CalendarDayQuery 热力图悬停查询
type CalendarDayQuery struct {
	Date string `form:"date" binding:"required"` // "2024-09-16"
}

// CalendarDayResponse 某天有课的课程
type CalendarDayResponse struct {
	Date      string   `json:"date"`
	CourseIDs []string `json:"course_ids"`
}
