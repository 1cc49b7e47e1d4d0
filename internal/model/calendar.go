package model

import "time"

// CalendarEvent 单次课程事件（由 calendarEntry 计算得出，不落库）
type CalendarEvent struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Room        string    `json:"room,omitempty"`
	State       string    `json:"state"`
	Color       string    `json:"color"`
	Overlapping bool      `json:"overlapping"`
}

// HeatmapDay 某天的课时汇总
type HeatmapDay struct {
	Date      string   `json:"date"`
	Weekday   string   `json:"weekday"`
	Hours     float64  `json:"hours"`
	CourseIDs []string `json:"course_ids"`
}
