package dto

import "github.com/studentenschaft/Biddit2-sub002/internal/model"

// TranscriptResponse 合并心愿单后的成绩单
type TranscriptResponse struct {
	CurrentSemester string                 `json:"current_semester"`
	Scorecard       model.Scorecard        `json:"scorecard"`
	Wishlist        []model.WishlistCourse `json:"wishlist"`
	PlannedCredits  float64                `json:"planned_credits"`
	Warnings        []string               `json:"warnings,omitempty"`
}
