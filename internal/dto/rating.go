package dto

// SubmitRatingRequest 提交课程评分
type SubmitRatingRequest struct {
	CourseNumber string `json:"course_number" binding:"required"`
	Rating       int    `json:"rating"        binding:"required,min=1,max=5"`
}

// RatingsResponse 课程编号 → 平均评分
type RatingsResponse struct {
	Ratings  map[string]float64 `json:"ratings"`
	Warnings []string           `json:"warnings,omitempty"`
}
