package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/service"
	"github.com/studentenschaft/Biddit2-sub002/pkg/response"
)

// RatingHandler 课程评分 HTTP 处理器
type RatingHandler struct {
	ratingSvc service.RatingService
}

// NewRatingHandler 创建 RatingHandler
func NewRatingHandler(ratingSvc service.RatingService) *RatingHandler {
	return &RatingHandler{ratingSvc: ratingSvc}
}

// ListRatings 课程平均评分
// GET /api/v1/ratings
func (h *RatingHandler) ListRatings(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.ratingSvc.ListRatings(c.Request.Context(), caller)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, result)
}

// SubmitRating 提交评分
// POST /api/v1/ratings
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	var req dto.SubmitRatingRequest
	if !bindJSON(c, &req) {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.ratingSvc.SubmitRating(c.Request.Context(), caller, &req); err != nil {
		if errors.Is(err, service.ErrRatingRejected) {
			response.BadGateway(c, 19001, "评分提交失败", err.Error())
			return
		}
		handleCommonError(c, err)
		return
	}

	response.Created(c, nil)
}
