package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/service"
	"github.com/studentenschaft/Biddit2-sub002/pkg/response"
)

// CourseHandler 学期课程状态 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// GetSemesterState 学期课程视图（目录 / 已注册 / 已选 / 筛选结果）
// GET /api/v1/courses/:semester?classification=&language=&search=&ects=&min_rating=&selected_only=
func (h *CourseHandler) GetSemesterState(c *gin.Context) {
	semester := c.Param("semester")
	if semester == "" {
		response.BadRequest(c, 10001, "学期简称不能为空")
		return
	}

	var filter dto.CourseFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, 10001, "筛选参数无效")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	state, err := h.courseSvc.GetSemesterState(c.Request.Context(), caller, semester, filter)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, state)
}
