package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/service"
	"github.com/studentenschaft/Biddit2-sub002/pkg/response"
)

// SelectionHandler 选课模块 HTTP 处理器
type SelectionHandler struct {
	selectionSvc service.SelectionService
}

// NewSelectionHandler 创建 SelectionHandler
func NewSelectionHandler(selectionSvc service.SelectionService) *SelectionHandler {
	return &SelectionHandler{selectionSvc: selectionSvc}
}

// ToggleCourse 选中 / 取消选中课程
// POST /api/v1/selections/toggle
// 本地已生效但学习计划同步失败时返回 202
func (h *SelectionHandler) ToggleCourse(c *gin.Context) {
	var req dto.ToggleCourseRequest
	if !bindJSON(c, &req) {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.selectionSvc.ToggleCourse(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleSelectionError(c, err)
		return
	}

	okOrAccepted(c, result, result.SyncErrors)
}

// ListSelections 某学期的已选课程
// GET /api/v1/selections/:semester
func (h *SelectionHandler) ListSelections(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.selectionSvc.ListSelections(c.Request.Context(), caller, c.Param("semester"))
	if err != nil {
		h.handleSelectionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// SyncStudyPlan 与学习计划双向同步
// POST /api/v1/selections/:semester/sync
func (h *SelectionHandler) SyncStudyPlan(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.selectionSvc.SyncStudyPlan(c.Request.Context(), caller, c.Param("semester"))
	if err != nil {
		h.handleSelectionError(c, err)
		return
	}

	okOrAccepted(c, result, result.SyncErrors)
}

func (h *SelectionHandler) handleSelectionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseIdentityMissing):
		response.BadRequest(c, 16001, "课程缺少可识别的标识")
	case errors.Is(err, service.ErrSelectionSemester), errors.Is(err, service.ErrTermInvalid):
		response.BadRequest(c, 16002, "无法确定课程所属学期")
	default:
		handleCommonError(c, err)
	}
}
