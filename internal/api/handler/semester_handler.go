package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/service"
	"github.com/studentenschaft/Biddit2-sub002/pkg/response"
)

// SemesterHandler 学期模块 HTTP 处理器
type SemesterHandler struct {
	semesterSvc service.SemesterService
}

// NewSemesterHandler 创建 SemesterHandler
func NewSemesterHandler(semesterSvc service.SemesterService) *SemesterHandler {
	return &SemesterHandler{semesterSvc: semesterSvc}
}

// ListSemesters 获取学期列表（最新在前）
// GET /api/v1/semesters
func (h *SemesterHandler) ListSemesters(c *gin.Context) {
	semesters, err := h.semesterSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": semesters})
}

// GetSemester 按简称获取学期，兼容 AuS24 / SpS25 旧命名
// GET /api/v1/semesters/:semester
func (h *SemesterHandler) GetSemester(c *gin.Context) {
	name := c.Param("semester")
	if name == "" {
		response.BadRequest(c, 10001, "学期简称不能为空")
		return
	}

	semester, err := h.semesterSvc.GetByShortName(c.Request.Context(), name)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	writeSemester(c, semester)
}

// GetCurrentSemester 获取当前学期
// GET /api/v1/semesters/current
func (h *SemesterHandler) GetCurrentSemester(c *gin.Context) {
	semester, err := h.semesterSvc.GetCurrent(c.Request.Context())
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	writeSemester(c, semester)
}

// CreateSemester 登记学期
// POST /api/v1/semesters
func (h *SemesterHandler) CreateSemester(c *gin.Context) {
	var req dto.CreateSemesterRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	semester, err := h.semesterSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.Created(c, semester)
}

// UpdateSemester 更新学期
// 版本号取请求体 version，缺省时取 If-Match（GET 返回的 ETag）；两者皆无返回 428
// PUT /api/v1/semesters/:id
func (h *SemesterHandler) UpdateSemester(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学期ID不能为空")
		return
	}

	var req dto.UpdateSemesterRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Version == 0 {
		v, ok := versionFromETag(c.GetHeader("If-Match"))
		if !ok {
			response.Error(c, http.StatusPreconditionRequired, 14009, "缺少学期版本号")
			return
		}
		req.Version = v
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	semester, err := h.semesterSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	c.Header("ETag", semesterETag(semester.Version))
	response.OK(c, semester)
}

// ActivateSemester 激活学期（设为当前学期）
// PUT /api/v1/semesters/:id/activate
func (h *SemesterHandler) ActivateSemester(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学期ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.semesterSvc.Activate(c.Request.Context(), id, callerID); err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, nil)
}

// DeleteSemester 删除学期
// DELETE /api/v1/semesters/:id
func (h *SemesterHandler) DeleteSemester(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学期ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.semesterSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleSemesterError 统一处理学期模块业务错误
func (h *SemesterHandler) handleSemesterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 14001, "学期不存在")
	case errors.Is(err, service.ErrSemesterDateInvalid):
		response.BadRequest(c, 14002, "学期日期无效")
	case errors.Is(err, service.ErrTermInvalid):
		response.BadRequest(c, 14003, "学期简称格式错误")
	case errors.Is(err, service.ErrSemesterExists):
		response.Error(c, http.StatusConflict, 14004, "学期已存在")
	case errors.Is(err, service.ErrReferenceInvalid):
		response.BadRequest(c, 14005, "参考学期无效")
	case errors.Is(err, service.ErrProjectedDisabled):
		response.BadRequest(c, 14006, "预估学期功能未开启")
	case errors.Is(err, service.ErrSemesterVersionStale):
		response.Error(c, http.StatusConflict, 14007, "学期已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrSemesterHasDependents):
		response.Error(c, http.StatusConflict, 14008, "该学期仍被预估学期引用")
	default:
		response.InternalError(c)
	}
}

// ── ETag ──

func semesterETag(version int) string {
	return `W/"` + strconv.Itoa(version) + `"`
}

// versionFromETag 解析 W/"3" 或 "3"
func versionFromETag(tag string) (int, bool) {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
	tag = strings.Trim(tag, `"`)
	v, err := strconv.Atoi(tag)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

// writeSemester 返回学期并附带 ETag；If-None-Match 命中时返回 304
func writeSemester(c *gin.Context, semester *dto.SemesterResponse) {
	etag := semesterETag(semester.Version)
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	response.OK(c, semester)
}
