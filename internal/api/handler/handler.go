package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studentenschaft/Biddit2-sub002/internal/service"
	pkgerrors "github.com/studentenschaft/Biddit2-sub002/pkg/errors"
	"github.com/studentenschaft/Biddit2-sub002/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Semester   *SemesterHandler
	Course     *CourseHandler
	Selection  *SelectionHandler
	Transcript *TranscriptHandler
	Export     *ExportHandler
	Calendar   *CalendarHandler
	Rating     *RatingHandler
	Flag       *FlagHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Semester:   NewSemesterHandler(svc.Semester),
		Course:     NewCourseHandler(svc.Course),
		Selection:  NewSelectionHandler(svc.Selection),
		Transcript: NewTranscriptHandler(svc.Transcript),
		Export:     NewExportHandler(svc.Export),
		Calendar:   NewCalendarHandler(svc.Calendar),
		Rating:     NewRatingHandler(svc.Rating),
		Flag:       NewFlagHandler(svc.Flag),
	}
}

// handleCommonError 会话与上游类错误的统一映射，未识别的错误返回 500
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionExpired):
		response.Unauthorized(c, 10006, "会话已过期，请重新登录")
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 14001, "学期不存在")
	case errors.Is(err, pkgerrors.ErrUpstreamUnavailable):
		response.BadGateway(c, 10007, "上游服务不可用", err.Error())
	default:
		response.InternalError(c)
	}
}

// okOrAccepted 远端同步有失败时返回 202 并附带详情
func okOrAccepted(c *gin.Context, data interface{}, syncErrors []string) {
	if len(syncErrors) == 0 {
		response.OK(c, data)
		return
	}
	response.Accepted(c, data, strings.Join(syncErrors, "; "))
}
