package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/service"
	"github.com/studentenschaft/Biddit2-sub002/pkg/response"
)

// CalendarHandler 学期日历 HTTP 处理器
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// GetCalendar 学期日历、冲突与热力图
// GET /api/v1/calendar/:semester
func (h *CalendarHandler) GetCalendar(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.calendarSvc.GetCalendar(c.Request.Context(), caller, c.Param("semester"))
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, result)
}

// CoursesOnDay 某天有课的课程
// GET /api/v1/calendar/:semester/day?date=2024-09-16
func (h *CalendarHandler) CoursesOnDay(c *gin.Context) {
	var query dto.CalendarDayQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "date 不能为空")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.calendarSvc.CoursesOnDay(c.Request.Context(), caller, c.Param("semester"), query.Date)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, result)
}

// ExportICS 导出学期日历
// GET /api/v1/calendar/:semester/ics
func (h *CalendarHandler) ExportICS(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	text, filename, err := h.calendarSvc.ExportICS(c.Request.Context(), caller, c.Param("semester"))
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.Attachment(c, filename, "text/calendar; charset=utf-8", []byte(text))
}

func (h *CalendarHandler) handleCalendarError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCalendarDateInvalid):
		response.BadRequest(c, 18001, "日期格式错误，应为 YYYY-MM-DD")
	default:
		handleCommonError(c, err)
	}
}
