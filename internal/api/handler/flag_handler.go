package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/service"
	"github.com/studentenschaft/Biddit2-sub002/pkg/response"
)

// FlagHandler 界面开关 HTTP 处理器
type FlagHandler struct {
	flagSvc service.FlagService
}

// NewFlagHandler 创建 FlagHandler
func NewFlagHandler(flagSvc service.FlagService) *FlagHandler {
	return &FlagHandler{flagSvc: flagSvc}
}

// ListFlags GET /api/v1/flags
func (h *FlagHandler) ListFlags(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.flagSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// SetFlag PUT /api/v1/flags/:key
func (h *FlagHandler) SetFlag(c *gin.Context) {
	var req dto.SetFlagRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.flagSvc.Set(c.Request.Context(), userID, c.Param("key"), *req.Value)
	if err != nil {
		if errors.Is(err, service.ErrFlagUnknown) {
			response.BadRequest(c, 20001, "未知的开关键")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
