package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/studentenschaft/Biddit2-sub002/internal/service"
	"github.com/studentenschaft/Biddit2-sub002/pkg/response"
)

// TranscriptHandler 成绩单 HTTP 处理器
type TranscriptHandler struct {
	transcriptSvc service.TranscriptService
}

// NewTranscriptHandler 创建 TranscriptHandler
func NewTranscriptHandler(transcriptSvc service.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{transcriptSvc: transcriptSvc}
}

// GetTranscript 合并心愿单后的成绩单
// GET /api/v1/transcript
func (h *TranscriptHandler) GetTranscript(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.transcriptSvc.GetTranscript(c.Request.Context(), caller)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, result)
}
