package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studentenschaft/Biddit2-sub002/pkg/requestid"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	// 外部传入 ID 的长度上限
	requestIDMaxLen = 64
)

// RequestID 请求追踪 ID 中间件
// 沿用前端传入的 X-Request-ID（仅允许字母数字与 - _ .），否则生成 UUID；
// ID 同时写入 gin.Context 与 request context，上游错误上报据此关联请求
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}

		c.Set(requestIDKey, rid)
		c.Request = c.Request.WithContext(requestid.With(c.Request.Context(), rid))
		c.Header(requestIDHeader, rid)

		c.Next()
	}
}

// validRequestID 拒绝空值、超长值与可能污染日志的字符
func validRequestID(rid string) bool {
	if rid == "" || len(rid) > requestIDMaxLen {
		return false
	}
	for _, r := range rid {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
