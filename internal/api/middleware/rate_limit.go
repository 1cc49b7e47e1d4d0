package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studentenschaft/Biddit2-sub002/pkg/redis"
	"github.com/studentenschaft/Biddit2-sub002/pkg/response"
)

// RateLimit Redis 滑动窗口限流
// 已认证请求按用户计数，其余按客户端 IP；rdb 为 nil 或 Redis 出错时放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		allowed, err := rdb.CheckRateLimit(c.Request.Context(), rateLimitKey(c), limit, window)
		if err != nil || allowed {
			c.Next()
			return
		}

		c.Header("Retry-After", retryAfter)
		response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
		c.Abort()
	}
}

func rateLimitKey(c *gin.Context) string {
	subject := "ip:" + c.ClientIP()
	if userID := c.GetString("user_id"); userID != "" {
		subject = "user:" + userID
	}
	return fmt.Sprintf("rate_limit:%s:%s:%s", c.Request.Method, c.FullPath(), subject)
}
