package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS 跨域中间件
// allowOrigins 支持精确匹配与子域通配（如 https://*.shsg.ch）；
// 下载接口依赖 Content-Disposition，需对前端暴露
func CORS(allowOrigins []string) gin.HandlerFunc {
	exact := make(map[string]bool, len(allowOrigins))
	var wildcards []originPattern
	for _, o := range allowOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if scheme, host, ok := strings.Cut(o, "://*."); ok {
			wildcards = append(wildcards, originPattern{scheme: scheme + "://", suffix: "." + host})
			continue
		}
		exact[o] = true
	}

	allowed := func(origin string) bool {
		if exact[origin] {
			return true
		}
		for _, p := range wildcards {
			if p.match(origin) {
				return true
			}
		}
		return false
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		c.Writer.Header().Add("Vary", "Origin")

		if origin != "" && allowed(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID, Retry-After")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type originPattern struct {
	scheme string
	suffix string
}

func (p originPattern) match(origin string) bool {
	rest, ok := strings.CutPrefix(origin, p.scheme)
	if !ok || !strings.HasSuffix(rest, p.suffix) {
		return false
	}
	sub := strings.TrimSuffix(rest, p.suffix)
	return sub != "" && !strings.ContainsAny(sub, "/:")
}
