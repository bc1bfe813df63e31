package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// Origins 允许的前端来源，为空或包含 "*" 时放行所有来源
type Origins []string

func (o Origins) Allowed(origin string) bool {
	if origin == "" || len(o) == 0 {
		return true
	}
	return slices.Contains(o, "*") || slices.Contains(o, origin)
}

// CORSMiddleware 只回显白名单内的 Origin，WebSocket 握手由 WsHandler 单独校验
func CORSMiddleware(allowed Origins) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && allowed.Allowed(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, "+TraceHeader)
			h.Set("Access-Control-Expose-Headers", TraceHeader)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			if !allowed.Allowed(origin) {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
