package logger

import (
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupGin 访问日志走 slog，WebSocket 升级请求在连接关闭后才会落日志
func SetupGin(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []any{
			log.String("method", c.Request.Method),
			log.String("path", c.FullPath()),
			log.Int("status", c.Writer.Status()),
			log.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			log.WarnContext(c.Request.Context(), "GIN_ACCESS", append(fields, log.String("errors", c.Errors.String()))...)
			return
		}
		log.InfoContext(c.Request.Context(), "GIN_ACCESS", fields...)
	})

	r.Use(gin.Recovery())
}
