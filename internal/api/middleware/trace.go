package middleware

import (
	"Parley/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TraceHeader = "X-Trace-ID"
	// 浏览器 WebSocket 握手无法带自定义头，允许走查询参数
	traceQuery = "trace_id"
	maxTraceID = 64
)

func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if traceID == "" {
			traceID = c.Query(traceQuery)
		}
		if traceID == "" || len(traceID) > maxTraceID {
			traceID = uuid.NewString()
		}

		c.Set(logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		c.Header(TraceHeader, traceID)
		c.Next()
	}
}
