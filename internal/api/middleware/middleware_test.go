package middleware

import (
	"Parley/internal/pkg/logger"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func traceEngine(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/", func(c *gin.Context) {
		*seen = c.GetString(logger.TraceIDKey)
		c.Status(http.StatusOK)
	})
	return r
}

func TestTraceMiddleware(t *testing.T) {
	var seen string
	r := traceEngine(&seen)

	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{"header wins", "/?trace_id=q", "h", "h"},
		{"query for websocket", "/?trace_id=q", "", "q"},
		{"generated", "/", "", ""},
		{"oversized replaced", "/", strings.Repeat("x", 65), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(TraceHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, seen, w.Header().Get(TraceHeader))
			if tt.want != "" {
				assert.Equal(t, tt.want, seen)
			} else {
				assert.Len(t, seen, 36)
			}
		})
	}
}

func TestOrigins_Allowed(t *testing.T) {
	assert.True(t, Origins(nil).Allowed("https://any.test"))
	assert.True(t, Origins{"*"}.Allowed("https://any.test"))
	assert.True(t, Origins{"https://a.test"}.Allowed("https://a.test"))
	assert.True(t, Origins{"https://a.test"}.Allowed(""))
	assert.False(t, Origins{"https://a.test"}.Allowed("https://b.test"))
}
