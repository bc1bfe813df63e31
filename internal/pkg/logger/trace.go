package logger

import (
	"context"
	log "log/slog"
)

type ctxKey string

// TraceIDKey 定义 Context 中的 Key
const TraceIDKey = "trace_id"

// UserIDKey 日志属性名，与 ctx key 区分
const UserIDKey = "user_id"

const userIDKey ctxKey = UserIDKey

// WithTraceID 注入 trace_id
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithUserID 注入当前会话用户，便于按用户检索同步日志
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// ContextHandler 包装器，用于从 ctx 中提取 trace_id / user_id
type ContextHandler struct {
	log.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r log.Record) error {
	if ctx != nil {
		if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
			r.AddAttrs(log.String(TraceIDKey, traceID))
		}
		if userID, ok := ctx.Value(userIDKey).(string); ok {
			r.AddAttrs(log.String(UserIDKey, userID))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []log.Attr) log.Handler {
	return &ContextHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) log.Handler {
	return &ContextHandler{h.Handler.WithGroup(name)}
}
