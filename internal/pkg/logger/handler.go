package logger

import (
	"context"
	"errors"
	log "log/slog"
)

// TeeHandler 将日志分发到多个 Handler，单个下游失败不影响其余下游
type TeeHandler struct {
	handlers []log.Handler
}

func (s *TeeHandler) Enabled(ctx context.Context, level log.Level) bool {
	for _, h := range s.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (s *TeeHandler) Handle(ctx context.Context, r log.Record) error {
	var errs []error
	for _, h := range s.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *TeeHandler) WithAttrs(attrs []log.Attr) log.Handler {
	return s.each(func(h log.Handler) log.Handler { return h.WithAttrs(attrs) })
}

func (s *TeeHandler) WithGroup(name string) log.Handler {
	return s.each(func(h log.Handler) log.Handler { return h.WithGroup(name) })
}

func (s *TeeHandler) each(fn func(log.Handler) log.Handler) *TeeHandler {
	next := make([]log.Handler, len(s.handlers))
	for i, h := range s.handlers {
		next[i] = fn(h)
	}
	return &TeeHandler{handlers: next}
}

// RemoteFilterHandler 只上报能归属到请求或用户的日志：
// 记录里带 trace_id / user_id，或 logger 已通过 With 绑定了 user_id (会话日志)
type RemoteFilterHandler struct {
	next   log.Handler
	scoped bool
}

func (s *RemoteFilterHandler) Enabled(ctx context.Context, level log.Level) bool {
	return s.next.Enabled(ctx, level)
}

func (s *RemoteFilterHandler) Handle(ctx context.Context, r log.Record) error {
	if !s.scoped && !hasScopeAttr(r) {
		return nil
	}
	return s.next.Handle(ctx, r)
}

func (s *RemoteFilterHandler) WithAttrs(attrs []log.Attr) log.Handler {
	scoped := s.scoped
	for _, a := range attrs {
		if isScopeAttr(a) {
			scoped = true
		}
	}
	return &RemoteFilterHandler{next: s.next.WithAttrs(attrs), scoped: scoped}
}

func (s *RemoteFilterHandler) WithGroup(name string) log.Handler {
	return &RemoteFilterHandler{next: s.next.WithGroup(name), scoped: s.scoped}
}

func hasScopeAttr(r log.Record) bool {
	found := false
	r.Attrs(func(a log.Attr) bool {
		found = isScopeAttr(a)
		return !found
	})
	return found
}

func isScopeAttr(a log.Attr) bool {
	return (a.Key == TraceIDKey || a.Key == UserIDKey) && a.Value.String() != ""
}
