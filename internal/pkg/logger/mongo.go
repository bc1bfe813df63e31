package logger

import (
	"context"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/event"
)

const mongoSlowThreshold = 200 * time.Millisecond

// NewMongoMonitor 命令监控，只记录集合名与耗时，消息文档不落日志
func NewMongoMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(ctx context.Context, evt *event.CommandStartedEvent) {
			log.DebugContext(ctx, "MongoDB command started",
				"command", evt.CommandName,
				"database", evt.DatabaseName,
				"collection", commandTarget(evt),
				"request_id", evt.RequestID,
			)
		},
		Succeeded: func(ctx context.Context, evt *event.CommandSucceededEvent) {
			if evt.Duration > mongoSlowThreshold {
				log.WarnContext(ctx, "MongoDB command slow",
					"command", evt.CommandName,
					"latency", evt.Duration,
					"request_id", evt.RequestID,
				)
			}
		},
		Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
			log.ErrorContext(ctx, "MongoDB command failed",
				"command", evt.CommandName,
				"latency", evt.Duration,
				"request_id", evt.RequestID,
				"err", evt.Failure,
			)
		},
	}
}

// commandTarget find / insert / aggregate 等命令的首个字段值就是集合名
func commandTarget(evt *event.CommandStartedEvent) string {
	if v, err := evt.Command.LookupErr(evt.CommandName); err == nil {
		if name, ok := v.StringValueOK(); ok {
			return name
		}
	}
	return ""
}
