package logger

import (
	"context"
	"errors"
	log "log/slog"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

const gormSlowThreshold = 200 * time.Millisecond

// SlogGormLogger gorm 日志接入 slog
// Parameterized 为 true 时 SQL 以占位符形式记录，消息正文不落日志
type SlogGormLogger struct {
	LogLevel      logger.LogLevel
	SlowThreshold time.Duration
	Parameterized bool
}

func NewGormLogger() *SlogGormLogger {
	return &SlogGormLogger{
		LogLevel:      logger.Warn,
		SlowThreshold: gormSlowThreshold,
		Parameterized: true,
	}
}

func (l *SlogGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.LogLevel = level
	return &clone
}

func (l *SlogGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Info {
		log.InfoContext(ctx, msg, "data", data)
	}
}

func (l *SlogGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Warn {
		log.WarnContext(ctx, msg, "data", data)
	}
}

func (l *SlogGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Error {
		log.ErrorContext(ctx, msg, "data", data)
	}
}

// ParamsFilter 实现 gorm.ParamsFilter
func (l *SlogGormLogger) ParamsFilter(_ context.Context, sql string, params ...interface{}) (string, []interface{}) {
	if l.Parameterized {
		return sql, nil
	}
	return sql, params
}

func (l *SlogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	notFound := errors.Is(err, logger.ErrRecordNotFound)

	switch {
	case err != nil && !notFound && l.LogLevel >= logger.Error:
		sql, rows := fc()
		log.ErrorContext(ctx, "SQL "+sqlOperation(sql)+" failed", sqlFields(sql, rows, elapsed, err)...)
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.LogLevel >= logger.Warn:
		sql, rows := fc()
		log.WarnContext(ctx, "SQL "+sqlOperation(sql)+" slow", sqlFields(sql, rows, elapsed, nil)...)
	case l.LogLevel >= logger.Info:
		sql, rows := fc()
		log.InfoContext(ctx, "SQL "+sqlOperation(sql), sqlFields(sql, rows, elapsed, nil)...)
	}
}

func sqlOperation(sql string) string {
	op, _, _ := strings.Cut(strings.TrimSpace(sql), " ")
	if op == "" {
		return "QUERY"
	}
	return strings.ToUpper(op)
}

func sqlFields(sql string, rows int64, elapsed time.Duration, err error) []any {
	fields := []any{"sql", sql, "latency", elapsed, "rows", rows}
	if err != nil {
		fields = append(fields, "err", err)
	}
	return fields
}
