package logger

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSlowThreshold = 100 * time.Millisecond

// RedisLoggerHook 只记录命令名与键，消息正文和资料缓存值不落日志
type RedisLoggerHook struct {
	SlowThreshold time.Duration
}

func NewRedisLogger() *RedisLoggerHook {
	return &RedisLoggerHook{SlowThreshold: redisSlowThreshold}
}

func (s *RedisLoggerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			log.ErrorContext(ctx, "Redis dial failed",
				"addr", addr,
				"latency", time.Since(start),
				"err", err,
			)
		}
		return conn, err
	}
}

func (s *RedisLoggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		elapsed := time.Since(start)

		if ignorableRedisErr(cmd.Name(), err) {
			return err
		}
		fields := []any{
			"command", cmd.Name(),
			"args", summarizeArgs(cmd),
			"latency", elapsed,
		}
		switch {
		case err != nil:
			log.ErrorContext(ctx, "Redis command failed", append(fields, "err", err)...)
		case elapsed > s.SlowThreshold:
			log.WarnContext(ctx, "Redis command slow", fields...)
		}
		return err
	}
}

func (s *RedisLoggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		elapsed := time.Since(start)

		names := make([]string, 0, len(cmds))
		for _, c := range cmds {
			names = append(names, c.Name())
		}
		fields := []any{
			"commands", strings.Join(names, ","),
			"latency", elapsed,
		}
		switch {
		case err != nil && !errors.Is(err, redis.Nil):
			log.ErrorContext(ctx, "Redis pipeline failed", append(fields, "err", err)...)
		case elapsed > s.SlowThreshold:
			log.WarnContext(ctx, "Redis pipeline slow", fields...)
		}
		return err
	}
}

// ignorableRedisErr 缓存未命中与旧版服务端不认识 CLIENT SETINFO 都不算错误
func ignorableRedisErr(name string, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, redis.Nil) {
		return true
	}
	return name == "client" && strings.Contains(err.Error(), "setinfo")
}

// summarizeArgs PUBLISH 只保留频道和载荷长度，SET 只保留键
func summarizeArgs(cmd redis.Cmder) string {
	args := cmd.Args()
	if len(args) < 2 {
		return ""
	}
	switch cmd.Name() {
	case "auth", "hello":
		return "[PROTECTED]"
	case "publish":
		if len(args) == 3 {
			return fmt.Sprintf("[%v <%d bytes>]", args[1], len(fmt.Sprint(args[2])))
		}
	case "set", "setex", "setnx":
		if len(args) > 1 {
			return fmt.Sprintf("[%v <value>]", args[1])
		}
	}
	return fmt.Sprint(args[1:])
}
