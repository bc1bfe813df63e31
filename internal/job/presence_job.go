package job

import (
	"Parley/internal/pkg/consts"
	"Parley/internal/pkg/logger"
	"Parley/internal/pkg/redis"
	"Parley/internal/repository"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// OnlineUsers 本实例持有会话的用户
type OnlineUsers interface {
	UserIDs() []string
}

// PresenceJob 定时刷新在线用户的 last_seen
// 配置了 Redis 时各实例先上报心跳，由抢到锁的实例统一写库
type PresenceJob struct {
	online   OnlineUsers
	profiles repository.ProfileRepo
	rdb      *goredis.Client
	window   time.Duration
	now      func() time.Time
}

func NewPresenceJob(online OnlineUsers, profiles repository.ProfileRepo, rdb *goredis.Client, window time.Duration) *PresenceJob {
	if window <= 0 {
		window = time.Minute
	}
	return &PresenceJob{
		online:   online,
		profiles: profiles,
		rdb:      rdb,
		window:   window,
		now:      time.Now,
	}
}

func (s *PresenceJob) Run() {
	ctx := logger.WithTraceID(context.Background(), "job-"+uuid.NewString())
	ctx, cancel := context.WithTimeout(ctx, s.window)
	defer cancel()

	if err := s.beat(ctx); err != nil {
		log.ErrorContext(ctx, "Presence heartbeat failed", "err", err)
	}
}

func (s *PresenceJob) beat(ctx context.Context) error {
	now := s.now()
	local := s.online.UserIDs()
	if s.rdb == nil {
		return s.touch(ctx, local, now)
	}

	if err := redis.MarkOnline(ctx, s.rdb, consts.PresenceOnlineKey, now, local...); err != nil {
		return err
	}

	lockValue := uuid.NewString()
	locked, err := redis.TryLock(ctx, s.rdb, consts.PresenceJobLock, lockValue, s.window/2, 1)
	if err != nil {
		return err
	}
	if !locked {
		log.DebugContext(ctx, "Presence job held by another instance")
		return nil
	}
	defer redis.UnLock(context.Background(), s.rdb, consts.PresenceJobLock, lockValue)

	users, err := redis.OnlineSince(ctx, s.rdb, consts.PresenceOnlineKey, now.Add(-s.window))
	if err != nil {
		return err
	}
	return s.touch(ctx, users, now)
}

func (s *PresenceJob) touch(ctx context.Context, users []string, now time.Time) error {
	if len(users) == 0 {
		return nil
	}
	if err := s.profiles.TouchLastSeen(ctx, users, now); err != nil {
		return err
	}
	log.InfoContext(ctx, "Presence refreshed", "users", len(users))
	return nil
}
