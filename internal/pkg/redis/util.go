package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

// TryLock 抢占分布式锁，retryTimes 为 -1 时一直重试
func TryLock(ctx context.Context, rdb *redis.Client, key string, value interface{}, expiration time.Duration, retryTimes int) (bool, error) {
	for i := 0; i < retryTimes || retryTimes == -1; i++ {
		success, err := rdb.SetNX(ctx, key, value, expiration).Result()
		if err != nil {
			return false, err
		}
		if success {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return false, nil
}

// UnLock 只释放自己持有的锁
func UnLock(ctx context.Context, rdb *redis.Client, key string, value interface{}) {
	rdb.Eval(ctx, unlockScript, []string{key}, value)
}

// MarkOnline 在有序集合中记录用户最近一次心跳
func MarkOnline(ctx context.Context, rdb *redis.Client, key string, at time.Time, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	zs := make([]redis.Z, 0, len(members))
	for _, m := range members {
		zs = append(zs, redis.Z{Score: float64(at.Unix()), Member: m})
	}
	return rdb.ZAdd(ctx, key, zs...).Err()
}

// OnlineSince 返回 since 之后有心跳的用户，并清理过期成员
func OnlineSince(ctx context.Context, rdb *redis.Client, key string, since time.Time) ([]string, error) {
	min := strconv.FormatInt(since.Unix(), 10)
	pipe := rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+min)
	members := pipe.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: min, Max: "+inf"})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return members.Val(), nil
}
