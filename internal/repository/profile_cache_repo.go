package repository

import (
	"Parley/internal/model"
	"Parley/internal/pkg/consts"
	"context"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// cachedProfileRepo 资料读缓存，presence 依赖 last_seen，TTL 需要保持很短
type cachedProfileRepo struct {
	ProfileRepo
	rdb *redis.Client
	ttl time.Duration
}

func NewCachedProfileRepo(inner ProfileRepo, rdb *redis.Client, ttl time.Duration) ProfileRepo {
	return &cachedProfileRepo{ProfileRepo: inner, rdb: rdb, ttl: ttl}
}

func (s *cachedProfileRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = consts.ProfileKey + id
	}

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		// 缓存不可用时直接回源
		return s.ProfileRepo.GetByIDs(ctx, ids)
	}

	res := make([]*model.Profile, 0, len(ids))
	var misses []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		var p model.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			misses = append(misses, ids[i])
			continue
		}
		res = append(res, &p)
	}
	if len(misses) == 0 {
		return res, nil
	}

	loaded, err := s.ProfileRepo.GetByIDs(ctx, misses)
	if err != nil {
		return nil, err
	}

	pipe := s.rdb.Pipeline()
	for _, p := range loaded {
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		pipe.Set(ctx, consts.ProfileKey+p.ID, data, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.WarnContext(ctx, "Failed to fill profile cache", "err", err)
	}

	return append(res, loaded...), nil
}

func (s *cachedProfileRepo) TouchLastSeen(ctx context.Context, ids []string, at time.Time) error {
	if err := s.ProfileRepo.TouchLastSeen(ctx, ids, at); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = consts.ProfileKey + id
	}
	return s.rdb.Del(ctx, keys...).Err()
}
