package redis

import (
	"Parley/internal/pkg/realtime"
	"context"
	"fmt"
	log "log/slog"

	"github.com/redis/go-redis/v9"
)

// Publisher 通过 Redis 频道广播行变更，多实例部署时每个实例都能收到
type Publisher struct {
	rdb     *redis.Client
	channel string
}

func NewPublisher(rdb *redis.Client, channel string) *Publisher {
	return &Publisher{rdb: rdb, channel: channel}
}

func (p *Publisher) Publish(ctx context.Context, change realtime.Change) error {
	payload, err := realtime.EncodeChange(change)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

// Source 订阅 Redis 频道并把变更转交给本地 Hub
type Source struct {
	rdb     *redis.Client
	channel string
}

func NewSource(rdb *redis.Client, channel string) *Source {
	return &Source{rdb: rdb, channel: channel}
}

func (s *Source) Run(ctx context.Context, sink realtime.Publisher) error {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	defer func() {
		_ = pubsub.Close()
	}()
	// 等待订阅确认，连接失败时尽早返回
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	log.Info("Redis realtime source started", "channel", s.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			change, err := realtime.DecodeChange([]byte(msg.Payload))
			if err != nil {
				log.WarnContext(ctx, "Skip malformed realtime payload", "channel", msg.Channel, "err", err)
				continue
			}
			if err := sink.Publish(ctx, change); err != nil {
				log.ErrorContext(ctx, "Failed to dispatch change", "table", change.Table, "err", err)
			}
		}
	}
}
