package kafka

import (
	"Parley/internal/api/config"
	"Parley/internal/pkg/realtime"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// CanalSource 消费 Canal 写入 Kafka 的 binlog，作为推送源
type CanalSource struct {
	brokers  []string
	topic    string
	groupID  string
	database string
	cfg      *sarama.Config
}

func NewCanalSource(cfg *config.Config) *CanalSource {
	return &CanalSource{
		brokers:  cfg.Kafka.Brokers,
		topic:    cfg.KafkaCanal.Topic,
		groupID:  cfg.KafkaCanal.GroupID,
		database: cfg.KafkaCanal.Database,
		cfg:      newSaramaConfig(cfg.Kafka),
	}
}

// Run 阻塞消费直到 ctx 结束
func (s *CanalSource) Run(ctx context.Context, sink realtime.Publisher) error {
	group, err := sarama.NewConsumerGroup(s.brokers, s.groupID, s.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := group.Close(); err != nil {
			log.Error("Failed to close canal consumer", "err", err)
		}
	}()

	go func() {
		for err := range group.Errors() {
			log.Error("Canal consumer error", "err", err)
		}
	}()

	handler := NewCanalHandler(s.database, sink)
	log.Info("Canal consumer started", "topic", s.topic, "group", s.groupID)
	for {
		if err := group.Consume(ctx, []string{s.topic}, handler); err != nil {
			log.Error("Error from consumer", "err", err)
		}
		if ctx.Err() != nil {
			log.Info("Canal consumer shutting down...")
			return nil
		}
	}
}
