package kafka

import (
	"Parley/internal/pkg/realtime"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// CanalHandler 把 Canal binlog 消息转成行变更通知
type CanalHandler struct {
	database string
	sink     realtime.Publisher
}

func NewCanalHandler(database string, sink realtime.Publisher) *CanalHandler {
	return &CanalHandler{
		database: database,
		sink:     sink,
	}
}

func (s *CanalHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("canal consumer setup")
	return nil
}

func (s *CanalHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("canal consumer cleanup")
	return nil
}

func (s *CanalHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("process batch error", "err", err)
		return err
	}
	return nil
}

// logic 无法解析的消息直接跳过，只有投递失败才重试
func (s *CanalHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, s.database)
	if err != nil {
		log.WarnContext(ctx, "Skip canal message", "offset", msg.Offset, "err", err)
		return nil
	}
	for _, change := range canalMsg.Changes() {
		if err := s.sink.Publish(ctx, change); err != nil {
			return err
		}
	}
	return nil
}
