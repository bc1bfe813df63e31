package kafka

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

const (
	batchSize    = 32
	batchTimeout = 200 * time.Millisecond

	retryBase = 100 * time.Millisecond
	retryMax  = 5 * time.Second
)

var (
	ErrDatabaseMismatch = errors.New("canal database not match")
	ErrEmptyData        = errors.New("canal data is empty")
)

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 按批消费单个分区，批满或超时即提交
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	ctx := session.Context()
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	flush := func() {
		if last := processInOrder(ctx, batch, logic); last != nil {
			session.MarkMessage(last, "")
		}
		batch = batch[:0]
	}

	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				flush()
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				flush()
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				flush()
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// processInOrder 同一分区内的行变更必须按 binlog 顺序投递，所以逐条处理，失败原地退避重试
// 返回最后一条处理成功的消息，ctx 取消时后续消息留给下一次 rebalance
func processInOrder(ctx context.Context, msgs []*sarama.ConsumerMessage, logic LogicFunc) *sarama.ConsumerMessage {
	var done *sarama.ConsumerMessage
	for _, m := range msgs {
		if !retry(ctx, m, logic) {
			return done
		}
		done = m
	}
	return done
}

func retry(ctx context.Context, m *sarama.ConsumerMessage, logic LogicFunc) bool {
	wait := retryBase
	for {
		err := logic(ctx, m)
		if err == nil {
			return true
		}
		log.ErrorContext(ctx, "process canal message failed", "topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "retry_in", wait, "err", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
		wait = min(wait*2, retryMax)
	}
}

// ToCanalMessage 将kafka消息转换为canal消息结构体，database 为空时不校验库名
func ToCanalMessage(msg *sarama.ConsumerMessage, database string) (*CanalMessage, error) {
	var canalMsg CanalMessage
	if err := json.Unmarshal(msg.Value, &canalMsg); err != nil {
		return nil, fmt.Errorf("unmarshal canal message: %w", err)
	}
	if database != "" && canalMsg.Database != database {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseMismatch, canalMsg.Database)
	}
	if len(canalMsg.Data) == 0 {
		return nil, ErrEmptyData
	}
	return &canalMsg, nil
}
