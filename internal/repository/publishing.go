package repository

import (
	"Parley/internal/model"
	"Parley/internal/pkg/realtime"
	"context"
	log "log/slog"
	"time"
)

// WithPublisher 写成功后把行变更投递到推送通道
// 用于没有 CDC 的部署 (sqlite 本地模式 / Redis 推送)
func (s *Store) WithPublisher(pub realtime.Publisher) *Store {
	return &Store{
		Chats:        &publishingChatRepo{ChatRepo: s.Chats, pub: pub},
		Participants: s.Participants,
		Profiles:     s.Profiles,
		Messages:     &publishingMessageRepo{MessageRepo: s.Messages, pub: pub},
	}
}

// WithChatPublisher 只推送会话与成员写入，消息由存储自身的变更流推送
func (s *Store) WithChatPublisher(pub realtime.Publisher) *Store {
	return &Store{
		Chats:        &publishingChatRepo{ChatRepo: s.Chats, pub: pub},
		Participants: s.Participants,
		Profiles:     s.Profiles,
		Messages:     s.Messages,
	}
}

type publishingMessageRepo struct {
	MessageRepo
	pub realtime.Publisher
}

func (s *publishingMessageRepo) Create(ctx context.Context, msg *model.Message) error {
	if err := s.MessageRepo.Create(ctx, msg); err != nil {
		return err
	}
	publish(ctx, s.pub, realtime.TableMessages, msg.ToRecord())
	return nil
}

type publishingChatRepo struct {
	ChatRepo
	pub realtime.Publisher
}

func (s *publishingChatRepo) CreateChat(ctx context.Context, chat *model.Chat, participants []*model.ChatParticipant) error {
	if err := s.ChatRepo.CreateChat(ctx, chat, participants); err != nil {
		return err
	}
	publish(ctx, s.pub, realtime.TableChats, model.Record{"id": chat.ID})
	for _, p := range participants {
		publish(ctx, s.pub, realtime.TableParticipants, p.ToRecord())
	}
	return nil
}

// publish 推送失败不影响写入结果，订阅方最终会在下一次通知时重新拉取
func publish(ctx context.Context, pub realtime.Publisher, table string, record model.Record) {
	err := pub.Publish(ctx, realtime.Change{
		Table:      table,
		Kind:       realtime.EventInsert,
		Record:     record,
		CommitTime: time.Now(),
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to publish change", "table", table, "err", err)
	}
}
