package repository

import (
	"Parley/internal/model"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepo interface {
	// ListByChat 按创建时间升序返回会话全部消息
	ListByChat(ctx context.Context, chatID string) ([]*model.Message, error)
	// Latest 会话最新一条消息，没有消息时返回 nil, nil
	Latest(ctx context.Context, chatID string) (*model.Message, error)
	// Create 写入消息并回填服务端 ID 与时间
	Create(ctx context.Context, msg *model.Message) error
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepoImpl{db: db}
}

func (s *messageRepoImpl) ListByChat(ctx context.Context, chatID string) ([]*model.Message, error) {
	var msgs []*model.Message
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

func (s *messageRepoImpl) Latest(ctx context.Context, chatID string) (*model.Message, error) {
	var msgs []*model.Message
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Limit(1).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[0], nil
}

func (s *messageRepoImpl) Create(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(msg).Error
}
