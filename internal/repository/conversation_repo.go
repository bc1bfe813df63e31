package repository

import (
	"Parley/internal/model"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepo interface {
	CreateChat(ctx context.Context, chat *model.Chat, participants []*model.ChatParticipant) error
}

type ParticipantRepo interface {
	ListByUser(ctx context.Context, userID string) ([]*model.ChatParticipant, error)
	ListByChat(ctx context.Context, chatID string) ([]*model.ChatParticipant, error)
}

type chatRepoImpl struct {
	db *gorm.DB
}

func NewChatRepo(db *gorm.DB) ChatRepo {
	return &chatRepoImpl{db: db}
}

// CreateChat 开启事务创建会话及初始成员
func (s *chatRepoImpl) CreateChat(ctx context.Context, chat *model.Chat, participants []*model.ChatParticipant) error {
	if chat.ID == "" {
		chat.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		for _, p := range participants {
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			p.ChatID = chat.ID
			p.CreatedAt = time.Now()
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

type participantRepoImpl struct {
	db *gorm.DB
}

func NewParticipantRepo(db *gorm.DB) ParticipantRepo {
	return &participantRepoImpl{db: db}
}

// ListByUser 用户参与的所有会话成员行，按加入顺序
func (s *participantRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.ChatParticipant, error) {
	var rows []*model.ChatParticipant
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListByChat 会话下的全部成员
func (s *participantRepoImpl) ListByChat(ctx context.Context, chatID string) ([]*model.ChatParticipant, error) {
	var rows []*model.ChatParticipant
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
