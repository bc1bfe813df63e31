package service

import (
	"Parley/internal/api/dto"
	"Parley/internal/model"
	"Parley/internal/pkg/consts"
	"Parley/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SendService 发送消息并构造本地可见副本
type SendService interface {
	// Send 空白内容或缺少会话/用户时为 no-op，返回 nil, nil
	Send(ctx context.Context, chatID string, user Identity, text string) (*dto.MessageDTO, error)
}

type sendServiceImpl struct {
	messages repository.MessageRepo
}

func NewSendService(store *repository.Store) SendService {
	return &sendServiceImpl{messages: store.Messages}
}

func (s *sendServiceImpl) Send(ctx context.Context, chatID string, user Identity, text string) (*dto.MessageDTO, error) {
	if chatID == "" || !user.Valid() || strings.TrimSpace(text) == "" {
		return nil, nil
	}

	row := &model.Message{
		ChatID:   chatID,
		Content:  text,
		SenderID: user.ID,
	}
	if err := s.messages.Create(ctx, row); err != nil {
		log.ErrorContext(ctx, "Failed to insert message", "chat_id", chatID, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	id := row.ID
	if id == "" {
		id = uuid.NewString()
	}

	name := user.Email
	if name == "" {
		name = consts.SelfSenderName
	}

	return &dto.MessageDTO{
		ID:            id,
		ChatID:        chatID,
		Content:       text,
		Timestamp:     time.Now(),
		Sender:        dto.SenderDTO{ID: user.ID, Name: name},
		IsCurrentUser: true,
		Local:         true,
	}, nil
}
