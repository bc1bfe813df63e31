package service

import (
	"Parley/internal/api/dto"
	"Parley/internal/model"
	"Parley/internal/pkg/consts"
	"Parley/internal/repository"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ChatService 新建单聊
type ChatService interface {
	// CreateChat 按用户名或邮箱查找对方，建会话并写入双方成员
	CreateChat(ctx context.Context, user Identity, identifier string) (string, *dto.ContactDTO, error)
}

type chatServiceImpl struct {
	chats    repository.ChatRepo
	profiles repository.ProfileRepo
	avatars  AvatarResolver
}

func NewChatService(store *repository.Store, avatars AvatarResolver) ChatService {
	if avatars == nil {
		avatars = PassthroughAvatars
	}
	return &chatServiceImpl{
		chats:    store.Chats,
		profiles: store.Profiles,
		avatars:  avatars,
	}
}

func (s *chatServiceImpl) CreateChat(ctx context.Context, user Identity, identifier string) (string, *dto.ContactDTO, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || !user.Valid() {
		return "", nil, ErrParamInvalid
	}

	found, err := s.profiles.Search(ctx, identifier, consts.ProfileSearchLimit)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrCreateChatFailed, err)
	}

	var target *model.Profile
	for _, p := range found {
		if p.ID != user.ID {
			target = p
			break
		}
	}
	if target == nil {
		if len(found) > 0 {
			return "", nil, ErrTargetUserInvalid
		}
		return "", nil, ErrUserNotFound
	}

	chat := &model.Chat{ID: uuid.NewString()}
	participants := []*model.ChatParticipant{
		{UserID: user.ID},
		{UserID: target.ID},
	}
	if err := s.chats.CreateChat(ctx, chat, participants); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrCreateChatFailed, err)
	}

	contact := ContactFromProfile(ctx, target, s.avatars)
	return chat.ID, &contact, nil
}
