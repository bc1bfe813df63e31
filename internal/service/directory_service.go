package service

import (
	"Parley/internal/api/dto"
	"Parley/internal/model"
	"Parley/internal/pkg/consts"
	"Parley/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/jinzhu/copier"
	"golang.org/x/sync/errgroup"
)

// 单个会话解析失败时跳过，不影响整个列表
var errSkipConversation = errors.New("conversation skipped")

const resolveConcurrency = 8

// DirectoryService 会话目录：解析当前用户参与的会话并补全对方资料与最新消息
type DirectoryService interface {
	Load(ctx context.Context, userID string) ([]*dto.ConversationDTO, error)
}

type directoryServiceImpl struct {
	participants repository.ParticipantRepo
	profiles     repository.ProfileRepo
	messages     repository.MessageRepo
	avatars      AvatarResolver
}

func NewDirectoryService(store *repository.Store, avatars AvatarResolver) DirectoryService {
	if avatars == nil {
		avatars = PassthroughAvatars
	}
	return &directoryServiceImpl{
		participants: store.Participants,
		profiles:     store.Profiles,
		messages:     store.Messages,
		avatars:      avatars,
	}
}

// Load 全量加载会话列表，返回顺序与成员行顺序一致
func (s *directoryServiceImpl) Load(ctx context.Context, userID string) ([]*dto.ConversationDTO, error) {
	rows, err := s.participants.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list participations: %w", ErrFetchFailed, err)
	}
	if len(rows) == 0 {
		return []*dto.ConversationDTO{}, nil
	}

	chatIDs := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.ChatID]; ok {
			continue
		}
		seen[r.ChatID] = struct{}{}
		chatIDs = append(chatIDs, r.ChatID)
	}

	// 并发解析，结果按下标回填以保持顺序
	resolved := make([]*dto.ConversationDTO, len(chatIDs))
	var g errgroup.Group
	g.SetLimit(resolveConcurrency)
	for i, chatID := range chatIDs {
		g.Go(func() error {
			conv, err := s.resolve(ctx, chatID, userID)
			if err != nil {
				log.DebugContext(ctx, "Skip conversation", "chat_id", chatID, "err", err)
				return nil
			}
			resolved[i] = conv
			return nil
		})
	}
	// 单个会话失败只记录并跳过，goroutine 一律返回 nil
	g.Wait()

	res := make([]*dto.ConversationDTO, 0, len(resolved))
	for _, conv := range resolved {
		if conv != nil {
			res = append(res, conv)
		}
	}
	return res, nil
}

// resolve 解析单个会话：对方成员 -> 对方资料 -> 最新消息，任一步失败都返回错误
func (s *directoryServiceImpl) resolve(ctx context.Context, chatID, userID string) (*dto.ConversationDTO, error) {
	members, err := s.participants.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	var others []string
	for _, m := range members {
		if m.UserID != userID {
			others = append(others, m.UserID)
		}
	}
	if len(others) == 0 {
		return nil, fmt.Errorf("%w: no counterpart", errSkipConversation)
	}

	profiles, err := s.profiles.GetByIDs(ctx, others)
	if err != nil {
		return nil, err
	}
	counterpart := pickCounterpart(others, profiles)
	if counterpart == nil {
		return nil, fmt.Errorf("%w: no counterpart profile", errSkipConversation)
	}

	latest, err := s.messages.Latest(ctx, chatID)
	if err != nil {
		return nil, err
	}

	return &dto.ConversationDTO{
		ID:          chatID,
		Contact:     ContactFromProfile(ctx, counterpart, s.avatars),
		LastMessage: lastMessageOf(latest, userID),
		UnreadCount: 0,
	}, nil
}

// pickCounterpart 按成员顺序取第一个能解析到资料的对方
func pickCounterpart(ids []string, profiles []*model.Profile) *model.Profile {
	byID := make(map[string]*model.Profile, len(profiles))
	for _, p := range profiles {
		if p != nil && p.ID != "" {
			byID[p.ID] = p
		}
	}
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			return p
		}
	}
	return nil
}

// ContactFromProfile 资料 -> 会话对方身份
func ContactFromProfile(ctx context.Context, p *model.Profile, avatars AvatarResolver) dto.ContactDTO {
	status := dto.StatusOffline
	if p.Online() {
		status = dto.StatusOnline
	}
	// ID 按字段、Name / Avatar 按同名方法复制
	contact := dto.ContactDTO{}
	if err := copier.Copy(&contact, p); err != nil {
		log.WarnContext(ctx, "Copy profile into contact failed", "profile_id", p.ID, "err", err)
		contact.ID = p.ID
		contact.Name = p.Name()
		contact.Avatar = p.Avatar()
	}
	contact.Status = status
	if contact.Avatar != "" && avatars != nil {
		contact.Avatar = avatars.Resolve(ctx, contact.Avatar)
	}
	return contact
}

func lastMessageOf(msg *model.Message, userID string) dto.LastMessageDTO {
	if msg == nil {
		return PlaceholderLastMessage()
	}
	return dto.LastMessageDTO{
		Content:           msg.Content,
		Timestamp:         msg.CreatedAt,
		IsRead:            true,
		IsFromCurrentUser: msg.SenderID == userID,
	}
}

// PlaceholderLastMessage 新会话的占位预览
func PlaceholderLastMessage() dto.LastMessageDTO {
	return dto.LastMessageDTO{
		Content:   consts.PlaceholderLastMessage,
		Timestamp: time.Now(),
		IsRead:    true,
	}
}
