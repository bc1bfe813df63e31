package service

import (
	"Parley/internal/api/dto"
	"Parley/internal/model"
	"Parley/internal/pkg/consts"
	"Parley/internal/repository"
	"context"
	"fmt"
	"sort"
	"time"
)

const dateKeyLayout = "2006-01-02"

// TimelineService 单个会话的消息时间线
type TimelineService interface {
	Load(ctx context.Context, chatID, currentUserID string) ([]dto.MessageDTO, error)
}

type timelineServiceImpl struct {
	profiles repository.ProfileRepo
	messages repository.MessageRepo
	avatars  AvatarResolver
}

func NewTimelineService(store *repository.Store, avatars AvatarResolver) TimelineService {
	if avatars == nil {
		avatars = PassthroughAvatars
	}
	return &timelineServiceImpl{
		profiles: store.Profiles,
		messages: store.Messages,
		avatars:  avatars,
	}
}

// Load 拉取全部历史并一次性批量解析发送者资料
func (s *timelineServiceImpl) Load(ctx context.Context, chatID, currentUserID string) ([]dto.MessageDTO, error) {
	msgs, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %w", ErrFetchFailed, err)
	}
	// 服务端已按 created_at 排序，稳定排序只兜底，同一时间保持到达顺序
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})

	senderIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, m := range msgs {
		if m.SenderID == "" {
			continue
		}
		if _, ok := seen[m.SenderID]; ok {
			continue
		}
		seen[m.SenderID] = struct{}{}
		senderIDs = append(senderIDs, m.SenderID)
	}

	senders := make(map[string]dto.SenderDTO, len(senderIDs))
	if len(senderIDs) > 0 {
		profiles, err := s.profiles.GetByIDs(ctx, senderIDs)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve senders: %w", ErrFetchFailed, err)
		}
		for _, p := range profiles {
			avatar := p.Avatar()
			if avatar != "" {
				avatar = s.avatars.Resolve(ctx, avatar)
			}
			senders[p.ID] = dto.SenderDTO{ID: p.ID, Name: p.Name(), Avatar: avatar}
		}
	}

	res := make([]dto.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, toMessageDTO(m, senders, currentUserID))
	}
	return res, nil
}

func toMessageDTO(m *model.Message, senders map[string]dto.SenderDTO, currentUserID string) dto.MessageDTO {
	sender, ok := senders[m.SenderID]
	if !ok {
		sender = dto.SenderDTO{ID: m.SenderID, Name: consts.UnknownSenderName}
	}
	if sender.Name == "" {
		sender.Name = consts.UnknownSenderName
	}
	return dto.MessageDTO{
		ID:            m.ID,
		ChatID:        m.ChatID,
		Content:       m.Content,
		Timestamp:     m.CreatedAt,
		Sender:        sender,
		IsCurrentUser: m.SenderID != "" && m.SenderID == currentUserID,
	}
}

// MarkAvatars 连续同一发送者只在最后一条展示头像，返回新切片
func MarkAvatars(msgs []dto.MessageDTO) []dto.MessageDTO {
	res := make([]dto.MessageDTO, len(msgs))
	copy(res, msgs)
	for i := range res {
		last := i == len(res)-1
		res[i].ShowAvatar = last || res[i+1].Sender.ID != res[i].Sender.ID
	}
	return res
}

// GroupByDate 按本地日期分组，分组顺序取首次出现顺序，组内保持原顺序
func GroupByDate(msgs []dto.MessageDTO, loc *time.Location) []dto.DateGroupDTO {
	if loc == nil {
		loc = time.Local
	}
	groups := make([]dto.DateGroupDTO, 0)
	index := make(map[string]int)
	for _, m := range msgs {
		key := m.Timestamp.In(loc).Format(dateKeyLayout)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, dto.DateGroupDTO{Date: key})
		}
		groups[i].Messages = append(groups[i].Messages, m)
	}
	return groups
}
