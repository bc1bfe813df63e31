package session

import (
	"Parley/internal/api/dto"
	"Parley/internal/service"
	"context"
	"strings"
)

// Select 选中会话：标记已读、收起侧边栏并重新加载时间线
func (s *Session) Select(ctx context.Context, chatID string) error {
	return s.call(ctx, func() error {
		if s.conversation(chatID) == nil {
			return service.ErrConversation
		}
		s.selectConversation(chatID, true)
		s.publish()
		return nil
	})
}

func (s *Session) selectConversation(chatID string, collapse bool) {
	s.activeID = chatID
	s.autoSelected = true
	s.markRead(chatID)
	if collapse {
		s.showSidebar = false
	}
	s.loadTimeline(chatID)
}

// Send 向当前会话发送消息，失败时返回错误且不改动本地状态
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var chatID string
	if err := s.call(ctx, func() error {
		chatID = s.activeID
		return nil
	}); err != nil {
		return err
	}
	if chatID == "" {
		return nil
	}

	msg, err := s.deps.Sender.Send(ctx, chatID, s.user, text)
	if err != nil {
		s.notify("Failed to send message", err)
		return err
	}
	if msg == nil {
		return nil
	}
	return s.call(ctx, func() error {
		s.applySent(chatID, *msg)
		return nil
	})
}

// ChatCreated 新建会话后立即加入目录、选中并以空时间线开始
func (s *Session) ChatCreated(ctx context.Context, chatID string, counterpart dto.ContactDTO) error {
	if chatID == "" || counterpart.ID == "" {
		return service.ErrParamInvalid
	}
	return s.call(ctx, func() error {
		if s.applyChatCreated(chatID, counterpart) {
			s.timelines[chatID] = &timeline{messages: []dto.MessageDTO{}, loaded: true}
			s.activeID = chatID
			s.autoSelected = true
			s.markRead(chatID)
			s.showSidebar = false
		} else {
			s.selectConversation(chatID, true)
		}
		s.publish()
		return nil
	})
}

// CreateChat 按用户名或邮箱找到对方并新建会话
func (s *Session) CreateChat(ctx context.Context, identifier string) (string, error) {
	chatID, contact, err := s.deps.Chats.CreateChat(ctx, s.user, identifier)
	if err != nil {
		s.notify("Failed to create chat", err)
		return "", err
	}
	if err := s.ChatCreated(ctx, chatID, *contact); err != nil {
		return "", err
	}
	return chatID, nil
}

// Refresh 手动重新加载会话目录
func (s *Session) Refresh(ctx context.Context) error {
	return s.call(ctx, func() error {
		s.loadDirectory()
		return nil
	})
}

func (s *Session) ToggleSidebar(ctx context.Context) error {
	return s.call(ctx, func() error {
		s.showSidebar = !s.showSidebar
		s.publish()
		return nil
	})
}

// Messages 任意已跟踪会话的时间线副本，未加载时返回 nil
func (s *Session) Messages(ctx context.Context, chatID string) ([]dto.MessageDTO, error) {
	var res []dto.MessageDTO
	err := s.call(ctx, func() error {
		t, ok := s.timelines[chatID]
		if !ok || !t.loaded {
			return nil
		}
		res = service.MarkAvatars(t.messages)
		return nil
	})
	return res, err
}
