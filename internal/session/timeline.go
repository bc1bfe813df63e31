package session

import (
	"Parley/internal/api/dto"
)

// timeline 单个会话的消息时间线，重新加载时整体替换
type timeline struct {
	messages []dto.MessageDTO
	gen      uint64
	loaded   bool
}

// add 乐观追加，按 id 去重
func (t *timeline) add(msg dto.MessageDTO) bool {
	for _, m := range t.messages {
		if m.ID == msg.ID {
			return false
		}
	}
	t.messages = append(t.messages, msg)
	return true
}

func (s *Session) timelineFor(chatID string) *timeline {
	t, ok := s.timelines[chatID]
	if !ok {
		t = &timeline{}
		s.timelines[chatID] = t
	}
	return t
}

// loadTimeline 全量重新加载，只有最新代次的结果会被应用
func (s *Session) loadTimeline(chatID string) {
	t := s.timelineFor(chatID)
	t.gen++
	gen := t.gen

	ctx := s.ctx
	go func() {
		msgs, err := s.deps.Timeline.Load(ctx, chatID, s.user.ID)
		s.post(func() { s.applyTimeline(chatID, gen, msgs, err) })
	}()
}

func (s *Session) applyTimeline(chatID string, gen uint64, msgs []dto.MessageDTO, err error) {
	t, ok := s.timelines[chatID]
	if !ok || s.conversation(chatID) == nil {
		s.logger.Debug("Drop timeline load for unknown chat", "chat_id", chatID)
		return
	}
	if gen != t.gen {
		s.logger.Debug("Drop stale timeline load", "chat_id", chatID, "gen", gen, "current", t.gen)
		return
	}
	if err != nil {
		s.logger.Warn("Timeline load failed", "chat_id", chatID, "err", err)
		if chatID == s.activeID {
			s.notify("Failed to load messages", err)
		}
		return
	}
	if msgs == nil {
		msgs = []dto.MessageDTO{}
	}
	t.messages = msgs
	t.loaded = true
	s.publish()
}

// applySent 发送成功：追加到当前最新的时间线并刷新会话摘要
func (s *Session) applySent(chatID string, msg dto.MessageDTO) {
	if t, ok := s.timelines[chatID]; ok {
		t.add(msg)
	}
	if c := s.conversation(chatID); c != nil {
		c.LastMessage = dto.LastMessageDTO{
			Content:           msg.Content,
			Timestamp:         msg.Timestamp,
			IsRead:            true,
			IsFromCurrentUser: true,
		}
	}
	s.publish()
}
