package session

import (
	"Parley/internal/api/dto"
	"Parley/internal/model"
	"Parley/internal/pkg/realtime"
	"Parley/internal/service"
	"time"
)

// loadDirectory 全量重新加载会话目录，旧的在途结果按代次丢弃
func (s *Session) loadDirectory() {
	s.dirGen++
	gen := s.dirGen
	s.loading = true
	s.publish()

	ctx := s.ctx
	go func() {
		convs, err := s.deps.Directory.Load(ctx, s.user.ID)
		s.post(func() { s.applyDirectory(gen, convs, err) })
	}()
}

func (s *Session) applyDirectory(gen uint64, convs []*dto.ConversationDTO, err error) {
	if gen != s.dirGen {
		s.logger.Debug("Drop stale directory load", "gen", gen, "current", s.dirGen)
		return
	}
	s.loading = false
	if err != nil {
		s.logger.Warn("Directory load failed", "state", s.state, "err", err)
		s.notify("Failed to load conversations", err)
		s.publish()
		return
	}

	next := make([]*dto.ConversationDTO, 0, len(convs)+len(s.pending))
	index := make(map[string]int, len(convs))
	for _, c := range convs {
		if _, ok := index[c.ID]; ok {
			continue
		}
		// 未读数只存在本地，重新加载时保留
		if i, ok := s.convIndex[c.ID]; ok {
			prev := s.convs[i]
			c.UnreadCount = prev.UnreadCount
			if prev.UnreadCount > 0 {
				c.LastMessage.IsRead = false
			}
		}
		delete(s.pending, c.ID)
		index[c.ID] = len(next)
		next = append(next, c)
	}
	// 本地刚创建、服务端结果尚未包含的会话
	for _, c := range s.convs {
		if _, ok := s.pending[c.ID]; !ok {
			continue
		}
		if _, ok := index[c.ID]; ok {
			continue
		}
		index[c.ID] = len(next)
		next = append(next, c)
	}

	for id, sub := range s.convSubs {
		if _, ok := index[id]; !ok {
			sub.Unsubscribe()
			delete(s.convSubs, id)
			delete(s.timelines, id)
		}
	}
	s.convs = next
	s.convIndex = index
	for _, c := range next {
		s.track(c.ID)
	}
	if s.activeID != "" {
		if _, ok := index[s.activeID]; !ok {
			s.activeID = ""
		}
	}

	s.state = StateReady
	s.autoSelect()
	s.publish()
}

// applyChatCreated 不等推送，直接把新会话追加到目录
func (s *Session) applyChatCreated(chatID string, counterpart dto.ContactDTO) bool {
	if _, ok := s.convIndex[chatID]; ok {
		return false
	}
	s.pending[chatID] = struct{}{}
	s.convIndex[chatID] = len(s.convs)
	s.convs = append(s.convs, &dto.ConversationDTO{
		ID:          chatID,
		Contact:     counterpart,
		LastMessage: service.PlaceholderLastMessage(),
	})
	s.track(chatID)
	return true
}

// track 为目录中的会话订阅新消息
func (s *Session) track(chatID string) {
	if _, ok := s.convSubs[chatID]; ok {
		return
	}
	s.convSubs[chatID] = s.deps.Realtime.Subscribe(
		realtime.TableMessages,
		realtime.EventInsert,
		realtime.Eq("chat_id", chatID),
		func(ch realtime.Change) { s.receiveMessage(chatID, ch.Record) },
	)
}

func (s *Session) markRead(chatID string) {
	c := s.conversation(chatID)
	if c == nil {
		return
	}
	c.UnreadCount = 0
	c.LastMessage.IsRead = true
}

func (s *Session) conversation(chatID string) *dto.ConversationDTO {
	i, ok := s.convIndex[chatID]
	if !ok {
		return nil
	}
	return s.convs[i]
}

// autoSelect 列表首次非空且没有选中会话时选中第一个，只做一次
func (s *Session) autoSelect() {
	if s.autoSelected || s.activeID != "" || len(s.convs) == 0 {
		return
	}
	s.autoSelected = true
	s.selectConversation(s.convs[0].ID, false)
}

// receiveMessage 运行在发布方协程：解析载荷后登记到 inbox
func (s *Session) receiveMessage(chatID string, record model.Record) {
	msg, err := model.MessageFromRecord(record)
	if err != nil {
		s.logger.Warn("Skip malformed message change", "chat_id", chatID, "err", err)
		msg = nil
	} else if msg.ChatID != chatID {
		msg = nil
	}
	s.inbox.messageInserted(chatID, msg, msg != nil && msg.SenderID != s.user.ID)
}

// drainInbox 在循环中处理合并后的推送通知
func (s *Session) drainInbox() {
	dir, order, chats := s.inbox.drain()
	for _, chatID := range order {
		s.onMessageInserted(chatID, chats[chatID])
	}
	if dir {
		s.loadDirectory()
	}
	if len(order) > 0 {
		s.publish()
	}
}

// onMessageInserted 某个会话有新消息：刷新摘要，存在的时间线全量重载
// 首次加载仍在途时同样重载，旧结果由代次丢弃
func (s *Session) onMessageInserted(chatID string, sig *chatSignal) {
	c := s.conversation(chatID)
	if c == nil {
		return
	}
	if msg := sig.last; msg != nil {
		active := chatID == s.activeID
		fromSelf := msg.SenderID == s.user.ID
		at := msg.CreatedAt
		if at.IsZero() {
			at = time.Now()
		}
		c.LastMessage = dto.LastMessageDTO{
			Content:           msg.Content,
			Timestamp:         at,
			IsRead:            active || fromSelf,
			IsFromCurrentUser: fromSelf,
		}
		// 只有对方发来且不在当前会话时计入未读
		switch {
		case active:
			c.UnreadCount = 0
		case sig.foreign > 0:
			c.UnreadCount += sig.foreign
			if !fromSelf {
				c.LastMessage.IsRead = false
			}
		}
	}
	if _, ok := s.timelines[chatID]; ok {
		s.loadTimeline(chatID)
	}
}
