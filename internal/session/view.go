package session

import (
	"Parley/internal/api/dto"
	"Parley/internal/service"

	"github.com/jinzhu/copier"
)

func (s *Session) buildView() *dto.ViewDTO {
	v := &dto.ViewDTO{
		State:                string(s.state),
		Loading:              s.loading,
		ActiveConversationID: s.activeID,
		ShowSidebar:          s.showSidebar,
		Conversations:        []dto.ConversationDTO{},
		Messages:             []dto.MessageDTO{},
		Groups:               []dto.DateGroupDTO{},
	}
	if len(s.convs) > 0 {
		if err := copier.Copy(&v.Conversations, &s.convs); err != nil {
			s.logger.Warn("Copy conversations into view failed", "err", err)
		}
	}
	if t, ok := s.timelines[s.activeID]; ok && s.activeID != "" {
		v.Messages = service.MarkAvatars(t.messages)
		v.Groups = service.GroupByDate(v.Messages, s.deps.Location)
	}
	return v
}
