package dto

// ViewDTO 会话对展示层暴露的只读状态
type ViewDTO struct {
	State                string            `json:"state"`
	Loading              bool              `json:"loading"`
	Conversations        []ConversationDTO `json:"conversations"`
	ActiveConversationID string            `json:"activeConversationId,omitempty"`
	Messages             []MessageDTO      `json:"messages"`
	Groups               []DateGroupDTO    `json:"groups"`
	ShowSidebar          bool              `json:"showSidebar"`
}

// NoticeDTO 瞬时提示，对应前端 toast
type NoticeDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Destructive bool   `json:"destructive"`
}
