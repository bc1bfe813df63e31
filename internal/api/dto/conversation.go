package dto

import "time"

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// ContactDTO 会话对方身份
type ContactDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Status string `json:"status"`
}

// LastMessageDTO 会话列表中的最新消息预览
type LastMessageDTO struct {
	Content           string    `json:"content"`
	Timestamp         time.Time `json:"timestamp"`
	IsRead            bool      `json:"isRead"`
	IsFromCurrentUser bool      `json:"isFromCurrentUser"`
}

// ConversationDTO 会话列表项
type ConversationDTO struct {
	ID          string         `json:"id"`
	Contact     ContactDTO     `json:"contact"`
	LastMessage LastMessageDTO `json:"lastMessage"`
	UnreadCount int            `json:"unreadCount"`
}
