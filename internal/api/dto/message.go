package dto

import "time"

// SenderDTO 消息发送者
type SenderDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// MessageDTO 时间线中的一条消息
type MessageDTO struct {
	ID            string    `json:"id"`
	ChatID        string    `json:"chatId"`
	Content       string    `json:"content"`
	Timestamp     time.Time `json:"timestamp"`
	Sender        SenderDTO `json:"sender"`
	IsCurrentUser bool      `json:"isCurrentUser"`
	// ShowAvatar 同一发送者连续消息中只有最后一条展示头像
	ShowAvatar bool `json:"showAvatar"`
	// Local 本地乐观追加、尚未被重新拉取确认
	Local bool `json:"local,omitempty"`
}

// DateGroupDTO 按本地日期分组
type DateGroupDTO struct {
	Date     string       `json:"date"`
	Messages []MessageDTO `json:"messages"`
}
