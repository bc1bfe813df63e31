package model

import "time"

// Chat 会话主表
type Chat struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Chat) TableName() string { return "chats" }

// ChatParticipant 会话成员表，多对多映射
type ChatParticipant struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ChatID    string    `gorm:"type:varchar(36);uniqueIndex:idx_chat_user;not null" json:"chat_id"`
	UserID    string    `gorm:"type:varchar(36);uniqueIndex:idx_chat_user;index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ChatParticipant) TableName() string { return "chat_participants" }
