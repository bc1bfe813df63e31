package model

import "time"

// Message 消息明细
type Message struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ChatID    string    `gorm:"type:varchar(36);index:idx_chat_created;not null" json:"chat_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	SenderID  string    `gorm:"type:varchar(36);index" json:"sender_id"`
	CreatedAt time.Time `gorm:"index:idx_chat_created" json:"created_at"`
}

func (Message) TableName() string { return "messages" }
