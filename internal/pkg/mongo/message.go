package mongo

import (
	"Parley/internal/model"
	"time"
)

// Message MongoDB 消息文档
type Message struct {
	ID        string    `bson:"_id" json:"id"`
	ChatID    string    `bson:"chat_id" json:"chat_id"`
	SenderID  string    `bson:"sender_id" json:"sender_id"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	// Seq 写入时的纳秒序号，created_at 相同时保持到达顺序
	Seq int64 `bson:"seq" json:"seq"`
}

func fromModel(m *model.Message) *Message {
	return &Message{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func (m *Message) toModel() *model.Message {
	return &model.Message{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
