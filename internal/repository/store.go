package repository

import (
	"Parley/internal/model"

	"gorm.io/gorm"
)

// Store 远端存储能力集合，同步引擎只依赖这几个仓储接口
type Store struct {
	Chats        ChatRepo
	Participants ParticipantRepo
	Profiles     ProfileRepo
	Messages     MessageRepo
}

// NewGormStore 基于关系库的存储实现
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Chats:        NewChatRepo(db),
		Participants: NewParticipantRepo(db),
		Profiles:     NewProfileRepo(db),
		Messages:     NewMessageRepo(db),
	}
}

// AutoMigrate 建表，仅用于本地 sqlite 与测试
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Chat{}, &model.ChatParticipant{}, &model.Profile{}, &model.Message{})
}
