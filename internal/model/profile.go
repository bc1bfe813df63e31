package model

import "time"

// Profile 用户资料，presence 由 LastSeen 是否为空推导
type Profile struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username    string     `gorm:"type:varchar(50);uniqueIndex:idx_username;not null" json:"username"`
	DisplayName *string    `gorm:"type:varchar(100)" json:"display_name"`
	Email       *string    `gorm:"type:varchar(255);index" json:"email"`
	AvatarURL   *string    `gorm:"type:varchar(512)" json:"avatar_url"`
	LastSeen    *time.Time `json:"last_seen"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// Name 优先展示昵称，其次用户名
func (p *Profile) Name() string {
	if p.DisplayName != nil && *p.DisplayName != "" {
		return *p.DisplayName
	}
	return p.Username
}

func (p *Profile) Avatar() string {
	if p.AvatarURL == nil {
		return ""
	}
	return *p.AvatarURL
}

func (p *Profile) Online() bool {
	return p.LastSeen != nil
}
