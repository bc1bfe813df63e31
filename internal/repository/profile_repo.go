package repository

import (
	"Parley/internal/model"
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

type ProfileRepo interface {
	GetByIDs(ctx context.Context, ids []string) ([]*model.Profile, error)
	// Search 按用户名或邮箱模糊匹配，忽略大小写
	Search(ctx context.Context, term string, limit int) ([]*model.Profile, error)
	TouchLastSeen(ctx context.Context, ids []string, at time.Time) error
}

type profileRepoImpl struct {
	db *gorm.DB
}

func NewProfileRepo(db *gorm.DB) ProfileRepo {
	return &profileRepoImpl{db: db}
}

func (s *profileRepoImpl) GetByIDs(ctx context.Context, ids []string) ([]*model.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []*model.Profile
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error
	return profiles, err
}

func (s *profileRepoImpl) Search(ctx context.Context, term string, limit int) ([]*model.Profile, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	var profiles []*model.Profile
	err := s.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}

// TouchLastSeen 批量刷新在线时间
func (s *profileRepoImpl) TouchLastSeen(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&model.Profile{}).
		Where("id IN ?", ids).
		Update("last_seen", at).Error
}
