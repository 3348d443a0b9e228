package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"sportconnect-go/internal/model"
)

// ErrNotFound 表示记录不存在。
var ErrNotFound = errors.New("repository: record not found")

// ProfileRepository 接口定义了用户档案的持久化操作。
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
	Save(ctx context.Context, profile *model.Profile) error
}

// profileRepository 是 ProfileRepository 接口的 GORM 实现。
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建一个新的 ProfileRepository 实例。
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// FindByID 根据外部用户 ID 查找档案，不存在时返回 ErrNotFound。
func (r *profileRepository) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Save 插入或更新档案。
func (r *profileRepository) Save(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}
