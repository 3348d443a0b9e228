package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"sportconnect-go/internal/model"
)

// RecommendationRepository 接口定义了推荐记录的持久化操作。记录只追加。
type RecommendationRepository interface {
	Create(ctx context.Context, reco *model.Recommendation) error
	// ListByUser 按创建时间倒序返回用户的全部推荐，时间相同时 ID 大的在前。
	ListByUser(ctx context.Context, userID string) ([]model.Recommendation, error)
	// Latest 返回用户最新的一条推荐，没有时返回 ErrNotFound。
	Latest(ctx context.Context, userID string) (*model.Recommendation, error)
}

type recommendationRepository struct {
	db *gorm.DB
}

// NewRecommendationRepository 创建一个新的 RecommendationRepository 实例。
func NewRecommendationRepository(db *gorm.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

func (r *recommendationRepository) Create(ctx context.Context, reco *model.Recommendation) error {
	return r.db.WithContext(ctx).Create(reco).Error
}

func (r *recommendationRepository) ListByUser(ctx context.Context, userID string) ([]model.Recommendation, error) {
	recos := []model.Recommendation{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&recos).Error
	if err != nil {
		return nil, err
	}
	return recos, nil
}

func (r *recommendationRepository) Latest(ctx context.Context, userID string) (*model.Recommendation, error) {
	var reco model.Recommendation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		First(&reco).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reco, nil
}
