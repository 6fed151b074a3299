package repository

import (
	"context"

	"staffingauth/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenEventRepository interface {
	Log(ctx context.Context, event *entity.TokenEvent) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.TokenEvent, error)
}

type tokenEventRepository struct {
	db *gorm.DB
}

func NewTokenEventRepository(db *gorm.DB) TokenEventRepository {
	return &tokenEventRepository{db: db}
}

func (r *tokenEventRepository) Log(ctx context.Context, event *entity.TokenEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *tokenEventRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.TokenEvent, error) {
	var events []entity.TokenEvent
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
