package repository

import (
	"context"
	"errors"
	"time"

	"staffingauth/internal/entity"

	"gorm.io/gorm"
)

type TokenRepository interface {
	Create(ctx context.Context, token *entity.Token) error
	FindActive(ctx context.Context, tokenHash string, purpose entity.TokenPurpose) (*entity.Token, error)
	Consume(ctx context.Context, token *entity.Token, now time.Time) (bool, error)
	Release(ctx context.Context, token *entity.Token) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, t *entity.Token) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// FindActive returns the unconsumed token for hash and purpose, or nil. Expired
// rows are returned so the caller can tell expiry apart from reuse.
func (r *tokenRepository) FindActive(
	ctx context.Context,
	tokenHash string,
	purpose entity.TokenPurpose,
) (*entity.Token, error) {

	var token entity.Token
	err := r.db.WithContext(ctx).
		Where(`
			token_hash = ? AND
			purpose = ? AND
			consumed_at IS NULL
		`, tokenHash, purpose).
		First(&token).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Consume reports false when another caller already consumed the row.
func (r *tokenRepository) Consume(ctx context.Context, t *entity.Token, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Token{}).
		Where("id = ? AND consumed_at IS NULL", t.ID).
		Update("consumed_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Release clears consumed_at so a claimed token can be redeemed again. Only the
// caller that won Consume may call it.
func (r *tokenRepository) Release(ctx context.Context, t *entity.Token) error {
	return r.db.WithContext(ctx).
		Model(&entity.Token{}).
		Where("id = ?", t.ID).
		Update("consumed_at", nil).
		Error
}

func (r *tokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR consumed_at < ?", cutoff, cutoff).
		Delete(&entity.Token{})
	return result.RowsAffected, result.Error
}
