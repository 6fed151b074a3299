package repository

import (
	"context"
	"errors"
	"time"

	"staffingauth/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	CreateWithRole(ctx context.Context, user *entity.User, role entity.Role) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	VerifyEmail(ctx context.Context, userID uuid.UUID, at time.Time) error
	SetPasswordHash(ctx context.Context, userID uuid.UUID, hash string) error
	Roles(ctx context.Context, userID uuid.UUID) ([]entity.Role, error)
	AddRole(ctx context.Context, userID uuid.UUID, role entity.Role) error
}

var ErrUserNotFound = errors.New("user not found")

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// CreateWithRole inserts the user and its first role in one transaction.
func (r *userRepository) CreateWithRole(ctx context.Context, user *entity.User, role entity.Role) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&entity.UserRole{UserID: user.ID, Role: role}).Error
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", email, true).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyEmail keeps the first confirmation time when called twice.
func (r *userRepository) VerifyEmail(ctx context.Context, userID uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Update("email_verified_at", gorm.Expr("COALESCE(email_verified_at, ?)", at))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SetPasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) Roles(ctx context.Context, userID uuid.UUID) ([]entity.Role, error) {
	var roles []entity.Role
	err := r.db.WithContext(ctx).
		Model(&entity.UserRole{}).
		Where("user_id = ?", userID).
		Order("role").
		Pluck("role", &roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *userRepository) AddRole(ctx context.Context, userID uuid.UUID, role entity.Role) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.UserRole{UserID: userID, Role: role}).
		Error
}
