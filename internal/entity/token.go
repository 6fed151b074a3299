package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenPurpose string

const (
	EmailVerify   TokenPurpose = "email_verify"
	PasswordReset TokenPurpose = "password_reset"
)

func (p TokenPurpose) Valid() bool {
	return p == EmailVerify || p == PasswordReset
}

// Token is a single-use credential. Only the hash of the opaque value is stored.
type Token struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	TokenHash string       `gorm:"type:varchar(64);not null;uniqueIndex"`
	Email     string       `gorm:"type:varchar(255);not null"`
	Purpose   TokenPurpose `gorm:"type:varchar(32);not null;index"`

	IssuedAt   time.Time  `gorm:"not null"`
	ExpiresAt  time.Time  `gorm:"not null;index"`
	ConsumedAt *time.Time `gorm:"index"`
}

func (t *Token) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *Token) Consumed() bool {
	return t.ConsumedAt != nil
}
