package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleRecruiter Role = "recruiter"
	RoleCandidate Role = "candidate"
	RoleClient    Role = "client"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName    string    `gorm:"type:varchar(100)"`
	PasswordHash *string   `gorm:"type:text"`

	EmailVerifiedAt *time.Time
	IsActive        bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Roles []UserRole
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type UserRole struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role   Role      `gorm:"type:varchar(32);primaryKey"`

	CreatedAt time.Time
}
