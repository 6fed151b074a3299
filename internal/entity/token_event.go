package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TokenAction string

const (
	TokenIssued       TokenAction = "issued"
	TokenRedeemed     TokenAction = "redeemed"
	TokenRejected     TokenAction = "rejected"
	TokenNotifyFailed TokenAction = "notify_failed"
)

type TokenEvent struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserID  *uuid.UUID   `gorm:"type:uuid;index"`
	Purpose TokenPurpose `gorm:"type:varchar(32);not null"`
	Action  TokenAction  `gorm:"type:varchar(32);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}

func (e *TokenEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
