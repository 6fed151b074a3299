package dto

import (
	"encoding/json"
	"time"

	"staffingauth/internal/entity"
)

type SendVerificationRequest struct {
	UserID    string `json:"userId" validate:"required,uuid"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"omitempty,max=100"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type PasswordForgotRequest struct {
	Email     string `json:"email" validate:"required,email"`
	UserID    string `json:"userId" validate:"omitempty,uuid"`
	FirstName string `json:"firstName" validate:"omitempty,max=100"`
}

type PasswordResetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type SweepResponse struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted"`
}

type TokenEventResponse struct {
	ID        string          `json:"id"`
	Purpose   string          `json:"purpose"`
	Action    string          `json:"action"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func TokenEventResponsesFromEntities(events []entity.TokenEvent) []TokenEventResponse {
	responses := make([]TokenEventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, TokenEventResponse{
			ID:        event.ID.String(),
			Purpose:   string(event.Purpose),
			Action:    string(event.Action),
			Metadata:  json.RawMessage(event.Metadata),
			CreatedAt: event.CreatedAt,
		})
	}
	return responses
}
