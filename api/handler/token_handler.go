package handler

import (
	"errors"
	"net/http"
	"strconv"

	"staffingauth/internal/dto"
	"staffingauth/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// TokenHandler exposes issuance and redemption of email tokens.
type TokenHandler struct {
	Service  *service.TokenService
	Validate *validator.Validate
	Logger   logrus.FieldLogger
}

func NewTokenHandler(svc *service.TokenService, validate *validator.Validate, logger logrus.FieldLogger) *TokenHandler {
	return &TokenHandler{Service: svc, Validate: validate, Logger: logger}
}

func (h *TokenHandler) SendVerification(c echo.Context) error {
	var req dto.SendVerificationRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid field: UserID"))
	}
	err = h.Service.SendVerification(c.Request().Context(), service.VerificationInput{
		UserID:    userID,
		Email:     req.Email,
		FirstName: req.FirstName,
	})
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return writeMessage(c, http.StatusOK, "Verification email sent")
}

func (h *TokenHandler) VerifyEmail(c echo.Context) error {
	var req dto.VerifyEmailRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if _, err := h.Service.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return writeMessage(c, http.StatusOK, "Email verified")
}

// PasswordForgot answers the same way whether or not the address is known.
func (h *TokenHandler) PasswordForgot(c echo.Context) error {
	var req dto.PasswordForgotRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	input := service.ForgotPasswordInput{Email: req.Email, FirstName: req.FirstName}
	if req.UserID != "" {
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			return writeError(c, http.StatusBadRequest, errors.New("invalid field: UserID"))
		}
		input.UserID = &userID
	}
	if err := h.Service.RequestPasswordReset(c.Request().Context(), input); err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return writeMessage(c, http.StatusOK, "If the address is registered, a reset link has been sent")
}

func (h *TokenHandler) PasswordReset(c echo.Context) error {
	var req dto.PasswordResetRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if _, err := h.Service.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return writeMessage(c, http.StatusOK, "Password updated")
}

func (h *TokenHandler) AdminSweep(c echo.Context) error {
	deleted, err := h.Service.Sweep(c.Request().Context())
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, dto.SweepResponse{Success: true, Deleted: deleted})
}

func (h *TokenHandler) AdminTokenEvents(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid user id"))
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	events, err := h.Service.Events(c.Request().Context(), userID, limit)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, dto.TokenEventResponsesFromEntities(events))
}
