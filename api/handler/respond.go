package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"staffingauth/internal/dto"
	"staffingauth/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const genericServerError = "something went wrong, please try again later"

var errMalformedBody = errors.New("malformed request body")

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return errMalformedBody
	}
	return nil
}

func validate(v *validator.Validate, payload any) error {
	if v == nil {
		return nil
	}
	if err := v.Struct(payload); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return errors.New("invalid field: " + fieldErrs[0].Field())
		}
		return err
	}
	return nil
}

func writeMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, dto.MessageResponse{Success: true, Message: message})
}

func writeError(c echo.Context, status int, err error) error {
	return c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}

// writeServiceError maps service errors to a status. Backend failures are
// logged with their cause and answered with a generic message.
func writeServiceError(c echo.Context, logger logrus.FieldLogger, err error) error {
	status := http.StatusInternalServerError
	message := genericServerError
	switch {
	case errors.Is(err, service.ErrInvalidOrUsedToken):
		status, message = http.StatusBadRequest, service.ErrInvalidOrUsedToken.Error()
	case errors.Is(err, service.ErrTokenExpired):
		status, message = http.StatusBadRequest, service.ErrTokenExpired.Error()
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrWeakPassword):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrEmailNotVerified):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrUserNotFound):
		status, message = http.StatusNotFound, err.Error()
	}
	if status == http.StatusInternalServerError {
		if logger == nil {
			logger = logrus.StandardLogger()
		}
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("request failed")
	}
	return c.JSON(status, dto.ErrorResponse{Error: message})
}
