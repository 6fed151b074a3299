package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	contextUserIDKey = "auth_user_id"
	contextRolesKey  = "auth_roles"
)

func SetAuthContext(c echo.Context, userID uuid.UUID, roles []string) {
	c.Set(contextUserIDKey, userID)
	c.Set(contextRolesKey, roles)
}

func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(contextUserIDKey)
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func RolesFromContext(c echo.Context) ([]string, bool) {
	value := c.Get(contextRolesKey)
	roles, ok := value.([]string)
	return roles, ok
}
