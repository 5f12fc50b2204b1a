package http

import (
	"strings"

	"github.com/labstack/echo/v4"

	"cmcs-backend/internal/adapter/middleware"
	"cmcs-backend/internal/domain/access"
)

// principalFrom reads the session facts the upstream gateway forwards.
// A missing or unknown role yields access.RoleNone, which no action accepts.
func principalFrom(c echo.Context) access.Principal {
	h := c.Request().Header
	return access.Principal{
		Role:   access.ParseRole(h.Get(middleware.HeaderUserRole)),
		UserID: strings.TrimSpace(h.Get(middleware.HeaderUserID)),
	}
}
