package middleware

import (
	"fmt"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"elearn/internal/auth"
	apperrors "elearn/internal/errors"
	"elearn/internal/model"
)

// currentUserKey is where the session snapshot is attached for handlers.
const currentUserKey = "currentUser"

// Authenticate verifies the access token cookie and loads the session behind
// it. A token that verifies but has no session record is rejected: deleting
// the session is how logout revokes still-unexpired tokens.
func Authenticate(jwtService *auth.JWTService, sessions auth.SessionStoreInterface) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + auth.AccessTokenCookie,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.VerifyAccess(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			// Missing, malformed and expired all collapse to one message.
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrUnauthenticated.Error())
		},
	})

	loadSession := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get("user").(*auth.SessionClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrUnauthenticated.Error())
			}

			user, err := sessions.Get(c.Request().Context(), claims.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrUnauthenticated.Error())
			}

			c.Set(currentUserKey, user)
			return next(c)
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(loadSession(next))
	}
}

// RequireRoles restricts a route to sessions whose role is in the allow list.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrUnauthenticated.Error())
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("role: %s is not allowed to access this resource", user.Role))
		}
	}
}

// CurrentUser returns the session snapshot attached by Authenticate, or nil.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(currentUserKey).(*model.User)
	return user
}
