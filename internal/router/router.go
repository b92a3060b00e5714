package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"elearn/internal/auth"
	"elearn/internal/config"
	apperrors "elearn/internal/errors"
	"elearn/internal/handler"
	"elearn/internal/middleware"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	sessions auth.SessionStoreInterface,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
	}))

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = errorHandler

	e.GET("/test", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"message": "API is working",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1")

	authenticated := middleware.Authenticate(jwtService, sessions)

	// Public routes
	api.POST("/registration", authHandler.Register)
	api.POST("/activate-user", authHandler.Activate)
	api.POST("/login", authHandler.Login)
	api.POST("/social-auth", authHandler.SocialAuth)
	api.GET("/refresh-token", authHandler.Refresh)

	// Authenticated routes
	api.GET("/logout", authHandler.Logout, authenticated)
	api.GET("/me", userHandler.Me, authenticated)
	api.PUT("/update-user-info", userHandler.UpdateInfo, authenticated)
	api.PUT("/update-user-password", userHandler.UpdatePassword, authenticated)
	api.PUT("/update-user-avatar", userHandler.UpdateAvatar, authenticated)

	// Admin routes
	api.GET("/users", userHandler.ListUsers, authenticated, middleware.RequireRoles("admin"))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// errorHandler renders every failure, including unknown routes, as the
// uniform {success:false, message} envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		switch m := httpErr.Message.(type) {
		case string:
			message = m
		case error:
			message = m.Error()
		default:
			message = fmt.Sprintf("%v", m)
		}
	}

	if code == http.StatusNotFound && message == http.StatusText(http.StatusNotFound) {
		message = fmt.Sprintf("Route %s not found", c.Request().URL.Path)
	}

	if err := c.JSON(code, apperrors.Fail(message)); err != nil {
		c.Logger().Error(err)
	}
}
