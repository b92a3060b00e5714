package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "elearn/internal/errors"
	"elearn/internal/middleware"
	"elearn/internal/service"
)

// UserHandler handles profile endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateInfoRequest carries optional profile field changes.
type UpdateInfoRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// UpdatePasswordRequest carries a password change.
type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// UpdateAvatarRequest carries a base64-encoded replacement image.
type UpdateAvatarRequest struct {
	Avatar string `json:"avatar" validate:"required"`
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return fail(apperrors.ErrUnauthenticated)
	}

	fresh, err := h.userService.GetUser(c.Request().Context(), user.ID.String())
	if err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"user":    fresh,
	})
}

// UpdateInfo changes the user's name and/or email.
func (h *UserHandler) UpdateInfo(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return fail(apperrors.ErrUnauthenticated)
	}

	var req UpdateInfoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.userService.UpdateInfo(c.Request().Context(), user.ID.String(), req.Name, req.Email)
	if err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "User info updated successfully",
		"user":    updated,
	})
}

// UpdatePassword verifies the old password and stores the new one.
func (h *UserHandler) UpdatePassword(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return fail(apperrors.ErrUnauthenticated)
	}

	var req UpdatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.userService.UpdatePassword(c.Request().Context(), user.ID.String(), req.OldPassword, req.NewPassword)
	if err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Password updated successfully",
		"user":    updated,
	})
}

// UpdateAvatar replaces the user's profile image in the asset store.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return fail(apperrors.ErrUnauthenticated)
	}

	var req UpdateAvatarRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.userService.UpdateAvatar(c.Request().Context(), user.ID.String(), req.Avatar)
	if err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Profile picture updated successfully",
		"user":    updated,
	})
}

// ListUsers returns every account. Restricted to admins by the role gate.
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"users":   users,
	})
}
