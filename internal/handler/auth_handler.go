package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"elearn/internal/auth"
	"elearn/internal/config"
	apperrors "elearn/internal/errors"
	"elearn/internal/middleware"
	"elearn/internal/model"
	"elearn/internal/service"
)

// AuthHandler handles registration, activation and session endpoints.
type AuthHandler struct {
	authService service.AuthService
	jwtService  *auth.JWTService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, jwtService *auth.JWTService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtService:  jwtService,
		cfg:         cfg,
	}
}

// AvatarPayload is an asset reference supplied by the client.
type AvatarPayload struct {
	AssetID string `json:"asset_id"`
	URL     string `json:"url"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string         `json:"name" validate:"required"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	Avatar   *AvatarPayload `json:"avatar,omitempty"`
}

// ActivateRequest represents an account activation request.
type ActivateRequest struct {
	ActivationToken string `json:"activationToken" validate:"required"`
	ActivationCode  string `json:"activationCode" validate:"required,len=4"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SocialAuthRequest represents a social login upsert.
type SocialAuthRequest struct {
	Name   string         `json:"name" validate:"required"`
	Email  string         `json:"email" validate:"required,email"`
	Avatar *AvatarPayload `json:"avatar,omitempty"`
}

// Register godoc
// @Summary Register a new user and send an activation mail
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.Envelope
// @Router /registration [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   req.Avatar.toModel(),
	})
	if err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":         true,
		"message":         "Registration successful! Please check your email (" + req.Email + ")",
		"activationToken": token,
	})
}

// Activate godoc
// @Summary Activate a pending registration
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ActivateRequest true "Activation token and code"
// @Success 201 {object} errors.Envelope
// @Failure 400 {object} errors.Envelope
// @Router /activate-user [post]
func (h *AuthHandler) Activate(c echo.Context) error {
	var req ActivateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := h.authService.Activate(c.Request().Context(), req.ActivationToken, req.ActivationCode); err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Account activated successfully",
	})
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.Envelope
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, pair, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(err)
	}

	h.setTokenCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"accessToken": pair.AccessToken,
		"user":        user,
	})
}

// SocialAuth godoc
// @Summary Upsert a social login and issue a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SocialAuthRequest true "Social profile"
// @Success 200 {object} map[string]interface{}
// @Router /social-auth [post]
func (h *AuthHandler) SocialAuth(c echo.Context) error {
	var req SocialAuthRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, pair, err := h.authService.SocialAuth(c.Request().Context(), req.Name, req.Email, req.Avatar.toModel())
	if err != nil {
		return fail(err)
	}

	h.setTokenCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"accessToken": pair.AccessToken,
		"user":        user,
	})
}

// Logout godoc
// @Summary Logout and revoke the session
// @Tags auth
// @Produce json
// @Success 200 {object} errors.Envelope
// @Failure 401 {object} errors.Envelope
// @Router /logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return fail(apperrors.ErrUnauthenticated)
	}

	if err := h.authService.Logout(c.Request().Context(), user.ID.String()); err != nil {
		return fail(err)
	}

	h.clearTokenCookies(c)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}

// Refresh godoc
// @Summary Rotate the access/refresh token pair
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.Envelope
// @Router /refresh-token [get]
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(auth.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return fail(apperrors.ErrRefreshFailed)
	}

	pair, err := h.authService.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		return fail(err)
	}

	h.setTokenCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"accessToken": pair.AccessToken,
	})
}

func (h *AuthHandler) setTokenCookies(c echo.Context, pair *service.TokenPair) {
	c.SetCookie(auth.NewTokenCookie(auth.AccessTokenCookie, pair.AccessToken, h.jwtService.AccessTTL(), h.cfg.Production))
	c.SetCookie(auth.NewTokenCookie(auth.RefreshTokenCookie, pair.RefreshToken, h.jwtService.RefreshTTL(), h.cfg.Production))
}

func (h *AuthHandler) clearTokenCookies(c echo.Context) {
	c.SetCookie(auth.ExpiredTokenCookie(auth.AccessTokenCookie, h.cfg.Production))
	c.SetCookie(auth.ExpiredTokenCookie(auth.RefreshTokenCookie, h.cfg.Production))
}

func (p *AvatarPayload) toModel() *model.Avatar {
	if p == nil {
		return nil
	}
	return &model.Avatar{AssetID: p.AssetID, URL: p.URL}
}

// fail converts a domain error into an echo HTTP error with the uniform
// status mapping.
func fail(err error) *echo.HTTPError {
	return echo.NewHTTPError(apperrors.StatusOf(err), apperrors.MessageOf(err))
}
