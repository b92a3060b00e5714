package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"elearn/internal/auth"
	apperrors "elearn/internal/errors"
	"elearn/internal/mailer"
	"elearn/internal/model"
	"elearn/internal/repository"
)

// RegisterInput is a registration request awaiting email verification.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Avatar   *model.Avatar
}

// TokenPair is a freshly minted access/refresh pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService handles registration, activation and the session lifecycle.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (activationToken string, err error)
	Activate(ctx context.Context, activationToken, activationCode string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error)
	SocialAuth(ctx context.Context, name, email string, avatar *model.Avatar) (*model.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	sessions   auth.SessionStoreInterface
	mail       mailer.Sender
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, sessions auth.SessionStoreInterface, mail mailer.Sender) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		sessions:   sessions,
		mail:       mail,
	}
}

// Register checks the email is free, mints an activation token carrying the
// whole pending registration and mails the confirmation code. Nothing is
// persisted until Activate succeeds.
func (s *authService) Register(ctx context.Context, input RegisterInput) (string, error) {
	if err := s.checkEmailFree(ctx, input.Email); err != nil {
		return "", err
	}

	hash, err := model.HashPassword(input.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	pending := model.PendingUser{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Avatar:       input.Avatar,
	}

	token, code, err := s.jwtService.MintActivation(pending)
	if err != nil {
		return "", fmt.Errorf("mint activation token: %w", err)
	}

	// The code travels only by mail; the caller gets just the signed token.
	if err := s.mail.SendActivation(input.Email, input.Name, code); err != nil {
		return "", apperrors.ErrUpstream
	}

	return token, nil
}

// Activate verifies the token and code, re-checks email uniqueness (two
// registrations may have raced) and persists the pending user. Write-time
// enforcement means the window between Register and Activate is a soft hold,
// not a reservation.
func (s *authService) Activate(ctx context.Context, activationToken, activationCode string) (*model.User, error) {
	claims, err := s.jwtService.VerifyActivation(activationToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.ErrActivationExpired
		}
		return nil, apperrors.ErrInvalidActivationToken
	}

	if claims.ActivationCode != activationCode {
		return nil, apperrors.ErrInvalidActivationCode
	}

	if err := s.checkEmailFree(ctx, claims.User.Email); err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         claims.User.Name,
		Email:        claims.User.Email,
		PasswordHash: claims.User.PasswordHash,
		Role:         "user",
	}
	if claims.User.Avatar != nil {
		user.Avatar = *claims.User.Avatar
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and issues a token pair backed by a session
// record. Unknown email and wrong password fail identically.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	user, err := s.userRepo.FindByEmailWithPassword(ctx, email)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	if !user.ComparePassword(password) {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// SocialAuth upserts a password-less account for a social login and issues
// the same session bundle as Login.
func (s *authService) SocialAuth(ctx context.Context, name, email string, avatar *model.Avatar) (*model.User, *TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("find user: %w", err)
		}
		user = &model.User{Name: name, Email: email, Role: "user"}
		if avatar != nil {
			user.Avatar = *avatar
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, nil, apperrors.ErrEmailExists
			}
			return nil, nil, fmt.Errorf("create user: %w", err)
		}
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates the token pair. The session record must still exist: logout
// deletes it, and that deletion is what makes a 3-day refresh token revocable.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtService.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperrors.ErrRefreshFailed
	}

	user, err := s.sessions.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			return nil, apperrors.ErrRefreshFailed
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	return s.issueSession(ctx, user)
}

// Logout revokes the session. Cache failures surface as internal errors, not
// as a successful logout.
func (s *authService) Logout(ctx context.Context, userID string) error {
	return s.sessions.Delete(ctx, userID)
}

func (s *authService) issueSession(ctx context.Context, user *model.User) (*TokenPair, error) {
	accessToken, err := s.jwtService.MintAccess(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}

	refreshToken, err := s.jwtService.MintRefresh(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("mint refresh token: %w", err)
	}

	// Writing the snapshot also renews its TTL, so a session lives as long as
	// its refresh chain keeps being used.
	if err := s.sessions.Set(ctx, user); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *authService) checkEmailFree(ctx context.Context, email string) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return apperrors.ErrEmailExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check email: %w", err)
	}
	return nil
}
