package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"elearn/internal/assets"
	"elearn/internal/auth"
	apperrors "elearn/internal/errors"
	"elearn/internal/model"
	"elearn/internal/repository"
)

// UserService exposes profile reads and mutations. Every mutation writes the
// fresh snapshot through to the session cache so subsequent authenticated
// reads observe the change immediately.
type UserService interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	UpdateInfo(ctx context.Context, userID, name, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) (*model.User, error)
	UpdateAvatar(ctx context.Context, userID, encodedImage string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	sessions auth.SessionStoreInterface
	assets   assets.Store
	logger   zerolog.Logger
}

// NewUserService builds a UserService with repository, session store and
// asset store.
func NewUserService(userRepo repository.UserRepository, sessions auth.SessionStoreInterface, assetStore assets.Store, logger zerolog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		sessions: sessions,
		assets:   assetStore,
		logger:   logger,
	}
}

// GetUser serves the session snapshot when present and falls back to the
// credential store, repopulating the session on the way out.
func (s *userService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.sessions.Get(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, auth.ErrNoSession) {
		return nil, fmt.Errorf("load session: %w", err)
	}

	user, err = s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Set(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateInfo changes name and/or email. An email change re-checks uniqueness
// against the credential store before it is applied.
func (s *userService) UpdateInfo(ctx context.Context, userID, name, email string) (*model.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if email != "" && email != user.Email {
		existing, err := s.userRepo.FindByEmail(ctx, email)
		if err == nil && existing != nil {
			return nil, apperrors.ErrEmailExists
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check email: %w", err)
		}
		user.Email = email
	}
	if name != "" {
		user.Name = name
	}

	return s.persist(ctx, user)
}

// UpdatePassword verifies the old password against the stored hash and
// re-hashes the new one. No other mutation touches the hash.
func (s *userService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) (*model.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.PasswordHash == "" {
		return nil, apperrors.ErrPasswordNotSet
	}
	if !user.ComparePassword(oldPassword) {
		return nil, apperrors.ErrPasswordMismatch
	}
	if err := user.SetPassword(newPassword); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.persist(ctx, user)
}

// UpdateAvatar uploads the replacement first, swaps the stored reference, and
// only then deletes the old asset. A failed upload leaves the old avatar
// intact; a failed delete of the old asset is logged and orphaned rather than
// failing the request.
func (s *userService) UpdateAvatar(ctx context.Context, userID, encodedImage string) (*model.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	newAvatar, err := s.assets.Upload(ctx, encodedImage)
	if err != nil {
		return nil, apperrors.ErrUpstream
	}

	oldAvatar := user.Avatar
	user.Avatar = newAvatar

	updated, err := s.persist(ctx, user)
	if err != nil {
		return nil, err
	}

	if oldAvatar.AssetID != "" {
		if err := s.assets.Delete(ctx, oldAvatar.AssetID); err != nil {
			s.logger.Warn().Err(err).Str("asset_id", oldAvatar.AssetID).Msg("failed to delete replaced avatar")
		}
	}

	return updated, nil
}

// ListUsers returns all accounts without password hashes.
func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

// loadUser fetches the full record including the password hash so a
// subsequent Save carries it through unchanged.
func (s *userService) loadUser(ctx context.Context, userID string) (*model.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound
	}

	user, err := s.userRepo.FindByIDWithPassword(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userService) persist(ctx context.Context, user *model.User) (*model.User, error) {
	if err := s.userRepo.Save(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailExists
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	if err := s.sessions.Set(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
