package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"elearn/internal/auth"
	apperrors "elearn/internal/errors"
	"elearn/internal/model"
)

// MockAssetStore is a mock implementation of assets.Store.
type MockAssetStore struct {
	mock.Mock
}

func (m *MockAssetStore) Upload(ctx context.Context, encodedImage string) (model.Avatar, error) {
	args := m.Called(ctx, encodedImage)
	return args.Get(0).(model.Avatar), args.Error(1)
}

func (m *MockAssetStore) Delete(ctx context.Context, assetID string) error {
	args := m.Called(ctx, assetID)
	return args.Error(0)
}

func newUserServiceFixture() (*MockUserRepository, *MockSessionStore, *MockAssetStore, UserService) {
	repo := new(MockUserRepository)
	sessions := new(MockSessionStore)
	assetStore := new(MockAssetStore)
	svc := NewUserService(repo, sessions, assetStore, zerolog.Nop())
	return repo, sessions, assetStore, svc
}

func TestUserService_GetUser_SessionHit(t *testing.T) {
	repo, sessions, _, svc := newUserServiceFixture()

	user := &model.User{ID: uuid.New(), Email: "a@test.com"}
	sessions.On("Get", mock.Anything, user.ID.String()).Return(user, nil)

	got, err := svc.GetUser(context.Background(), user.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, user, got)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestUserService_GetUser_SessionMissFallsBack(t *testing.T) {
	repo, sessions, _, svc := newUserServiceFixture()

	user := &model.User{ID: uuid.New(), Email: "a@test.com"}
	sessions.On("Get", mock.Anything, user.ID.String()).Return(nil, auth.ErrNoSession)
	repo.On("FindByIDWithPassword", mock.Anything, user.ID).Return(user, nil)
	sessions.On("Set", mock.Anything, user).Return(nil)

	got, err := svc.GetUser(context.Background(), user.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	sessions.AssertExpectations(t)
}

func TestUserService_UpdateInfo_EmailConflict(t *testing.T) {
	repo, sessions, _, svc := newUserServiceFixture()

	user := &model.User{ID: uuid.New(), Name: "A", Email: "a@test.com"}
	repo.On("FindByIDWithPassword", mock.Anything, user.ID).Return(user, nil)
	repo.On("FindByEmail", mock.Anything, "taken@test.com").Return(&model.User{Email: "taken@test.com"}, nil)

	_, err := svc.UpdateInfo(context.Background(), user.ID.String(), "", "taken@test.com")

	assert.ErrorIs(t, err, apperrors.ErrEmailExists)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	sessions.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestUserService_UpdateInfo_WritesThroughSession(t *testing.T) {
	repo, sessions, _, svc := newUserServiceFixture()

	user := &model.User{ID: uuid.New(), Name: "A", Email: "a@test.com", PasswordHash: "$2a$10$hash"}
	repo.On("FindByIDWithPassword", mock.Anything, user.ID).Return(user, nil)
	repo.On("FindByEmail", mock.Anything, "b@test.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("Save", mock.Anything, user).Return(nil)
	sessions.On("Set", mock.Anything, user).Return(nil)

	updated, err := svc.UpdateInfo(context.Background(), user.ID.String(), "B", "b@test.com")

	assert.NoError(t, err)
	assert.Equal(t, "B", updated.Name)
	assert.Equal(t, "b@test.com", updated.Email)
	// The stored hash rides along untouched by a non-password mutation.
	assert.Equal(t, "$2a$10$hash", updated.PasswordHash)
	sessions.AssertExpectations(t)
}

func TestUserService_UpdatePassword(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "a@test.com"}
	assert.NoError(t, user.SetPassword("old-secret"))
	oldHash := user.PasswordHash

	repo, sessions, _, svc := newUserServiceFixture()
	repo.On("FindByIDWithPassword", mock.Anything, user.ID).Return(user, nil)
	repo.On("Save", mock.Anything, user).Return(nil)
	sessions.On("Set", mock.Anything, user).Return(nil)

	updated, err := svc.UpdatePassword(context.Background(), user.ID.String(), "old-secret", "new-secret")

	assert.NoError(t, err)
	assert.NotEqual(t, oldHash, updated.PasswordHash)
	assert.True(t, updated.ComparePassword("new-secret"))
	sessions.AssertExpectations(t)
}

func TestUserService_UpdatePassword_WrongOldPassword(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "a@test.com"}
	assert.NoError(t, user.SetPassword("old-secret"))

	repo, _, _, svc := newUserServiceFixture()
	repo.On("FindByIDWithPassword", mock.Anything, user.ID).Return(user, nil)

	_, err := svc.UpdatePassword(context.Background(), user.ID.String(), "wrong", "new-secret")

	assert.ErrorIs(t, err, apperrors.ErrPasswordMismatch)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUserService_UpdatePassword_SocialAccount(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "a@test.com"}

	repo, _, _, svc := newUserServiceFixture()
	repo.On("FindByIDWithPassword", mock.Anything, user.ID).Return(user, nil)

	_, err := svc.UpdatePassword(context.Background(), user.ID.String(), "anything", "new-secret")

	assert.ErrorIs(t, err, apperrors.ErrPasswordNotSet)
}

func TestUserService_UpdateAvatar_UploadBeforeDelete(t *testing.T) {
	user := &model.User{
		ID:     uuid.New(),
		Email:  "a@test.com",
		Avatar: model.Avatar{AssetID: "avatars/old", URL: "https://cdn/old"},
	}

	repo, sessions, assetStore, svc := newUserServiceFixture()

	var calls []string
	repo.On("FindByIDWithPassword", mock.Anything, user.ID).Return(user, nil)
	assetStore.On("Upload", mock.Anything, "base64-image").
		Run(func(mock.Arguments) { calls = append(calls, "upload") }).
		Return(model.Avatar{AssetID: "avatars/new", URL: "https://cdn/new"}, nil)
	repo.On("Save", mock.Anything, user).
		Run(func(mock.Arguments) { calls = append(calls, "save") }).
		Return(nil)
	sessions.On("Set", mock.Anything, user).
		Run(func(mock.Arguments) { calls = append(calls, "session") }).
		Return(nil)
	assetStore.On("Delete", mock.Anything, "avatars/old").
		Run(func(mock.Arguments) { calls = append(calls, "delete") }).
		Return(nil)

	updated, err := svc.UpdateAvatar(context.Background(), user.ID.String(), "base64-image")

	assert.NoError(t, err)
	assert.Equal(t, "avatars/new", updated.Avatar.AssetID)
	assert.Equal(t, "https://cdn/new", updated.Avatar.URL)
	// The replacement lands fully before the old asset goes away.
	assert.Equal(t, []string{"upload", "save", "session", "delete"}, calls)
}

func TestUserService_UpdateAvatar_UploadFailureKeepsOldAsset(t *testing.T) {
	user := &model.User{
		ID:     uuid.New(),
		Email:  "a@test.com",
		Avatar: model.Avatar{AssetID: "avatars/old", URL: "https://cdn/old"},
	}

	repo, sessions, assetStore, svc := newUserServiceFixture()
	repo.On("FindByIDWithPassword", mock.Anything, user.ID).Return(user, nil)
	assetStore.On("Upload", mock.Anything, mock.Anything).Return(model.Avatar{}, errors.New("bucket unreachable"))

	_, err := svc.UpdateAvatar(context.Background(), user.ID.String(), "base64-image")

	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.Equal(t, "avatars/old", user.Avatar.AssetID)
	assetStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	sessions.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestUserService_UpdateAvatar_DeleteFailureIsNotFatal(t *testing.T) {
	user := &model.User{
		ID:     uuid.New(),
		Email:  "a@test.com",
		Avatar: model.Avatar{AssetID: "avatars/old"},
	}

	repo, sessions, assetStore, svc := newUserServiceFixture()
	repo.On("FindByIDWithPassword", mock.Anything, user.ID).Return(user, nil)
	assetStore.On("Upload", mock.Anything, mock.Anything).Return(model.Avatar{AssetID: "avatars/new"}, nil)
	repo.On("Save", mock.Anything, user).Return(nil)
	sessions.On("Set", mock.Anything, user).Return(nil)
	assetStore.On("Delete", mock.Anything, "avatars/old").Return(errors.New("bucket unreachable"))

	updated, err := svc.UpdateAvatar(context.Background(), user.ID.String(), "base64-image")

	assert.NoError(t, err)
	assert.Equal(t, "avatars/new", updated.Avatar.AssetID)
}

func TestUserService_UnknownUser(t *testing.T) {
	repo, _, _, svc := newUserServiceFixture()

	id := uuid.New()
	repo.On("FindByIDWithPassword", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.UpdateInfo(context.Background(), id.String(), "B", "")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = svc.UpdateInfo(context.Background(), "not-a-uuid", "B", "")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
