package auth

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"elearn/internal/model"
)

func newTestService(accessTTL, refreshTTL time.Duration) *JWTService {
	return NewJWTService(Secrets{
		Activation: "activation-secret",
		Access:     "access-secret",
		Refresh:    "refresh-secret",
	}, accessTTL, refreshTTL)
}

func TestJWTService_AccessRoundTrip(t *testing.T) {
	svc := newTestService(5*time.Minute, 3*24*time.Hour)

	token, err := svc.MintAccess("user-1")
	assert.NoError(t, err)

	claims, err := svc.VerifyAccess(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, KindAccess, claims.Kind)
}

func TestJWTService_ExpiredTokenRejected(t *testing.T) {
	svc := newTestService(-time.Minute, 3*24*time.Hour)

	token, err := svc.MintAccess("user-1")
	assert.NoError(t, err)

	_, err = svc.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_KindConfusionRejected(t *testing.T) {
	svc := newTestService(5*time.Minute, 3*24*time.Hour)

	accessToken, err := svc.MintAccess("user-1")
	assert.NoError(t, err)
	refreshToken, err := svc.MintRefresh("user-1")
	assert.NoError(t, err)

	// Wrong secret entirely.
	_, err = svc.VerifyRefresh(accessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.VerifyAccess(refreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Same secret for both kinds: the kind claim alone must still reject.
	shared := NewJWTService(Secrets{Access: "shared", Refresh: "shared"}, 5*time.Minute, time.Hour)
	accessToken, err = shared.MintAccess("user-1")
	assert.NoError(t, err)
	_, err = shared.VerifyRefresh(accessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_TamperedTokenRejected(t *testing.T) {
	svc := newTestService(5*time.Minute, time.Hour)

	token, err := svc.MintAccess("user-1")
	assert.NoError(t, err)

	_, err = svc.VerifyAccess(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ActivationRoundTrip(t *testing.T) {
	svc := newTestService(5*time.Minute, time.Hour)
	pending := model.PendingUser{
		Name:         "A",
		Email:        "a@test.com",
		PasswordHash: "$2a$10$hash",
	}

	token, code, err := svc.MintActivation(pending)
	assert.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[1-9]\d{3}$`), code)

	claims, err := svc.VerifyActivation(token)
	assert.NoError(t, err)
	assert.Equal(t, pending, claims.User)
	assert.Equal(t, code, claims.ActivationCode)

	// An activation token must never pass as a session token.
	_, err = svc.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateActivationCode_Range(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := generateActivationCode()
		assert.NoError(t, err)
		assert.Len(t, code, 4)
	}
}
