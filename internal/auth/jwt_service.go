package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"elearn/internal/model"
)

// TokenKind tags each JWT so a token minted under one secret can never be
// accepted as another kind, even if the secrets were ever shared.
type TokenKind string

const (
	KindActivation TokenKind = "activation"
	KindAccess     TokenKind = "access"
	KindRefresh    TokenKind = "refresh"
)

// ActivationTokenExpiry is the validity window of a pending registration.
const ActivationTokenExpiry = 5 * time.Minute

var (
	// ErrInvalidToken is returned on signature mismatch, malformed tokens and
	// kind confusion.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token is past its expiry.
	ErrExpiredToken = errors.New("token has expired")
)

// SessionClaims are carried by access and refresh tokens.
type SessionClaims struct {
	UserID string    `json:"id"`
	Kind   TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// ActivationClaims carry an entire not-yet-persisted registration plus the
// human-facing confirmation code.
type ActivationClaims struct {
	User           model.PendingUser `json:"user"`
	ActivationCode string            `json:"activation_code"`
	Kind           TokenKind         `json:"kind"`
	jwt.RegisteredClaims
}

// Secrets holds the independent signing secrets, one per token kind.
type Secrets struct {
	Activation string
	Access     string
	Refresh    string
}

// JWTService mints and verifies the three token kinds.
type JWTService struct {
	secrets    Secrets
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTService creates a JWT service with per-kind secrets and configurable
// access/refresh lifetimes.
func NewJWTService(secrets Secrets, accessTTL, refreshTTL time.Duration) *JWTService {
	return &JWTService{
		secrets:    secrets,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (s *JWTService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (s *JWTService) RefreshTTL() time.Duration { return s.refreshTTL }

// MintActivation signs a pending registration into a token and returns it
// together with the 4-digit confirmation code embedded in the claims. The code
// is generated independently of the signature so a recipient can transcribe it
// without revealing the token.
func (s *JWTService) MintActivation(pending model.PendingUser) (token, code string, err error) {
	code, err = generateActivationCode()
	if err != nil {
		return "", "", fmt.Errorf("generate activation code: %w", err)
	}

	claims := &ActivationClaims{
		User:           pending,
		ActivationCode: code,
		Kind:           KindActivation,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ActivationTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secrets.Activation))
	if err != nil {
		return "", "", err
	}
	return token, code, nil
}

// MintAccess signs a short-lived access token for the user.
func (s *JWTService) MintAccess(userID string) (string, error) {
	return s.mintSession(userID, KindAccess, s.secrets.Access, s.accessTTL)
}

// MintRefresh signs a refresh token for the user.
func (s *JWTService) MintRefresh(userID string) (string, error) {
	return s.mintSession(userID, KindRefresh, s.secrets.Refresh, s.refreshTTL)
}

func (s *JWTService) mintSession(userID string, kind TokenKind, secret string, ttl time.Duration) (string, error) {
	claims := &SessionClaims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyAccess verifies an access token and returns its claims.
func (s *JWTService) VerifyAccess(token string) (*SessionClaims, error) {
	return s.verifySession(token, KindAccess, s.secrets.Access)
}

// VerifyRefresh verifies a refresh token and returns its claims.
func (s *JWTService) VerifyRefresh(token string) (*SessionClaims, error) {
	return s.verifySession(token, KindRefresh, s.secrets.Refresh)
}

func (s *JWTService) verifySession(token string, kind TokenKind, secret string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := s.parse(token, secret, claims); err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyActivation verifies an activation token and returns its claims.
func (s *JWTService) VerifyActivation(token string) (*ActivationClaims, error) {
	claims := &ActivationClaims{}
	if err := s.parse(token, s.secrets.Activation, claims); err != nil {
		return nil, err
	}
	if claims.Kind != KindActivation {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// generateActivationCode draws a 4-digit decimal code in [1000, 9999].
func generateActivationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
