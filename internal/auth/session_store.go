package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"elearn/internal/model"
)

const sessionKeyPrefix = "session:"

// ErrNoSession is returned when no session record exists for a user. A token
// that verifies cryptographically but has no session behind it is treated as
// unauthenticated; this is the revocation path.
var ErrNoSession = errors.New("session not found")

// Cache is the key-value backend the session store writes through.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SessionStoreInterface defines session snapshot storage keyed by user id.
type SessionStoreInterface interface {
	Get(ctx context.Context, userID string) (*model.User, error)
	Set(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, userID string) error
}

// SessionStore keeps user snapshots in the cache. Writes are unconditional
// overwrites; entries expire with the refresh token TTL so storage stays
// bounded without changing revocation semantics.
type SessionStore struct {
	cache Cache
	ttl   time.Duration
}

var _ SessionStoreInterface = (*SessionStore)(nil)

// NewSessionStore creates a session store whose entries live for ttl.
func NewSessionStore(cache Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: cache, ttl: ttl}
}

// Get loads the session snapshot for a user, or ErrNoSession.
func (s *SessionStore) Get(ctx context.Context, userID string) (*model.User, error) {
	data, err := s.cache.Get(ctx, sessionKeyPrefix+userID)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if data == nil {
		return nil, ErrNoSession
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &user, nil
}

// Set overwrites the session snapshot for the user. The snapshot is the user's
// JSON shape, which never includes the password hash.
func (s *SessionStore) Set(ctx context.Context, user *model.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+user.ID.String(), payload, s.ttl); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Delete revokes the user's session.
func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	if err := s.cache.Delete(ctx, sessionKeyPrefix+userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
