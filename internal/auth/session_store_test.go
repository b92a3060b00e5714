package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"elearn/internal/model"
)

// memoryCache is an in-memory Cache for tests.
type memoryCache struct {
	data map[string][]byte
	err  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.data[key], nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

func TestSessionStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newMemoryCache(), time.Hour)

	user := &model.User{ID: uuid.New(), Name: "A", Email: "a@test.com", Role: "user"}
	assert.NoError(t, store.Set(ctx, user))

	got, err := store.Get(ctx, user.ID.String())
	assert.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, user.ID, got.ID)

	assert.NoError(t, store.Delete(ctx, user.ID.String()))

	_, err = store.Get(ctx, user.ID.String())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionStore_SnapshotOmitsPasswordHash(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	store := NewSessionStore(cache, time.Hour)

	user := &model.User{ID: uuid.New(), Email: "a@test.com", PasswordHash: "$2a$10$secret"}
	assert.NoError(t, store.Set(ctx, user))

	raw := cache.data[sessionKeyPrefix+user.ID.String()]
	assert.NotContains(t, string(raw), "secret")

	got, err := store.Get(ctx, user.ID.String())
	assert.NoError(t, err)
	assert.Empty(t, got.PasswordHash)
}

func TestSessionStore_CacheErrorsSurface(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	cache.err = errors.New("connection refused")
	store := NewSessionStore(cache, time.Hour)

	_, err := store.Get(ctx, "id")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)

	assert.Error(t, store.Set(ctx, &model.User{ID: uuid.New()}))
	assert.Error(t, store.Delete(ctx, "id"))
}
