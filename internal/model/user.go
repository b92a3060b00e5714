package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// Avatar references an uploaded profile image in the asset store.
type Avatar struct {
	AssetID string `json:"asset_id" gorm:"size:255"`
	URL     string `json:"url" gorm:"size:512"`
}

// User represents an activated account.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255"` // Never expose in JSON or session snapshots
	Avatar       Avatar    `json:"avatar" gorm:"embedded;embeddedPrefix:avatar_"`
	Role         string    `json:"role" gorm:"size:50;default:'user'"`
	IsVerified   bool      `json:"is_verified" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PendingUser is a registration awaiting activation. It lives only inside the
// signed activation token and is never persisted.
type PendingUser struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"password_hash"`
	Avatar       *Avatar `json:"avatar,omitempty"`
}

// BeforeCreate assigns an id when none was set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// SetPassword hashes the plaintext password into PasswordHash. Hashing happens
// only here, at the explicit mutation point, so unrelated saves never re-hash.
func (u *User) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// ComparePassword reports whether plaintext matches the stored hash.
// It fails closed: accounts without a password (social logins) never match.
func (u *User) ComparePassword(plaintext string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil
}

// HasAvatar reports whether an asset is currently stored for the user.
func (u *User) HasAvatar() bool {
	return u.Avatar.AssetID != ""
}

// HashPassword hashes a plaintext password for embedding in a pending
// registration before any user record exists.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
