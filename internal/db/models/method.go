package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// MethodProvider identifies how a credential is verified.
type MethodProvider string

const (
	// MethodProviderLocal is a password stored as an Argon2id hash.
	MethodProviderLocal MethodProvider = "local"
)

// Method is a single authentication method of a user. One row exists per
// (user, provider); replacing a password deletes the local row and creates
// a fresh one inside the same transaction.
type Method struct {
	ID     uint64 `gorm:"primaryKey" json:"-"`
	UserID string `gorm:"size:36;not null;uniqueIndex:idx_user_provider" json:"-"`
	// Provider indicates the credential type of this method.
	Provider MethodProvider `gorm:"type:varchar(20);not null;uniqueIndex:idx_user_provider" json:"-"`
	// Identity is the hashed secret. Never serialized, never logged.
	Identity  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `json:"-"`
}

// TableName specifies the database table name for the Method model.
func (Method) TableName() string {
	return "methods"
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the stored hash.
// It uses constant-time comparison to prevent timing attacks.
func (m *Method) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, m.Identity)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
