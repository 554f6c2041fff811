package models

import "time"

// User is a registered account.
type User struct {
	CreatedAt    time.Time
	LastLogin    *time.Time
	ID           string
	Username     string
	PasswordHash string // argon2id encoded hash
}

// RefreshToken is a persisted refresh token. Tokens are rotated on use
// and revoked by deletion.
type RefreshToken struct {
	ExpiresAt time.Time
	CreatedAt time.Time
	Token     string
	UserID    string
}
