package domain

import "time"

// TokenPair is what sign-in, confirmation and refresh return.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	User         User
}

// RefreshToken is the stored record of an opaque refresh token.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // base64url SHA-256 fingerprint
	SessionID string // stable across rotations
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmailPurpose says what an EmailToken may be redeemed for.
type EmailPurpose string

const (
	PurposeConfirm EmailPurpose = "confirm"
	PurposeReset   EmailPurpose = "reset"
)

// EmailToken is a single-use link token sent by e-mail.
type EmailToken struct {
	ID        string
	UserID    string
	Purpose   EmailPurpose
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Redeemable reports whether the token is unused and unexpired at now.
func (t EmailToken) Redeemable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
