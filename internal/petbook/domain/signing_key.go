package domain

import "time"

// SigningKey is a JWT signing key persisted in the database. The private
// key is sealed with the master key.
type SigningKey struct {
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           *time.Time // nil while the key may sign
}
