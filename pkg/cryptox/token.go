package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Token sizes in bytes, before encoding.
const (
	// TokenSize128 is used for key IDs and session IDs.
	TokenSize128 = 16
	// TokenSize256 is used for refresh, confirmation, reset and invite tokens.
	TokenSize256 = 32
)

// GenerateToken returns size random bytes, base64url encoded without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns the SHA-256 of token, base64url encoded.
// Only fingerprints are stored; the plain token goes to the user.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// MintToken generates a 256-bit token and its fingerprint in one go.
func MintToken() (plain, fingerprint string, err error) {
	plain, err = GenerateToken(TokenSize256)
	if err != nil {
		return "", "", err
	}
	return plain, FingerprintToken(plain), nil
}
