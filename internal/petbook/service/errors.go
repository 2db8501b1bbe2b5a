// Package service holds PetBook's business logic: identity, shop and staff
// management, and the tenant-scoped records of a shop. Services are plain
// structs wired by the app package; every one is safe for concurrent use.
package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailNotConfirmed  = errors.New("email_not_confirmed")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")

	// ErrInvalidLink covers unknown, expired, used and wrong-purpose
	// confirmation, reset and invite tokens alike.
	ErrInvalidLink = errors.New("invalid_link")

	ErrForbidden         = errors.New("forbidden")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidTransition = errors.New("invalid status transition")
)
