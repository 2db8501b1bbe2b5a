package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/rbac"
)

// ErrProfileNotFound is returned by a ProfileSource when the user has no
// profile row yet.
var ErrProfileNotFound = errors.New("session: profile not found")

// ProfileSource loads the profile row for a user.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (authsdk.Profile, error)
}

// EnrichmentError means the profile lookup failed for a reason other than
// the row being absent. Authorization must fail closed on it.
type EnrichmentError struct {
	UserID string
	Err    error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("session: enrich user %s: %v", e.UserID, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// IsEnrichmentError reports whether err is or wraps an *EnrichmentError.
func IsEnrichmentError(err error) bool {
	var e *EnrichmentError
	return errors.As(err, &e)
}

// Enricher turns an Identity into a User by looking up its profile.
type Enricher struct {
	source ProfileSource
}

func NewEnricher(source ProfileSource) *Enricher {
	return &Enricher{source: source}
}

// Enrich always returns a user carrying id's ID and e-mail.
//
//   - profile found: its role, shop and rbac.Permissions(role)
//   - profile absent, or its role unknown: rbac.DefaultRole with no permissions
//   - lookup failed: empty role, nil permissions and an *EnrichmentError
func (e *Enricher) Enrich(ctx context.Context, id Identity) (*User, error) {
	u := &User{ID: id.ID, Email: id.Email}

	if e == nil || e.source == nil {
		return u, &EnrichmentError{UserID: id.ID, Err: errors.New("no profile source configured")}
	}

	p, err := e.source.GetProfile(ctx, id.ID)
	switch {
	case errors.Is(err, ErrProfileNotFound), errors.Is(err, authsdk.ErrNotFound):
		u.Role = rbac.DefaultRole
		u.Permissions = []rbac.Permission{}
		return u, nil
	case err != nil:
		return u, &EnrichmentError{UserID: id.ID, Err: err}
	}

	u.FullName = p.FullName
	u.ShopID = p.ShopID

	role, err := rbac.ParseRole(p.Role)
	if err != nil {
		u.Role = rbac.DefaultRole
		u.Permissions = []rbac.Permission{}
		return u, nil
	}
	u.Role = role
	u.Permissions = rbac.Permissions(role)
	return u, nil
}
