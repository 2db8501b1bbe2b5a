// Package session holds the authentication state of one signed-in user:
// the current token pair, the user enriched with role and permissions, and
// whether an auth action is in flight.
//
// A Holder drives a Provider (normally *authsdk.Client) and keeps its State
// consistent with the provider's auth events. Observers subscribe to State
// changes; the Route Guard reads State to decide what to render.
package session

import (
	"slices"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/rbac"
)

// Session is the issued token pair. ExpiresAt is in Unix seconds.
type Session = authsdk.Session

// Identity is the authenticated account before enrichment.
type Identity = authsdk.Identity

// User is an identity enriched with its shop role and permissions.
type User struct {
	ID          string
	Email       string
	FullName    string
	Role        rbac.Role
	ShopID      string
	Permissions []rbac.Permission
}

// Can reports whether the user holds at least one of perms.
func (u *User) Can(perms ...rbac.Permission) bool {
	if u == nil {
		return false
	}
	return rbac.HasAny(u.Permissions, perms...)
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Permissions = slices.Clone(u.Permissions)
	return &c
}

// State is an immutable snapshot. Err is the outcome of the most recent
// action, or an *EnrichmentError when the user's role could not be loaded.
type State struct {
	User    *User
	Session *Session
	Loading bool
	Err     error
}

// Authenticated reports whether both a user and a session are present.
func (s State) Authenticated() bool {
	return s.User != nil && s.Session != nil
}

// Result is what every Holder action returns. For SignUp, a nil User with a
// nil Err means the confirmation e-mail was sent.
type Result struct {
	User *User
	Err  error
}

// OK reports whether the action succeeded.
func (r Result) OK() bool { return r.Err == nil }
