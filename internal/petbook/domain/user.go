package domain

import "time"

// User is an account that can sign in. Shop membership lives in Profile.
type User struct {
	ID               string
	Email            string
	PasswordHash     string // argon2 encoded
	EmailConfirmedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (u User) Confirmed() bool { return u.EmailConfirmedAt != nil }

// Profile ties a user to a shop with a role. A user without a profile is
// treated as an attendant with no permissions.
type Profile struct {
	UserID    string
	ShopID    string
	Role      string
	FullName  string
	Phone     string
	CPF       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
