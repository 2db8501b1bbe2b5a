package domain

import "time"

type Shop struct {
	ID        string
	Name      string
	Phone     string
	CNPJ      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PendingShop holds sign-up data until the owner confirms their e-mail.
// It is keyed by e-mail.
type PendingShop struct {
	Email     string
	ShopName  string
	ShopPhone string
	FullName  string
	Phone     string
	CPF       string
	CreatedAt time.Time
}

// StaffInvite lets someone join a shop with a fixed role. Single use.
type StaffInvite struct {
	ID        string
	ShopID    string
	Role      string
	TokenHash string
	CreatedBy string
	ExpiresAt time.Time
	UsedBy    string // empty until redeemed
	CreatedAt time.Time
}

func (i StaffInvite) Used() bool { return i.UsedBy != "" }

// StaffMember is a profile joined with its user's e-mail.
type StaffMember struct {
	UserID   string
	Email    string
	FullName string
	Role     string
	Phone    string
}
