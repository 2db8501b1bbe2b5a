package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface, implemented by the sqlite and
// postgres drivers. Repositories are reached through methods so that a Tx
// hands out repositories bound to the transaction.
type Store interface {
	Users() Users
	Profiles() Profiles
	Shops() Shops
	PendingShops() PendingShops
	EmailTokens() EmailTokens
	RefreshTokens() RefreshTokens
	StaffInvites() StaffInvites
	SigningKeys() SigningKeys

	Clients() Clients
	Pets() Pets
	Services() Services
	Appointments() Appointments
	Dashboard() Dashboard

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when it returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a Store bound to one transaction.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	// GetUserByEmail expects a normalised (lower-case) address.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	// CreateUser fails with ErrAlreadyExists when the e-mail is taken.
	CreateUser(ctx context.Context, u domain.User) error
	ConfirmEmail(ctx context.Context, userID string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}

type Profiles interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	CreateProfile(ctx context.Context, p domain.Profile) error
	// UpdateProfile writes full name and phone.
	UpdateProfile(ctx context.Context, p domain.Profile) error
	ListStaff(ctx context.Context, shopID string) ([]domain.StaffMember, error)
}

type Shops interface {
	GetShop(ctx context.Context, id string) (domain.Shop, error)
	CreateShop(ctx context.Context, s domain.Shop) error
	UpdateShop(ctx context.Context, s domain.Shop) error
}

type PendingShops interface {
	// UpsertPendingShop replaces any pending data for the same e-mail.
	UpsertPendingShop(ctx context.Context, p domain.PendingShop) error
	GetPendingShop(ctx context.Context, email string) (domain.PendingShop, error)
	DeletePendingShop(ctx context.Context, email string) error
	DeletePendingShopsBefore(ctx context.Context, before time.Time) (int64, error)
}

type EmailTokens interface {
	CreateEmailToken(ctx context.Context, t domain.EmailToken) error
	GetEmailTokenByHash(ctx context.Context, hash string) (domain.EmailToken, error)
	// MarkEmailTokenUsed returns ErrNotFound if the token was already used.
	MarkEmailTokenUsed(ctx context.Context, id string, at time.Time) error
	// MarkUserEmailTokensUsed spends every unused token of userID for purpose.
	MarkUserEmailTokensUsed(ctx context.Context, userID string, purpose domain.EmailPurpose, at time.Time) (int64, error)
	DeleteExpiredEmailTokens(ctx context.Context, now time.Time) (int64, error)
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)
	// RevokeRefreshToken returns ErrNotFound unless the token was live.
	RevokeRefreshToken(ctx context.Context, hash string) error
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type StaffInvites interface {
	CreateInvite(ctx context.Context, inv domain.StaffInvite) error
	GetInviteByTokenHash(ctx context.Context, hash string) (domain.StaffInvite, error)
	// MarkInviteUsed returns ErrNotFound if the invite was already used.
	MarkInviteUsed(ctx context.Context, id, userID string) error
	DeleteExpiredInvites(ctx context.Context, now time.Time) (int64, error)
}

type SigningKeys interface {
	CreateSigningKey(ctx context.Context, k domain.SigningKey) error
	// ListSigningKeys returns every key, oldest first.
	ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error)
	RetireSigningKey(ctx context.Context, kid string, at time.Time) error
}

// Tenant repositories. Every method is scoped by shopID; a row belonging to
// another shop is ErrNotFound.

type Clients interface {
	// ListClients filters by a case-insensitive substring of the name,
	// e-mail or phone when search is not empty.
	ListClients(ctx context.Context, shopID, search string) ([]domain.Client, error)
	GetClient(ctx context.Context, shopID, id string) (domain.Client, error)
	CreateClient(ctx context.Context, c domain.Client) error
	UpdateClient(ctx context.Context, c domain.Client) error
	DeleteClient(ctx context.Context, shopID, id string) error
}

type Pets interface {
	// ListPets returns every pet of the shop, or of one client when
	// clientID is set.
	ListPets(ctx context.Context, shopID, clientID string) ([]domain.Pet, error)
	GetPet(ctx context.Context, shopID, id string) (domain.Pet, error)
	CreatePet(ctx context.Context, p domain.Pet) error
	UpdatePet(ctx context.Context, p domain.Pet) error
	SetPhotoKey(ctx context.Context, shopID, id, key string) error
	DeletePet(ctx context.Context, shopID, id string) error
}

type Services interface {
	ListServices(ctx context.Context, shopID string) ([]domain.Service, error)
	GetService(ctx context.Context, shopID, id string) (domain.Service, error)
	CreateService(ctx context.Context, s domain.Service) error
	UpdateService(ctx context.Context, s domain.Service) error
	DeleteService(ctx context.Context, shopID, id string) error
}

type Appointments interface {
	// ListAppointments returns appointments scheduled in [from, to),
	// ordered by time.
	ListAppointments(ctx context.Context, shopID string, from, to time.Time) ([]domain.Appointment, error)
	GetAppointment(ctx context.Context, shopID, id string) (domain.Appointment, error)
	CreateAppointment(ctx context.Context, a domain.Appointment) error
	UpdateAppointmentStatus(ctx context.Context, shopID, id string, status domain.AppointmentStatus, at time.Time) error
}

// DashboardWindow bounds the periods summarised by the dashboard.
type DashboardWindow struct {
	Now        time.Time
	DayStart   time.Time
	DayEnd     time.Time
	MonthStart time.Time
	MonthEnd   time.Time
}

type Dashboard interface {
	Summary(ctx context.Context, shopID string, w DashboardWindow) (domain.DashboardSummary, error)
}
