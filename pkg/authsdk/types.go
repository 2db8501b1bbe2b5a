package authsdk

import (
	"context"
	"time"
)

// ErrorResponse is the OAuth2-style error body ({error, error_description}).
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ValidationErrorResponse is the 422 body. Details maps field to message.
type ValidationErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ============================================================================
// Auth
// ============================================================================

// Session is an issued token pair. ExpiresAt is in Unix seconds.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Expiry returns ExpiresAt as a time.
func (s Session) Expiry() time.Time {
	return time.Unix(s.ExpiresAt, 0)
}

// ExpiresWithin reports whether the access token expires in less than d.
func (s Session) ExpiresWithin(now time.Time, d time.Duration) bool {
	return !now.Add(d).Before(s.Expiry())
}

// Identity is the authenticated account as the API reports it.
type Identity struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
}

// TokenResponse is returned by POST /v1/auth/token and POST /v1/auth/confirm.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	User         *Identity `json:"user,omitempty"`
}

// Session converts the response into a Session anchored at now.
func (t *TokenResponse) Session(now time.Time) *Session {
	return &Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(t.ExpiresIn) * time.Second).Unix(),
	}
}

// SignUpInput is the sign-up form. ShopName and ShopPhone are optional:
// when ShopName is set, a shop is created with the user as owner once the
// e-mail is confirmed.
type SignUpInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	CPF       string `json:"cpf"`
	ShopName  string `json:"shop_name,omitempty"`
	ShopPhone string `json:"shop_phone,omitempty"`
}

type SignUpResponse struct {
	ConfirmationRequired bool `json:"confirmation_required"`
}

type ConfirmRequest struct {
	Token string `json:"token"`
}

type RecoverRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type UpdatePasswordRequest struct {
	Password string `json:"password"`
}

// AuthEvent names a change in authentication state.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEvent = "USER_UPDATED"
)

// AuthChange is delivered to listeners. Identity and Session are nil on sign-out.
type AuthChange struct {
	Event    AuthEvent
	Identity *Identity
	Session  *Session
}

// AuthListener receives auth changes. ctx is the context of the call that
// caused the change.
type AuthListener func(ctx context.Context, change AuthChange)

// ============================================================================
// Profile, shop and staff
// ============================================================================

type Profile struct {
	UserID   string `json:"user_id"`
	ShopID   string `json:"shop_id"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	CPF      string `json:"cpf"`
}

// ProfileUpdate changes only the non-nil fields.
type ProfileUpdate struct {
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

type Shop struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	CNPJ    string `json:"cnpj,omitempty"`
	Address string `json:"address,omitempty"`
}

type ShopUpdate struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	CNPJ    *string `json:"cnpj,omitempty"`
	Address *string `json:"address,omitempty"`
}

type StaffMember struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type InviteRequest struct {
	Role string `json:"role"`
}

// Invite is returned once, when minted. Token is not retrievable later.
type Invite struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RedeemInviteRequest struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	CPF      string `json:"cpf"`
}

// ============================================================================
// Tenant resources
// ============================================================================

// List is the envelope for collection responses.
type List[T any] struct {
	Items []T `json:"items"`
}

// Customer is a pet owner registered by a shop, served under /v1/clients.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone"`
	CPF       string    `json:"cpf,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone"`
	CPF   string `json:"cpf,omitempty"`
	Notes string `json:"notes,omitempty"`
}

type Pet struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	Name        string    `json:"name"`
	Species     string    `json:"species"`
	Breed       string    `json:"breed,omitempty"`
	BirthDate   string    `json:"birth_date,omitempty"` // YYYY-MM-DD
	WeightGrams int       `json:"weight_grams,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	HasPhoto    bool      `json:"has_photo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PetInput struct {
	ClientID    string `json:"client_id"`
	Name        string `json:"name"`
	Species     string `json:"species"`
	Breed       string `json:"breed,omitempty"`
	BirthDate   string `json:"birth_date,omitempty"`
	WeightGrams int    `json:"weight_grams,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// PhotoURL is a presigned URL for uploading or downloading a pet photo.
type PhotoURL struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PhotoUploadRequest struct {
	ContentType string `json:"content_type"`
}

type Service struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
	Active          bool   `json:"active"`
}

type ServiceInput struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
	Active          *bool  `json:"active,omitempty"`
}

type Appointment struct {
	ID          string    `json:"id"`
	PetID       string    `json:"pet_id"`
	ServiceID   string    `json:"service_id"`
	StaffID     string    `json:"staff_id,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	PriceCents  int64     `json:"price_cents"`
	Notes       string    `json:"notes,omitempty"`
}

// AppointmentInput books a pet for a service. PriceCents defaults to the
// service price when nil.
type AppointmentInput struct {
	PetID       string    `json:"pet_id"`
	ServiceID   string    `json:"service_id"`
	StaffID     string    `json:"staff_id,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	PriceCents  *int64    `json:"price_cents,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

type StatusUpdate struct {
	Status string `json:"status"`
}

// AppointmentQuery filters the appointment list. Date (YYYY-MM-DD) wins over
// From/To when set.
type AppointmentQuery struct {
	Date string
	From time.Time
	To   time.Time
}

// Dashboard is the shop summary. Next lists the first upcoming
// appointments; UpcomingAppointments counts all of them.
type Dashboard struct {
	Clients              int           `json:"clients"`
	Pets                 int           `json:"pets"`
	AppointmentsToday    int           `json:"appointments_today"`
	UpcomingAppointments int           `json:"upcoming_appointments"`
	RevenueMonthCents    int64         `json:"revenue_month_cents"`
	Next                 []Appointment `json:"next"`
}

// Health is the body of /livez and /readyz. Checks is only set by /readyz.
type Health struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime,omitempty"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}
