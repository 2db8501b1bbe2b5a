package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/events"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/internal/petbook/telemetry"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/cryptox"
	"github.com/aussiebroadwan/petbook/pkg/idx"
	"github.com/aussiebroadwan/petbook/pkg/ratelimit"
	"github.com/aussiebroadwan/petbook/pkg/rbac"
	"github.com/aussiebroadwan/petbook/pkg/slogx"
	"github.com/aussiebroadwan/petbook/pkg/validation"
)

const (
	DefaultConfirmTTL = 24 * time.Hour
	DefaultResetTTL   = time.Hour
)

// IdentityService handles accounts: sign-up with e-mail confirmation,
// password sign-in, token refresh and password recovery.
//
// Sign-in and recovery are throttled per e-mail by Limiter. A denied call
// returns a *ratelimit.LimitedError.
type IdentityService struct {
	Store   store.Store
	Tokens  *TokenService
	Events  events.Publisher
	Limiter *ratelimit.Limiter
	Metrics *telemetry.Metrics

	// PublicURL is the base of the links sent by e-mail.
	PublicURL  string
	ConfirmTTL time.Duration
	ResetTTL   time.Duration

	Now func() time.Time
}

func (s *IdentityService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SignUp registers an unconfirmed account and sends the confirmation link.
// Signing up again with an unconfirmed e-mail replaces the password and
// the pending shop, spends the links sent before and sends a new one.
func (s *IdentityService) SignUp(ctx context.Context, in authsdk.SignUpInput) (err error) {
	defer func() { s.Metrics.AuthEvent("signup", err) }()

	if err := in.Validate(); err != nil {
		return err
	}
	in = in.Normalize()

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return err
	}
	plain, fp, err := cryptox.MintToken()
	if err != nil {
		return err
	}

	now := s.now()
	expires := now.Add(durationOr(s.ConfirmTTL, DefaultConfirmTTL))

	var userID string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByEmail(ctx, in.Email)
		switch {
		case err == nil:
			if u.Confirmed() {
				return ErrEmailTaken
			}
			if err := tx.Users().UpdatePasswordHash(ctx, u.ID, hash); err != nil {
				return err
			}
			if _, err := tx.EmailTokens().MarkUserEmailTokensUsed(ctx, u.ID, domain.PurposeConfirm, now); err != nil {
				return err
			}
			if err := tx.PendingShops().DeletePendingShop(ctx, in.Email); err != nil {
				return err
			}
		case errors.Is(err, store.ErrNotFound):
			u = domain.User{ID: idx.NewString(), Email: in.Email, PasswordHash: hash}
			if err := tx.Users().CreateUser(ctx, u); err != nil {
				if errors.Is(err, store.ErrAlreadyExists) {
					return ErrEmailTaken
				}
				return err
			}
		default:
			return err
		}
		userID = u.ID

		if in.ShopName != "" {
			err := tx.PendingShops().UpsertPendingShop(ctx, domain.PendingShop{
				Email:     in.Email,
				ShopName:  in.ShopName,
				ShopPhone: in.ShopPhone,
				FullName:  in.FullName,
				Phone:     in.Phone,
				CPF:       in.CPF,
				CreatedAt: now,
			})
			if err != nil {
				return err
			}
		}

		return tx.EmailTokens().CreateEmailToken(ctx, domain.EmailToken{
			ID:        idx.NewString(),
			UserID:    u.ID,
			Purpose:   domain.PurposeConfirm,
			TokenHash: fp,
			ExpiresAt: expires,
		})
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("user signed up", "user_id", userID, "with_shop", in.ShopName != "")
	return s.publish(ctx, events.SubjectMailConfirm, events.MailLink{
		To:        in.Email,
		Name:      in.FullName,
		Link:      s.link("/auth/confirm", plain),
		ExpiresAt: expires,
	})
}

// ConfirmEmail redeems a confirmation token and signs the user in. A shop
// registered at sign-up is created now, with the user as its owner.
func (s *IdentityService) ConfirmEmail(ctx context.Context, token string) (pair *domain.TokenPair, err error) {
	defer func() { s.Metrics.AuthEvent("confirm", err) }()

	now := s.now()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		et, err := redeemEmailToken(ctx, tx, token, domain.PurposeConfirm, now)
		if err != nil {
			return err
		}

		u, err := tx.Users().GetUserByID(ctx, et.UserID)
		if err != nil {
			return err
		}
		if !u.Confirmed() {
			if err := tx.Users().ConfirmEmail(ctx, u.ID, now); err != nil {
				return err
			}
			u.EmailConfirmedAt = &now
		}

		if err := createPendingShop(ctx, tx, u, now); err != nil {
			return err
		}

		pair, err = s.Tokens.Issue(ctx, tx, u, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("email confirmed", "user_id", pair.User.ID)
	return pair, nil
}

// createPendingShop turns the pending sign-up data of u into a shop and an
// owner profile. Nothing happens without pending data or when u already
// belongs to a shop.
func createPendingShop(ctx context.Context, tx store.Tx, u domain.User, now time.Time) error {
	pending, err := tx.PendingShops().GetPendingShop(ctx, u.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := tx.Profiles().GetProfile(ctx, u.ID); err == nil {
		return tx.PendingShops().DeletePendingShop(ctx, u.Email)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	shop := domain.Shop{
		ID:        idx.NewString(),
		Name:      pending.ShopName,
		Phone:     pending.ShopPhone,
		CreatedAt: now,
	}
	if err := tx.Shops().CreateShop(ctx, shop); err != nil {
		return err
	}
	err = tx.Profiles().CreateProfile(ctx, domain.Profile{
		UserID:    u.ID,
		ShopID:    shop.ID,
		Role:      rbac.RoleOwner.String(),
		FullName:  pending.FullName,
		Phone:     pending.Phone,
		CPF:       pending.CPF,
		CreatedAt: now,
	})
	if err != nil {
		return err
	}
	return tx.PendingShops().DeletePendingShop(ctx, u.Email)
}

// redeemEmailToken looks up token, checks purpose and expiry and marks it
// used. Every failure is ErrInvalidLink.
func redeemEmailToken(ctx context.Context, tx store.Tx, token string, purpose domain.EmailPurpose, now time.Time) (domain.EmailToken, error) {
	if token == "" {
		return domain.EmailToken{}, ErrInvalidLink
	}
	et, err := tx.EmailTokens().GetEmailTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return et, ErrInvalidLink
		}
		return et, err
	}
	if et.Purpose != purpose || !et.Redeemable(now) {
		return et, ErrInvalidLink
	}
	if err := tx.EmailTokens().MarkEmailTokenUsed(ctx, et.ID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return et, ErrInvalidLink
		}
		return et, err
	}
	return et, nil
}

// SignIn checks e-mail and password. Failed attempts count towards the
// sign-in limit of that e-mail; a success clears it.
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (pair *domain.TokenPair, err error) {
	defer func() { s.Metrics.AuthEvent("signin", err) }()

	email = validation.NormalizeEmail(email)
	key := "signin:" + email
	if err := s.Limiter.Check(key); err != nil {
		s.Metrics.RateLimited("signin")
		slogx.FromContext(ctx).Warn("sign-in rate limited", "email", email)
		return nil, err
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Limiter.RecordAttempt(key)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			s.Limiter.RecordAttempt(key)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.Confirmed() {
		return nil, ErrEmailNotConfirmed
	}

	s.Limiter.Reset(key)
	return s.Tokens.Issue(ctx, s.Store, u, "")
}

func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (pair *domain.TokenPair, err error) {
	defer func() { s.Metrics.AuthEvent("refresh", err) }()
	return s.Tokens.Refresh(ctx, refreshToken)
}

func (s *IdentityService) SignOut(ctx context.Context, refreshToken string) (err error) {
	defer func() { s.Metrics.AuthEvent("signout", err) }()
	return s.Tokens.Revoke(ctx, refreshToken)
}

// RequestPasswordReset sends a reset link when email belongs to an
// account. Unknown e-mails succeed silently.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) (err error) {
	defer func() { s.Metrics.AuthEvent("recover", err) }()

	email = validation.NormalizeEmail(email)
	if err := validation.Email(email); err != nil {
		var errs validation.Errors
		errs.Check("email", err)
		return errs.Err()
	}

	key := "reset:" + email
	if err := s.Limiter.Check(key); err != nil {
		s.Metrics.RateLimited("reset")
		return err
	}
	s.Limiter.RecordAttempt(key)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Debug("password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	plain, fp, err := cryptox.MintToken()
	if err != nil {
		return err
	}
	expires := s.now().Add(durationOr(s.ResetTTL, DefaultResetTTL))
	err = s.Store.EmailTokens().CreateEmailToken(ctx, domain.EmailToken{
		ID:        idx.NewString(),
		UserID:    u.ID,
		Purpose:   domain.PurposeReset,
		TokenHash: fp,
		ExpiresAt: expires,
	})
	if err != nil {
		return err
	}

	return s.publish(ctx, events.SubjectMailReset, events.MailLink{
		To:        u.Email,
		Link:      s.link("/auth/update-password", plain),
		ExpiresAt: expires,
	})
}

// ResetPassword redeems a reset token. Every session of the user is
// signed out. The e-mail counts as confirmed, since the link reached it.
func (s *IdentityService) ResetPassword(ctx context.Context, token, password string) (err error) {
	defer func() { s.Metrics.AuthEvent("reset", err) }()

	hash, err := hashNewPassword(password)
	if err != nil {
		return err
	}

	now := s.now()
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		et, err := redeemEmailToken(ctx, tx, token, domain.PurposeReset, now)
		if err != nil {
			return err
		}
		u, err := tx.Users().GetUserByID(ctx, et.UserID)
		if err != nil {
			return err
		}
		if err := tx.Users().UpdatePasswordHash(ctx, u.ID, hash); err != nil {
			return err
		}
		if !u.Confirmed() {
			if err := tx.Users().ConfirmEmail(ctx, u.ID, now); err != nil {
				return err
			}
		}
		return tx.RefreshTokens().RevokeAllUserRefreshTokens(ctx, u.ID)
	})
}

// UpdatePassword sets a new password for a signed-in user.
func (s *IdentityService) UpdatePassword(ctx context.Context, userID, password string) (err error) {
	defer func() { s.Metrics.AuthEvent("update_password", err) }()

	hash, err := hashNewPassword(password)
	if err != nil {
		return err
	}
	return s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
}

func (s *IdentityService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

func hashNewPassword(password string) (string, error) {
	if err := validation.Password(password); err != nil {
		var errs validation.Errors
		errs.Check("password", err)
		return "", errs.Err()
	}
	return cryptox.HashPassword(password)
}

func (s *IdentityService) link(path, token string) string {
	return s.PublicURL + path + "?token=" + url.QueryEscape(token)
}

func (s *IdentityService) publish(ctx context.Context, subject string, msg events.MailLink) error {
	if s.Events == nil {
		return nil
	}
	if err := s.Events.Publish(ctx, subject, msg); err != nil {
		slogx.FromContext(ctx).Error("failed to publish mail", "subject", subject, "error", err)
		return err
	}
	return nil
}

func durationOr(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
