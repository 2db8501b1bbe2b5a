package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/pkg/cryptox"
	"github.com/aussiebroadwan/petbook/pkg/idx"
	"github.com/aussiebroadwan/petbook/pkg/jwtx"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenService issues EdDSA access tokens and opaque refresh tokens. The
// access token carries identity only; roles are looked up per request.
type TokenService struct {
	KeyManager *jwtx.KeyManager
	Store      store.Store
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return DefaultAccessTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return DefaultRefreshTTL
}

// Issue signs an access token for u and stores a new refresh token through
// st, which may be a transaction. An empty sessionID starts a new session.
func (s *TokenService) Issue(ctx context.Context, st store.Store, u domain.User, sessionID string) (*domain.TokenPair, error) {
	now := time.Now()
	if sessionID == "" {
		sessionID = idx.NewString()
	}

	access, err := s.signAccess(u, sessionID, now)
	if err != nil {
		return nil, err
	}

	plain, fp, err := cryptox.MintToken()
	if err != nil {
		return nil, err
	}
	err = st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.NewString(),
		UserID:    u.ID,
		TokenHash: fp,
		SessionID: sessionID,
		ExpiresAt: now.Add(s.refreshTTL()),
	})
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: plain,
		ExpiresIn:    s.accessTTL(),
		User:         u,
	}, nil
}

// Refresh rotates refreshOpaque: the presented token is revoked and a new
// pair for the same session is returned.
func (s *TokenService) Refresh(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	if refreshOpaque == "" {
		return nil, ErrInvalidRefresh
	}
	now := time.Now()
	fp := cryptox.FingerprintToken(refreshOpaque)

	var pair *domain.TokenPair
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		rt, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if rt.Revoked || now.After(rt.ExpiresAt) {
			return ErrInvalidRefresh
		}

		u, err := tx.Users().GetUserByID(ctx, rt.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		pair, err = s.Issue(ctx, tx, u, rt.SessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Revoke revokes one refresh token. Unknown tokens are not an error.
func (s *TokenService) Revoke(ctx context.Context, refreshOpaque string) error {
	err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(refreshOpaque))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func (s *TokenService) signAccess(u domain.User, sessionID string, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(
		u.ID,       // subject
		sessionID,  // session ID
		u.Email,    // email
		s.Issuer,   // issuer
		s.Audience, // audience
		s.accessTTL(),
		now,
	)
	return s.KeyManager.Sign(claims)
}
