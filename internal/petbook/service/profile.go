package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/session"
	"github.com/aussiebroadwan/petbook/pkg/validation"
)

// ProfileService reads and edits the caller's own profile. It is also the
// server-side session.ProfileSource used to enrich requests.
type ProfileService struct {
	Store store.Store
}

var _ session.ProfileSource = (*ProfileService)(nil)

func (s *ProfileService) Get(ctx context.Context, userID string) (domain.Profile, error) {
	return s.Store.Profiles().GetProfile(ctx, userID)
}

// Update changes the full name and phone. Role, shop and CPF are not
// editable here.
func (s *ProfileService) Update(ctx context.Context, userID string, in authsdk.ProfileUpdate) (domain.Profile, error) {
	if err := in.Validate(); err != nil {
		return domain.Profile{}, err
	}

	p, err := s.Store.Profiles().GetProfile(ctx, userID)
	if err != nil {
		return p, err
	}
	if in.FullName != nil {
		p.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		p.Phone = validation.NormalizePhone(*in.Phone)
	}
	p.UpdatedAt = time.Now()

	if err := s.Store.Profiles().UpdateProfile(ctx, p); err != nil {
		return p, err
	}
	return p, nil
}

// GetProfile implements session.ProfileSource.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (authsdk.Profile, error) {
	p, err := s.Store.Profiles().GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return authsdk.Profile{}, session.ErrProfileNotFound
		}
		return authsdk.Profile{}, err
	}
	return ProfileResponse(p), nil
}
