package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/cryptox"
	"github.com/aussiebroadwan/petbook/pkg/idx"
	"github.com/aussiebroadwan/petbook/pkg/rbac"
	"github.com/aussiebroadwan/petbook/pkg/session"
	"github.com/aussiebroadwan/petbook/pkg/slogx"
	"github.com/aussiebroadwan/petbook/pkg/validation"
)

const DefaultInviteTTL = 72 * time.Hour

// ShopService manages the caller's shop and its staff. Permission checks
// on the routes happen in the HTTP layer; MintInvite additionally checks
// which roles the actor may hand out.
type ShopService struct {
	Store     store.Store
	InviteTTL time.Duration
}

func (s *ShopService) Get(ctx context.Context, shopID string) (domain.Shop, error) {
	return s.Store.Shops().GetShop(ctx, shopID)
}

func (s *ShopService) Update(ctx context.Context, shopID string, in authsdk.ShopUpdate) (domain.Shop, error) {
	if err := in.Validate(); err != nil {
		return domain.Shop{}, err
	}

	shop, err := s.Store.Shops().GetShop(ctx, shopID)
	if err != nil {
		return shop, err
	}
	if in.Name != nil {
		shop.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		shop.Phone = validation.NormalizePhone(*in.Phone)
	}
	if in.CNPJ != nil {
		shop.CNPJ = validation.NormalizeCNPJ(*in.CNPJ)
	}
	if in.Address != nil {
		shop.Address = strings.TrimSpace(*in.Address)
	}
	shop.UpdatedAt = time.Now()

	if err := s.Store.Shops().UpdateShop(ctx, shop); err != nil {
		return shop, err
	}
	return shop, nil
}

func (s *ShopService) ListStaff(ctx context.Context, shopID string) ([]domain.StaffMember, error) {
	return s.Store.Profiles().ListStaff(ctx, shopID)
}

// MintInvite creates a single-use invite to actor's shop. Only the hash of
// the token is stored; the returned Invite is the one chance to read it.
func (s *ShopService) MintInvite(ctx context.Context, actor *session.User, role string) (authsdk.Invite, error) {
	if actor == nil || actor.ShopID == "" {
		return authsdk.Invite{}, ErrForbidden
	}
	target, err := rbac.ParseRole(role)
	if err != nil {
		var errs validation.Errors
		errs.Add("role", "função inválida")
		return authsdk.Invite{}, errs.Err()
	}
	if !rbac.CanAssign(actor.Role, target) {
		return authsdk.Invite{}, ErrForbidden
	}

	plain, fp, err := cryptox.MintToken()
	if err != nil {
		return authsdk.Invite{}, err
	}
	now := time.Now()
	inv := domain.StaffInvite{
		ID:        idx.NewString(),
		ShopID:    actor.ShopID,
		Role:      target.String(),
		TokenHash: fp,
		CreatedBy: actor.ID,
		ExpiresAt: now.Add(durationOr(s.InviteTTL, DefaultInviteTTL)),
		CreatedAt: now,
	}
	if err := s.Store.StaffInvites().CreateInvite(ctx, inv); err != nil {
		return authsdk.Invite{}, err
	}

	slogx.FromContext(ctx).Info("staff invite created", "shop_id", inv.ShopID, "role", inv.Role, "by", actor.ID)
	return authsdk.Invite{Token: plain, Role: inv.Role, ExpiresAt: inv.ExpiresAt}, nil
}

// RedeemInvite creates a confirmed account that joins the inviting shop
// with the invite's role.
func (s *ShopService) RedeemInvite(ctx context.Context, in authsdk.RedeemInviteRequest) (domain.User, error) {
	if err := in.Validate(); err != nil {
		return domain.User{}, err
	}
	in = in.Normalize()

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now()
	var u domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		inv, err := tx.StaffInvites().GetInviteByTokenHash(ctx, cryptox.FingerprintToken(in.Token))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidLink
			}
			return err
		}
		if inv.Used() || !now.Before(inv.ExpiresAt) {
			return ErrInvalidLink
		}

		u = domain.User{
			ID:               idx.NewString(),
			Email:            in.Email,
			PasswordHash:     hash,
			EmailConfirmedAt: &now,
			CreatedAt:        now,
		}
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		err = tx.Profiles().CreateProfile(ctx, domain.Profile{
			UserID:    u.ID,
			ShopID:    inv.ShopID,
			Role:      inv.Role,
			FullName:  in.FullName,
			Phone:     in.Phone,
			CPF:       in.CPF,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}

		if err := tx.StaffInvites().MarkInviteUsed(ctx, inv.ID, u.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidLink
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("staff invite redeemed", "user_id", u.ID)
	return u, nil
}
