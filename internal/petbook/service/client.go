package service

import (
	"context"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/idx"
)

// ClientService manages the pet owners of a shop.
type ClientService struct {
	Store store.Store
}

func (s *ClientService) List(ctx context.Context, shopID, search string) ([]domain.Client, error) {
	return s.Store.Clients().ListClients(ctx, shopID, search)
}

func (s *ClientService) Get(ctx context.Context, shopID, id string) (domain.Client, error) {
	return s.Store.Clients().GetClient(ctx, shopID, id)
}

func (s *ClientService) Create(ctx context.Context, shopID string, in authsdk.CustomerInput) (domain.Client, error) {
	if err := in.Validate(); err != nil {
		return domain.Client{}, err
	}
	c := applyCustomer(domain.Client{ID: idx.NewString(), ShopID: shopID}, in.Normalize())
	if err := s.Store.Clients().CreateClient(ctx, c); err != nil {
		return domain.Client{}, err
	}
	return s.Get(ctx, shopID, c.ID)
}

func (s *ClientService) Update(ctx context.Context, shopID, id string, in authsdk.CustomerInput) (domain.Client, error) {
	if err := in.Validate(); err != nil {
		return domain.Client{}, err
	}
	c, err := s.Get(ctx, shopID, id)
	if err != nil {
		return c, err
	}
	if err := s.Store.Clients().UpdateClient(ctx, applyCustomer(c, in.Normalize())); err != nil {
		return domain.Client{}, err
	}
	return s.Get(ctx, shopID, id)
}

// Delete removes the client with their pets and appointments.
func (s *ClientService) Delete(ctx context.Context, shopID, id string) error {
	return s.Store.Clients().DeleteClient(ctx, shopID, id)
}

func applyCustomer(c domain.Client, in authsdk.CustomerInput) domain.Client {
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	c.CPF = in.CPF
	c.Notes = in.Notes
	return c
}
