package service

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/idx"
)

// CatalogService manages the services a shop offers.
type CatalogService struct {
	Store store.Store
}

func (s *CatalogService) List(ctx context.Context, shopID string) ([]domain.Service, error) {
	return s.Store.Services().ListServices(ctx, shopID)
}

func (s *CatalogService) Get(ctx context.Context, shopID, id string) (domain.Service, error) {
	return s.Store.Services().GetService(ctx, shopID, id)
}

// Create adds a service. New services are active unless in says otherwise.
func (s *CatalogService) Create(ctx context.Context, shopID string, in authsdk.ServiceInput) (domain.Service, error) {
	if err := in.Validate(); err != nil {
		return domain.Service{}, err
	}
	sv := applyService(domain.Service{ID: idx.NewString(), ShopID: shopID, Active: true}, in)
	if err := s.Store.Services().CreateService(ctx, sv); err != nil {
		return domain.Service{}, err
	}
	return s.Get(ctx, shopID, sv.ID)
}

func (s *CatalogService) Update(ctx context.Context, shopID, id string, in authsdk.ServiceInput) (domain.Service, error) {
	if err := in.Validate(); err != nil {
		return domain.Service{}, err
	}
	sv, err := s.Get(ctx, shopID, id)
	if err != nil {
		return sv, err
	}
	if err := s.Store.Services().UpdateService(ctx, applyService(sv, in)); err != nil {
		return domain.Service{}, err
	}
	return s.Get(ctx, shopID, id)
}

// Delete removes a service. Past appointments keep their price but lose
// the reference.
func (s *CatalogService) Delete(ctx context.Context, shopID, id string) error {
	return s.Store.Services().DeleteService(ctx, shopID, id)
}

func applyService(sv domain.Service, in authsdk.ServiceInput) domain.Service {
	sv.Name = strings.TrimSpace(in.Name)
	sv.Description = strings.TrimSpace(in.Description)
	sv.PriceCents = in.PriceCents
	sv.DurationMinutes = in.DurationMinutes
	if in.Active != nil {
		sv.Active = *in.Active
	}
	return sv
}
