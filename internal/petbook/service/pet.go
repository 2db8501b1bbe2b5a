package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/storage"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/idx"
	"github.com/aussiebroadwan/petbook/pkg/validation"
)

const DefaultPhotoURLTTL = 15 * time.Minute

// ErrNoPhoto is returned when a download URL is asked for a pet without a
// photo.
var ErrNoPhoto = errors.New("pet has no photo")

var photoContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// PetService manages pets and their photos. Photos never pass through the
// API: clients upload and download them with presigned URLs.
type PetService struct {
	Store       store.Store
	Photos      storage.Presigner
	PhotoURLTTL time.Duration

	Now func() time.Time
}

func (s *PetService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *PetService) List(ctx context.Context, shopID, clientID string) ([]domain.Pet, error) {
	return s.Store.Pets().ListPets(ctx, shopID, clientID)
}

func (s *PetService) Get(ctx context.Context, shopID, id string) (domain.Pet, error) {
	return s.Store.Pets().GetPet(ctx, shopID, id)
}

func (s *PetService) Create(ctx context.Context, shopID string, in authsdk.PetInput) (domain.Pet, error) {
	if err := s.validate(ctx, shopID, in); err != nil {
		return domain.Pet{}, err
	}
	p := applyPet(domain.Pet{ID: idx.NewString(), ShopID: shopID, ClientID: in.ClientID}, in)
	if err := s.Store.Pets().CreatePet(ctx, p); err != nil {
		return domain.Pet{}, err
	}
	return s.Get(ctx, shopID, p.ID)
}

// Update edits a pet. The owner of a pet cannot be changed.
func (s *PetService) Update(ctx context.Context, shopID, id string, in authsdk.PetInput) (domain.Pet, error) {
	p, err := s.Get(ctx, shopID, id)
	if err != nil {
		return p, err
	}
	if in.ClientID == "" {
		in.ClientID = p.ClientID
	}
	if err := in.Validate(s.now()); err != nil {
		return domain.Pet{}, err
	}
	if in.ClientID != p.ClientID {
		var errs validation.Errors
		errs.Add("client_id", "não é possível trocar o tutor do pet")
		return domain.Pet{}, errs.Err()
	}
	if err := s.Store.Pets().UpdatePet(ctx, applyPet(p, in)); err != nil {
		return domain.Pet{}, err
	}
	return s.Get(ctx, shopID, id)
}

func (s *PetService) Delete(ctx context.Context, shopID, id string) error {
	return s.Store.Pets().DeletePet(ctx, shopID, id)
}

// validate checks the form and that the owner belongs to the shop.
func (s *PetService) validate(ctx context.Context, shopID string, in authsdk.PetInput) error {
	if err := in.Validate(s.now()); err != nil {
		return err
	}
	_, err := s.Store.Clients().GetClient(ctx, shopID, in.ClientID)
	if errors.Is(err, store.ErrNotFound) {
		var errs validation.Errors
		errs.Add("client_id", "cliente não encontrado")
		return errs.Err()
	}
	return err
}

// PhotoUploadURL returns a presigned PUT for the pet's photo and records
// the object key on the pet.
func (s *PetService) PhotoUploadURL(ctx context.Context, shopID, id, contentType string) (authsdk.PhotoURL, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !photoContentTypes[contentType] {
		var errs validation.Errors
		errs.Add("content_type", "use uma imagem JPEG, PNG ou WebP")
		return authsdk.PhotoURL{}, errs.Err()
	}
	if _, err := s.Get(ctx, shopID, id); err != nil {
		return authsdk.PhotoURL{}, err
	}

	key := storage.PetPhotoKey(shopID, id)
	ttl := durationOr(s.PhotoURLTTL, DefaultPhotoURLTTL)
	u, err := s.Photos.PresignPut(ctx, key, contentType, ttl)
	if err != nil {
		return authsdk.PhotoURL{}, err
	}
	if err := s.Store.Pets().SetPhotoKey(ctx, shopID, id, key); err != nil {
		return authsdk.PhotoURL{}, err
	}
	return authsdk.PhotoURL{URL: u, Method: http.MethodPut, ExpiresAt: s.now().Add(ttl)}, nil
}

// PhotoDownloadURL returns a presigned GET for the pet's photo.
func (s *PetService) PhotoDownloadURL(ctx context.Context, shopID, id string) (authsdk.PhotoURL, error) {
	p, err := s.Get(ctx, shopID, id)
	if err != nil {
		return authsdk.PhotoURL{}, err
	}
	if p.PhotoKey == "" {
		return authsdk.PhotoURL{}, ErrNoPhoto
	}

	ttl := durationOr(s.PhotoURLTTL, DefaultPhotoURLTTL)
	u, err := s.Photos.PresignGet(ctx, p.PhotoKey, ttl)
	if err != nil {
		return authsdk.PhotoURL{}, err
	}
	return authsdk.PhotoURL{URL: u, Method: http.MethodGet, ExpiresAt: s.now().Add(ttl)}, nil
}

func applyPet(p domain.Pet, in authsdk.PetInput) domain.Pet {
	p.Name = strings.TrimSpace(in.Name)
	p.Species = strings.TrimSpace(in.Species)
	p.Breed = strings.TrimSpace(in.Breed)
	p.WeightGrams = in.WeightGrams
	p.Notes = strings.TrimSpace(in.Notes)
	p.BirthDate = nil
	if d, err := time.Parse(authsdk.BirthDateLayout, in.BirthDate); err == nil {
		p.BirthDate = &d
	}
	return p
}
