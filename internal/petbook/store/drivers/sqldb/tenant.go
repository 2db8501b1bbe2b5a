package sqldb

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
)

// ============================================================================
// Clients
// ============================================================================

type clientsRepo struct{ c conn }

const clientColumns = `id, shop_id, name, email, phone, cpf, notes, created_at, updated_at`

func scanClient(s scanner) (domain.Client, error) {
	var (
		c                domain.Client
		created, updated int64
	)
	if err := s.Scan(&c.ID, &c.ShopID, &c.Name, &c.Email, &c.Phone, &c.CPF, &c.Notes, &created, &updated); err != nil {
		return domain.Client{}, err
	}
	c.CreatedAt = fromUnix(created)
	c.UpdatedAt = fromUnix(updated)
	return c, nil
}

func (r clientsRepo) ListClients(ctx context.Context, shopID, search string) ([]domain.Client, error) {
	q := `SELECT ` + clientColumns + ` FROM clients WHERE shop_id = ?`
	args := []any{shopID}
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q += ` AND (LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?)`
		args = append(args, like, like, like)
	}
	q += ` ORDER BY name, id`

	rows, err := r.c.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanClient)
}

func (r clientsRepo) GetClient(ctx context.Context, shopID, id string) (domain.Client, error) {
	c, err := scanClient(r.c.queryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE shop_id = ? AND id = ?`, shopID, id))
	return c, r.c.mapErr(err)
}

func (r clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	now := unix(time.Now())
	_, err := r.c.exec(ctx,
		`INSERT INTO clients (id, shop_id, name, email, phone, cpf, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ShopID, c.Name, c.Email, c.Phone, c.CPF, c.Notes, now, now,
	)
	return err
}

func (r clientsRepo) UpdateClient(ctx context.Context, c domain.Client) error {
	return r.c.execOne(ctx,
		`UPDATE clients SET name = ?, email = ?, phone = ?, cpf = ?, notes = ?, updated_at = ?
		 WHERE shop_id = ? AND id = ?`,
		c.Name, c.Email, c.Phone, c.CPF, c.Notes, unix(time.Now()), c.ShopID, c.ID,
	)
}

func (r clientsRepo) DeleteClient(ctx context.Context, shopID, id string) error {
	return r.c.execOne(ctx, `DELETE FROM clients WHERE shop_id = ? AND id = ?`, shopID, id)
}

// ============================================================================
// Pets
// ============================================================================

type petsRepo struct{ c conn }

const petColumns = `id, shop_id, client_id, name, species, breed, birth_date, weight_grams, notes, photo_key, created_at, updated_at`

func scanPet(s scanner) (domain.Pet, error) {
	var (
		p                domain.Pet
		birth            sql.NullInt64
		created, updated int64
	)
	err := s.Scan(&p.ID, &p.ShopID, &p.ClientID, &p.Name, &p.Species, &p.Breed,
		&birth, &p.WeightGrams, &p.Notes, &p.PhotoKey, &created, &updated)
	if err != nil {
		return domain.Pet{}, err
	}
	p.BirthDate = fromNullUnix(birth)
	p.CreatedAt = fromUnix(created)
	p.UpdatedAt = fromUnix(updated)
	return p, nil
}

func (r petsRepo) ListPets(ctx context.Context, shopID, clientID string) ([]domain.Pet, error) {
	q := `SELECT ` + petColumns + ` FROM pets WHERE shop_id = ?`
	args := []any{shopID}
	if clientID != "" {
		q += ` AND client_id = ?`
		args = append(args, clientID)
	}
	q += ` ORDER BY name, id`

	rows, err := r.c.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPet)
}

func (r petsRepo) GetPet(ctx context.Context, shopID, id string) (domain.Pet, error) {
	p, err := scanPet(r.c.queryRow(ctx,
		`SELECT `+petColumns+` FROM pets WHERE shop_id = ? AND id = ?`, shopID, id))
	return p, r.c.mapErr(err)
}

func (r petsRepo) CreatePet(ctx context.Context, p domain.Pet) error {
	now := unix(time.Now())
	_, err := r.c.exec(ctx,
		`INSERT INTO pets (id, shop_id, client_id, name, species, breed, birth_date, weight_grams, notes, photo_key, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ShopID, p.ClientID, p.Name, p.Species, p.Breed, nullUnix(p.BirthDate),
		p.WeightGrams, p.Notes, p.PhotoKey, now, now,
	)
	return err
}

func (r petsRepo) UpdatePet(ctx context.Context, p domain.Pet) error {
	return r.c.execOne(ctx,
		`UPDATE pets SET name = ?, species = ?, breed = ?, birth_date = ?, weight_grams = ?, notes = ?, updated_at = ?
		 WHERE shop_id = ? AND id = ?`,
		p.Name, p.Species, p.Breed, nullUnix(p.BirthDate), p.WeightGrams, p.Notes, unix(time.Now()),
		p.ShopID, p.ID,
	)
}

func (r petsRepo) SetPhotoKey(ctx context.Context, shopID, id, key string) error {
	return r.c.execOne(ctx,
		`UPDATE pets SET photo_key = ?, updated_at = ? WHERE shop_id = ? AND id = ?`,
		key, unix(time.Now()), shopID, id,
	)
}

func (r petsRepo) DeletePet(ctx context.Context, shopID, id string) error {
	return r.c.execOne(ctx, `DELETE FROM pets WHERE shop_id = ? AND id = ?`, shopID, id)
}

// ============================================================================
// Services
// ============================================================================

type servicesRepo struct{ c conn }

const serviceColumns = `id, shop_id, name, description, price_cents, duration_minutes, active, created_at, updated_at`

func scanService(s scanner) (domain.Service, error) {
	var (
		sv               domain.Service
		created, updated int64
	)
	err := s.Scan(&sv.ID, &sv.ShopID, &sv.Name, &sv.Description, &sv.PriceCents,
		&sv.DurationMinutes, &sv.Active, &created, &updated)
	if err != nil {
		return domain.Service{}, err
	}
	sv.CreatedAt = fromUnix(created)
	sv.UpdatedAt = fromUnix(updated)
	return sv, nil
}

func (r servicesRepo) ListServices(ctx context.Context, shopID string) ([]domain.Service, error) {
	rows, err := r.c.query(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE shop_id = ? ORDER BY name, id`, shopID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanService)
}

func (r servicesRepo) GetService(ctx context.Context, shopID, id string) (domain.Service, error) {
	sv, err := scanService(r.c.queryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE shop_id = ? AND id = ?`, shopID, id))
	return sv, r.c.mapErr(err)
}

func (r servicesRepo) CreateService(ctx context.Context, s domain.Service) error {
	now := unix(time.Now())
	_, err := r.c.exec(ctx,
		`INSERT INTO services (id, shop_id, name, description, price_cents, duration_minutes, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ShopID, s.Name, s.Description, s.PriceCents, s.DurationMinutes, s.Active, now, now,
	)
	return err
}

func (r servicesRepo) UpdateService(ctx context.Context, s domain.Service) error {
	return r.c.execOne(ctx,
		`UPDATE services SET name = ?, description = ?, price_cents = ?, duration_minutes = ?, active = ?, updated_at = ?
		 WHERE shop_id = ? AND id = ?`,
		s.Name, s.Description, s.PriceCents, s.DurationMinutes, s.Active, unix(time.Now()), s.ShopID, s.ID,
	)
}

func (r servicesRepo) DeleteService(ctx context.Context, shopID, id string) error {
	return r.c.execOne(ctx, `DELETE FROM services WHERE shop_id = ? AND id = ?`, shopID, id)
}
