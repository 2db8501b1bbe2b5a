package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
)

// ============================================================================
// Users
// ============================================================================

type usersRepo struct{ c conn }

const userColumns = `id, email, password_hash, email_confirmed_at, created_at, updated_at`

func scanUser(s scanner) (domain.User, error) {
	var (
		u                domain.User
		confirmed        sql.NullInt64
		created, updated int64
	)
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &confirmed, &created, &updated); err != nil {
		return domain.User{}, err
	}
	u.EmailConfirmedAt = fromNullUnix(confirmed)
	u.CreatedAt = fromUnix(created)
	u.UpdatedAt = fromUnix(updated)
	return u, nil
}

func (r usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.c.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	return u, r.c.mapErr(err)
}

func (r usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.c.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	return u, r.c.mapErr(err)
}

func (r usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now()
	_, err := r.c.exec(ctx,
		`INSERT INTO users (id, email, password_hash, email_confirmed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, nullUnix(u.EmailConfirmedAt), unix(now), unix(now),
	)
	return err
}

func (r usersRepo) ConfirmEmail(ctx context.Context, userID string, at time.Time) error {
	return r.c.execOne(ctx,
		`UPDATE users SET email_confirmed_at = ?, updated_at = ? WHERE id = ?`,
		unix(at), unix(at), userID,
	)
}

func (r usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	return r.c.execOne(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, unix(time.Now()), userID,
	)
}

// ============================================================================
// Profiles
// ============================================================================

type profilesRepo struct{ c conn }

func (r profilesRepo) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var (
		p                domain.Profile
		created, updated int64
	)
	err := r.c.queryRow(ctx,
		`SELECT user_id, shop_id, role, full_name, phone, cpf, created_at, updated_at
		 FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.ShopID, &p.Role, &p.FullName, &p.Phone, &p.CPF, &created, &updated)
	if err != nil {
		return domain.Profile{}, r.c.mapErr(err)
	}
	p.CreatedAt = fromUnix(created)
	p.UpdatedAt = fromUnix(updated)
	return p, nil
}

func (r profilesRepo) CreateProfile(ctx context.Context, p domain.Profile) error {
	now := unix(time.Now())
	_, err := r.c.exec(ctx,
		`INSERT INTO profiles (user_id, shop_id, role, full_name, phone, cpf, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.ShopID, p.Role, p.FullName, p.Phone, p.CPF, now, now,
	)
	return err
}

func (r profilesRepo) UpdateProfile(ctx context.Context, p domain.Profile) error {
	return r.c.execOne(ctx,
		`UPDATE profiles SET full_name = ?, phone = ?, updated_at = ? WHERE user_id = ?`,
		p.FullName, p.Phone, unix(time.Now()), p.UserID,
	)
}

func (r profilesRepo) ListStaff(ctx context.Context, shopID string) ([]domain.StaffMember, error) {
	rows, err := r.c.query(ctx,
		`SELECT p.user_id, u.email, p.full_name, p.role, p.phone
		 FROM profiles p JOIN users u ON u.id = p.user_id
		 WHERE p.shop_id = ?
		 ORDER BY p.full_name, u.email`, shopID,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(s scanner) (domain.StaffMember, error) {
		var m domain.StaffMember
		err := s.Scan(&m.UserID, &m.Email, &m.FullName, &m.Role, &m.Phone)
		return m, err
	})
}

// ============================================================================
// Shops
// ============================================================================

type shopsRepo struct{ c conn }

func (r shopsRepo) GetShop(ctx context.Context, id string) (domain.Shop, error) {
	var (
		s                domain.Shop
		created, updated int64
	)
	err := r.c.queryRow(ctx,
		`SELECT id, name, phone, cnpj, address, created_at, updated_at FROM shops WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Phone, &s.CNPJ, &s.Address, &created, &updated)
	if err != nil {
		return domain.Shop{}, r.c.mapErr(err)
	}
	s.CreatedAt = fromUnix(created)
	s.UpdatedAt = fromUnix(updated)
	return s, nil
}

func (r shopsRepo) CreateShop(ctx context.Context, s domain.Shop) error {
	now := unix(time.Now())
	_, err := r.c.exec(ctx,
		`INSERT INTO shops (id, name, phone, cnpj, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Phone, s.CNPJ, s.Address, now, now,
	)
	return err
}

func (r shopsRepo) UpdateShop(ctx context.Context, s domain.Shop) error {
	return r.c.execOne(ctx,
		`UPDATE shops SET name = ?, phone = ?, cnpj = ?, address = ?, updated_at = ? WHERE id = ?`,
		s.Name, s.Phone, s.CNPJ, s.Address, unix(time.Now()), s.ID,
	)
}

// ============================================================================
// Pending shops
// ============================================================================

type pendingShopsRepo struct{ c conn }

func (r pendingShopsRepo) UpsertPendingShop(ctx context.Context, p domain.PendingShop) error {
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.c.exec(ctx,
		`INSERT INTO pending_shops (email, shop_name, shop_phone, full_name, phone, cpf, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (email) DO UPDATE SET
		   shop_name = excluded.shop_name,
		   shop_phone = excluded.shop_phone,
		   full_name = excluded.full_name,
		   phone = excluded.phone,
		   cpf = excluded.cpf,
		   created_at = excluded.created_at`,
		p.Email, p.ShopName, p.ShopPhone, p.FullName, p.Phone, p.CPF, unix(created),
	)
	return err
}

func (r pendingShopsRepo) GetPendingShop(ctx context.Context, email string) (domain.PendingShop, error) {
	var (
		p       domain.PendingShop
		created int64
	)
	err := r.c.queryRow(ctx,
		`SELECT email, shop_name, shop_phone, full_name, phone, cpf, created_at
		 FROM pending_shops WHERE email = ?`, email,
	).Scan(&p.Email, &p.ShopName, &p.ShopPhone, &p.FullName, &p.Phone, &p.CPF, &created)
	if err != nil {
		return domain.PendingShop{}, r.c.mapErr(err)
	}
	p.CreatedAt = fromUnix(created)
	return p, nil
}

func (r pendingShopsRepo) DeletePendingShop(ctx context.Context, email string) error {
	_, err := r.c.exec(ctx, `DELETE FROM pending_shops WHERE email = ?`, email)
	return err
}

func (r pendingShopsRepo) DeletePendingShopsBefore(ctx context.Context, before time.Time) (int64, error) {
	return r.c.execCount(ctx, `DELETE FROM pending_shops WHERE created_at < ?`, unix(before))
}
