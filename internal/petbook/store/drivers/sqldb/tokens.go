package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
)

// ============================================================================
// E-mail tokens
// ============================================================================

type emailTokensRepo struct{ c conn }

func (r emailTokensRepo) CreateEmailToken(ctx context.Context, t domain.EmailToken) error {
	_, err := r.c.exec(ctx,
		`INSERT INTO email_tokens (id, user_id, purpose, token_hash, expires_at, used_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Purpose), t.TokenHash, unix(t.ExpiresAt), nullUnix(t.UsedAt), unix(time.Now()),
	)
	return err
}

func (r emailTokensRepo) GetEmailTokenByHash(ctx context.Context, hash string) (domain.EmailToken, error) {
	var (
		t                domain.EmailToken
		purpose          string
		expires, created int64
		used             sql.NullInt64
	)
	err := r.c.queryRow(ctx,
		`SELECT id, user_id, purpose, token_hash, expires_at, used_at, created_at
		 FROM email_tokens WHERE token_hash = ?`, hash,
	).Scan(&t.ID, &t.UserID, &purpose, &t.TokenHash, &expires, &used, &created)
	if err != nil {
		return domain.EmailToken{}, r.c.mapErr(err)
	}
	t.Purpose = domain.EmailPurpose(purpose)
	t.ExpiresAt = fromUnix(expires)
	t.UsedAt = fromNullUnix(used)
	t.CreatedAt = fromUnix(created)
	return t, nil
}

func (r emailTokensRepo) MarkEmailTokenUsed(ctx context.Context, id string, at time.Time) error {
	return r.c.execOne(ctx,
		`UPDATE email_tokens SET used_at = ? WHERE id = ? AND used_at IS NULL`,
		unix(at), id,
	)
}

func (r emailTokensRepo) MarkUserEmailTokensUsed(ctx context.Context, userID string, purpose domain.EmailPurpose, at time.Time) (int64, error) {
	return r.c.execCount(ctx,
		`UPDATE email_tokens SET used_at = ? WHERE user_id = ? AND purpose = ? AND used_at IS NULL`,
		unix(at), userID, string(purpose),
	)
}

func (r emailTokensRepo) DeleteExpiredEmailTokens(ctx context.Context, now time.Time) (int64, error) {
	return r.c.execCount(ctx,
		`DELETE FROM email_tokens WHERE expires_at < ? OR used_at IS NOT NULL`, unix(now))
}

// ============================================================================
// Refresh tokens
// ============================================================================

type refreshTokensRepo struct{ c conn }

func (r refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	now := unix(time.Now())
	_, err := r.c.exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, session_id, expires_at, revoked, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, t.SessionID, unix(t.ExpiresAt), t.Revoked, now, now,
	)
	return err
}

func (r refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var (
		t                         domain.RefreshToken
		expires, created, updated int64
	)
	err := r.c.queryRow(ctx,
		`SELECT id, user_id, token_hash, session_id, expires_at, revoked, created_at, updated_at
		 FROM refresh_tokens WHERE token_hash = ?`, hash,
	).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.SessionID, &expires, &t.Revoked, &created, &updated)
	if err != nil {
		return domain.RefreshToken{}, r.c.mapErr(err)
	}
	t.ExpiresAt = fromUnix(expires)
	t.CreatedAt = fromUnix(created)
	t.UpdatedAt = fromUnix(updated)
	return t, nil
}

func (r refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	return r.c.execOne(ctx,
		`UPDATE refresh_tokens SET revoked = ?, updated_at = ? WHERE token_hash = ? AND revoked = ?`,
		true, unix(time.Now()), hash, false,
	)
}

func (r refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID string) error {
	_, err := r.c.exec(ctx,
		`UPDATE refresh_tokens SET revoked = ?, updated_at = ? WHERE user_id = ? AND revoked = ?`,
		true, unix(time.Now()), userID, false,
	)
	return err
}

func (r refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	return r.c.execCount(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, unix(now))
}

// ============================================================================
// Staff invites
// ============================================================================

type invitesRepo struct{ c conn }

func (r invitesRepo) CreateInvite(ctx context.Context, inv domain.StaffInvite) error {
	_, err := r.c.exec(ctx,
		`INSERT INTO staff_invites (id, shop_id, role, token_hash, created_by, expires_at, used_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ShopID, inv.Role, inv.TokenHash, inv.CreatedBy, unix(inv.ExpiresAt),
		nullString(inv.UsedBy), unix(time.Now()),
	)
	return err
}

func (r invitesRepo) GetInviteByTokenHash(ctx context.Context, hash string) (domain.StaffInvite, error) {
	var (
		inv              domain.StaffInvite
		usedBy           sql.NullString
		expires, created int64
	)
	err := r.c.queryRow(ctx,
		`SELECT id, shop_id, role, token_hash, created_by, expires_at, used_by, created_at
		 FROM staff_invites WHERE token_hash = ?`, hash,
	).Scan(&inv.ID, &inv.ShopID, &inv.Role, &inv.TokenHash, &inv.CreatedBy, &expires, &usedBy, &created)
	if err != nil {
		return domain.StaffInvite{}, r.c.mapErr(err)
	}
	inv.UsedBy = usedBy.String
	inv.ExpiresAt = fromUnix(expires)
	inv.CreatedAt = fromUnix(created)
	return inv, nil
}

func (r invitesRepo) MarkInviteUsed(ctx context.Context, id, userID string) error {
	return r.c.execOne(ctx,
		`UPDATE staff_invites SET used_by = ? WHERE id = ? AND used_by IS NULL`,
		userID, id,
	)
}

func (r invitesRepo) DeleteExpiredInvites(ctx context.Context, now time.Time) (int64, error) {
	return r.c.execCount(ctx, `DELETE FROM staff_invites WHERE expires_at < ?`, unix(now))
}

// ============================================================================
// Signing keys
// ============================================================================

type signingKeysRepo struct{ c conn }

func (r signingKeysRepo) CreateSigningKey(ctx context.Context, k domain.SigningKey) error {
	created := k.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.c.exec(ctx,
		`INSERT INTO signing_keys (kid, algorithm, private_key_encrypted, created_at, retired_at)
		 VALUES (?, ?, ?, ?, ?)`,
		k.Kid, k.Algorithm, k.PrivateKeyEncrypted, unix(created), nullUnix(k.RetiredAt),
	)
	return err
}

func (r signingKeysRepo) ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	rows, err := r.c.query(ctx,
		`SELECT kid, algorithm, private_key_encrypted, created_at, retired_at
		 FROM signing_keys ORDER BY created_at, kid`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(s scanner) (domain.SigningKey, error) {
		var (
			k       domain.SigningKey
			created int64
			retired sql.NullInt64
		)
		if err := s.Scan(&k.Kid, &k.Algorithm, &k.PrivateKeyEncrypted, &created, &retired); err != nil {
			return domain.SigningKey{}, err
		}
		k.CreatedAt = fromUnix(created)
		k.RetiredAt = fromNullUnix(retired)
		return k, nil
	})
}

func (r signingKeysRepo) RetireSigningKey(ctx context.Context, kid string, at time.Time) error {
	return r.c.execOne(ctx,
		`UPDATE signing_keys SET retired_at = ? WHERE kid = ? AND retired_at IS NULL`,
		unix(at), kid,
	)
}
