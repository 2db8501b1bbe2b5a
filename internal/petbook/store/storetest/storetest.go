// Package storetest holds the behaviour every store.Store driver must
// share. Drivers call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/pkg/idx"
)

// Factory returns an empty, migrated store. It is called once per subtest.
type Factory func(t *testing.T) store.Store

// Run exercises every repository of the store returned by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("shops and profiles", func(t *testing.T) { testShopsAndProfiles(t, newStore(t)) })
	t.Run("pending shops", func(t *testing.T) { testPendingShops(t, newStore(t)) })
	t.Run("email tokens", func(t *testing.T) { testEmailTokens(t, newStore(t)) })
	t.Run("refresh tokens", func(t *testing.T) { testRefreshTokens(t, newStore(t)) })
	t.Run("staff invites", func(t *testing.T) { testInvites(t, newStore(t)) })
	t.Run("signing keys", func(t *testing.T) { testSigningKeys(t, newStore(t)) })
	t.Run("clients", func(t *testing.T) { testClients(t, newStore(t)) })
	t.Run("pets", func(t *testing.T) { testPets(t, newStore(t)) })
	t.Run("appointments and dashboard", func(t *testing.T) { testAppointments(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTx(t, newStore(t)) })
}

func seedUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()
	u := domain.User{ID: idx.NewString(), Email: email, PasswordHash: "hash"}
	require.NoError(t, s.Users().CreateUser(t.Context(), u))
	return u
}

func seedShop(t *testing.T, s store.Store, name string) domain.Shop {
	t.Helper()
	sh := domain.Shop{ID: idx.NewString(), Name: name}
	require.NoError(t, s.Shops().CreateShop(t.Context(), sh))
	return sh
}

func testUsers(t *testing.T, s store.Store) {
	ctx := t.Context()
	u := seedUser(t, s, "ana@petbook.com.br")

	got, err := s.Users().GetUserByEmail(ctx, "ana@petbook.com.br")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.False(t, got.Confirmed())

	err = s.Users().CreateUser(ctx, domain.User{ID: idx.NewString(), Email: u.Email, PasswordHash: "x"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	at := time.Now().Truncate(time.Second)
	require.NoError(t, s.Users().ConfirmEmail(ctx, u.ID, at))
	require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "new-hash"))

	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.Confirmed())
	require.True(t, got.EmailConfirmedAt.Equal(at))
	require.Equal(t, "new-hash", got.PasswordHash)

	_, err = s.Users().GetUserByID(ctx, idx.NewString())
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Users().UpdatePasswordHash(ctx, idx.NewString(), "x"), store.ErrNotFound)
}

func testShopsAndProfiles(t *testing.T, s store.Store) {
	ctx := t.Context()
	shop := seedShop(t, s, "Banho & Tosa")
	owner := seedUser(t, s, "dona@petbook.com.br")
	groomer := seedUser(t, s, "tosador@petbook.com.br")

	require.NoError(t, s.Profiles().CreateProfile(ctx, domain.Profile{
		UserID: owner.ID, ShopID: shop.ID, Role: "owner", FullName: "Maria Souza", CPF: "52998224725",
	}))
	require.NoError(t, s.Profiles().CreateProfile(ctx, domain.Profile{
		UserID: groomer.ID, ShopID: shop.ID, Role: "groomer", FullName: "João Lima",
	}))

	p, err := s.Profiles().GetProfile(ctx, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "owner", p.Role)
	require.Equal(t, shop.ID, p.ShopID)

	p.FullName = "Maria S. Souza"
	p.Phone = "11987654321"
	require.NoError(t, s.Profiles().UpdateProfile(ctx, p))

	staff, err := s.Profiles().ListStaff(ctx, shop.ID)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	require.Equal(t, "João Lima", staff[0].FullName)
	require.Equal(t, "Maria S. Souza", staff[1].FullName)
	require.Equal(t, "dona@petbook.com.br", staff[1].Email)
	require.Equal(t, "11987654321", staff[1].Phone)

	_, err = s.Profiles().GetProfile(ctx, idx.NewString())
	require.ErrorIs(t, err, store.ErrNotFound)

	shop.Phone = "1133334444"
	require.NoError(t, s.Shops().UpdateShop(ctx, shop))
	got, err := s.Shops().GetShop(ctx, shop.ID)
	require.NoError(t, err)
	require.Equal(t, "1133334444", got.Phone)
}

func testPendingShops(t *testing.T, s store.Store) {
	ctx := t.Context()
	old := time.Now().Add(-48 * time.Hour)

	require.NoError(t, s.PendingShops().UpsertPendingShop(ctx, domain.PendingShop{
		Email: "a@petbook.com.br", ShopName: "Primeiro", FullName: "A", CreatedAt: old,
	}))
	require.NoError(t, s.PendingShops().UpsertPendingShop(ctx, domain.PendingShop{
		Email: "a@petbook.com.br", ShopName: "Segundo", FullName: "A",
	}))
	require.NoError(t, s.PendingShops().UpsertPendingShop(ctx, domain.PendingShop{
		Email: "b@petbook.com.br", ShopName: "Antigo", FullName: "B", CreatedAt: old,
	}))

	p, err := s.PendingShops().GetPendingShop(ctx, "a@petbook.com.br")
	require.NoError(t, err)
	require.Equal(t, "Segundo", p.ShopName)

	n, err := s.PendingShops().DeletePendingShopsBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.NoError(t, s.PendingShops().DeletePendingShop(ctx, "a@petbook.com.br"))
	_, err = s.PendingShops().GetPendingShop(ctx, "a@petbook.com.br")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testEmailTokens(t *testing.T, s store.Store) {
	ctx := t.Context()
	u := seedUser(t, s, "ana@petbook.com.br")
	now := time.Now()

	tok := domain.EmailToken{
		ID: idx.NewString(), UserID: u.ID, Purpose: domain.PurposeConfirm,
		TokenHash: "hash-1", ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, s.EmailTokens().CreateEmailToken(ctx, tok))
	require.NoError(t, s.EmailTokens().CreateEmailToken(ctx, domain.EmailToken{
		ID: idx.NewString(), UserID: u.ID, Purpose: domain.PurposeReset,
		TokenHash: "hash-2", ExpiresAt: now.Add(-time.Hour),
	}))

	got, err := s.EmailTokens().GetEmailTokenByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, domain.PurposeConfirm, got.Purpose)
	require.True(t, got.Redeemable(now))

	require.NoError(t, s.EmailTokens().MarkEmailTokenUsed(ctx, tok.ID, now))
	require.ErrorIs(t, s.EmailTokens().MarkEmailTokenUsed(ctx, tok.ID, now), store.ErrNotFound)

	require.NoError(t, s.EmailTokens().CreateEmailToken(ctx, domain.EmailToken{
		ID: idx.NewString(), UserID: u.ID, Purpose: domain.PurposeConfirm,
		TokenHash: "hash-3", ExpiresAt: now.Add(time.Hour),
	}))
	spent, err := s.EmailTokens().MarkUserEmailTokensUsed(ctx, u.ID, domain.PurposeConfirm, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, spent, "only the unused confirm token")
	got, err = s.EmailTokens().GetEmailTokenByHash(ctx, "hash-3")
	require.NoError(t, err)
	require.False(t, got.Redeemable(now))
	reset, err := s.EmailTokens().GetEmailTokenByHash(ctx, "hash-2")
	require.NoError(t, err)
	require.Nil(t, reset.UsedAt, "other purposes are untouched")

	n, err := s.EmailTokens().DeleteExpiredEmailTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func testRefreshTokens(t *testing.T, s store.Store) {
	ctx := t.Context()
	u := seedUser(t, s, "ana@petbook.com.br")
	exp := time.Now().Add(time.Hour)

	for _, h := range []string{"r1", "r2"} {
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID: idx.NewString(), UserID: u.ID, TokenHash: h, SessionID: "sid", ExpiresAt: exp,
		}))
	}
	err := s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID: idx.NewString(), UserID: u.ID, TokenHash: "r1", SessionID: "sid", ExpiresAt: exp,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "r1"))
	require.ErrorIs(t, s.RefreshTokens().RevokeRefreshToken(ctx, "r1"), store.ErrNotFound,
		"a revoked token cannot be rotated twice")
	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "r1")
	require.NoError(t, err)
	require.True(t, got.Revoked)
	require.Equal(t, "sid", got.SessionID)

	require.NoError(t, s.RefreshTokens().RevokeAllUserRefreshTokens(ctx, u.ID))
	got, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "r2")
	require.NoError(t, err)
	require.True(t, got.Revoked)

	n, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, exp.Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func testInvites(t *testing.T, s store.Store) {
	ctx := t.Context()
	shop := seedShop(t, s, "Pet Feliz")
	owner := seedUser(t, s, "dona@petbook.com.br")
	staff := seedUser(t, s, "novo@petbook.com.br")

	inv := domain.StaffInvite{
		ID: idx.NewString(), ShopID: shop.ID, Role: "groomer", TokenHash: "inv-1",
		CreatedBy: owner.ID, ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.StaffInvites().CreateInvite(ctx, inv))

	got, err := s.StaffInvites().GetInviteByTokenHash(ctx, "inv-1")
	require.NoError(t, err)
	require.False(t, got.Used())

	require.NoError(t, s.StaffInvites().MarkInviteUsed(ctx, inv.ID, staff.ID))
	require.ErrorIs(t, s.StaffInvites().MarkInviteUsed(ctx, inv.ID, staff.ID), store.ErrNotFound)

	got, err = s.StaffInvites().GetInviteByTokenHash(ctx, "inv-1")
	require.NoError(t, err)
	require.Equal(t, staff.ID, got.UsedBy)
}

func testSigningKeys(t *testing.T, s store.Store) {
	ctx := t.Context()
	base := time.Now().Truncate(time.Second)

	require.NoError(t, s.SigningKeys().CreateSigningKey(ctx, domain.SigningKey{
		Kid: "k2", Algorithm: "EdDSA", PrivateKeyEncrypted: []byte{2}, CreatedAt: base.Add(time.Second),
	}))
	require.NoError(t, s.SigningKeys().CreateSigningKey(ctx, domain.SigningKey{
		Kid: "k1", Algorithm: "EdDSA", PrivateKeyEncrypted: []byte{1}, CreatedAt: base,
	}))

	require.NoError(t, s.SigningKeys().RetireSigningKey(ctx, "k1", base.Add(time.Minute)))
	require.ErrorIs(t, s.SigningKeys().RetireSigningKey(ctx, "k1", base), store.ErrNotFound)

	keys, err := s.SigningKeys().ListSigningKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.Equal(t, "k1", keys[0].Kid)
	require.NotNil(t, keys[0].RetiredAt)
	require.Equal(t, []byte{1}, keys[0].PrivateKeyEncrypted)
	require.Nil(t, keys[1].RetiredAt)
}

func testClients(t *testing.T, s store.Store) {
	ctx := t.Context()
	shop := seedShop(t, s, "Pet Feliz")
	other := seedShop(t, s, "Outra Loja")

	ana := domain.Client{ID: idx.NewString(), ShopID: shop.ID, Name: "Ana Paula", Email: "ana@mail.com", Phone: "11911112222"}
	bruno := domain.Client{ID: idx.NewString(), ShopID: shop.ID, Name: "Bruno", Email: "bruno@mail.com"}
	require.NoError(t, s.Clients().CreateClient(ctx, ana))
	require.NoError(t, s.Clients().CreateClient(ctx, bruno))
	require.NoError(t, s.Clients().CreateClient(ctx, domain.Client{ID: idx.NewString(), ShopID: other.ID, Name: "Ana Outra"}))

	all, err := s.Clients().ListClients(ctx, shop.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	found, err := s.Clients().ListClients(ctx, shop.ID, "ANA")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, ana.ID, found[0].ID)

	found, err = s.Clients().ListClients(ctx, shop.ID, "1111")
	require.NoError(t, err)
	require.Len(t, found, 1)

	none, err := s.Clients().ListClients(ctx, shop.ID, "zzz")
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)

	_, err = s.Clients().GetClient(ctx, other.ID, ana.ID)
	require.ErrorIs(t, err, store.ErrNotFound, "clients are scoped by shop")

	ana.Notes = "prefere sábado"
	require.NoError(t, s.Clients().UpdateClient(ctx, ana))
	got, err := s.Clients().GetClient(ctx, shop.ID, ana.ID)
	require.NoError(t, err)
	require.Equal(t, "prefere sábado", got.Notes)

	require.ErrorIs(t, s.Clients().DeleteClient(ctx, other.ID, bruno.ID), store.ErrNotFound)
	require.NoError(t, s.Clients().DeleteClient(ctx, shop.ID, bruno.ID))
}

func testPets(t *testing.T, s store.Store) {
	ctx := t.Context()
	shop := seedShop(t, s, "Pet Feliz")
	c1 := domain.Client{ID: idx.NewString(), ShopID: shop.ID, Name: "Ana"}
	c2 := domain.Client{ID: idx.NewString(), ShopID: shop.ID, Name: "Bruno"}
	require.NoError(t, s.Clients().CreateClient(ctx, c1))
	require.NoError(t, s.Clients().CreateClient(ctx, c2))

	birth := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	rex := domain.Pet{ID: idx.NewString(), ShopID: shop.ID, ClientID: c1.ID, Name: "Rex", Species: "cão", BirthDate: &birth, WeightGrams: 12000}
	mia := domain.Pet{ID: idx.NewString(), ShopID: shop.ID, ClientID: c2.ID, Name: "Mia", Species: "gato"}
	require.NoError(t, s.Pets().CreatePet(ctx, rex))
	require.NoError(t, s.Pets().CreatePet(ctx, mia))

	pets, err := s.Pets().ListPets(ctx, shop.ID, "")
	require.NoError(t, err)
	require.Len(t, pets, 2)

	pets, err = s.Pets().ListPets(ctx, shop.ID, c1.ID)
	require.NoError(t, err)
	require.Len(t, pets, 1)
	require.Equal(t, "Rex", pets[0].Name)
	require.True(t, pets[0].BirthDate.Equal(birth))
	require.Equal(t, 12000, pets[0].WeightGrams)

	require.NoError(t, s.Pets().SetPhotoKey(ctx, shop.ID, rex.ID, "shops/x/pets/rex.jpg"))
	got, err := s.Pets().GetPet(ctx, shop.ID, rex.ID)
	require.NoError(t, err)
	require.Equal(t, "shops/x/pets/rex.jpg", got.PhotoKey)

	require.NoError(t, s.Clients().DeleteClient(ctx, shop.ID, c2.ID))
	_, err = s.Pets().GetPet(ctx, shop.ID, mia.ID)
	require.ErrorIs(t, err, store.ErrNotFound, "pets go with their owner")
}

func testAppointments(t *testing.T, s store.Store) {
	ctx := t.Context()
	shop := seedShop(t, s, "Pet Feliz")
	client := domain.Client{ID: idx.NewString(), ShopID: shop.ID, Name: "Ana"}
	require.NoError(t, s.Clients().CreateClient(ctx, client))
	pet := domain.Pet{ID: idx.NewString(), ShopID: shop.ID, ClientID: client.ID, Name: "Rex"}
	require.NoError(t, s.Pets().CreatePet(ctx, pet))
	svc := domain.Service{ID: idx.NewString(), ShopID: shop.ID, Name: "Banho", PriceCents: 5000, DurationMinutes: 60, Active: true}
	require.NoError(t, s.Services().CreateService(ctx, svc))

	services, err := s.Services().ListServices(ctx, shop.ID)
	require.NoError(t, err)
	require.Len(t, services, 1)
	require.True(t, services[0].Active)

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	day := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	add := func(at time.Time, st domain.AppointmentStatus, price int64) domain.Appointment {
		a := domain.Appointment{
			ID: idx.NewString(), ShopID: shop.ID, PetID: pet.ID, ServiceID: svc.ID,
			ScheduledAt: at, Status: st, PriceCents: price,
		}
		require.NoError(t, s.Appointments().CreateAppointment(ctx, a))
		return a
	}
	later := add(day.Add(14*time.Hour), domain.StatusScheduled, 5000)
	add(day.Add(9*time.Hour), domain.StatusCompleted, 7000)
	add(time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC), domain.StatusCompleted, 3000)
	add(day.Add(16*time.Hour), domain.StatusCancelled, 5000)
	add(time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC), domain.StatusConfirmed, 5000)

	today, err := s.Appointments().ListAppointments(ctx, shop.ID, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, today, 3)
	require.True(t, today[0].ScheduledAt.Before(today[1].ScheduledAt))
	require.Equal(t, svc.ID, today[0].ServiceID)
	require.Empty(t, today[0].StaffID)

	sum, err := s.Dashboard().Summary(ctx, shop.ID, store.DashboardWindow{
		Now:        now,
		DayStart:   day,
		DayEnd:     day.Add(24 * time.Hour),
		MonthStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		MonthEnd:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, domain.DashboardSummary{
		Clients:              1,
		Pets:                 1,
		AppointmentsToday:    2,
		UpcomingAppointments: 2,
		RevenueMonthCents:    10000,
	}, sum)

	require.NoError(t, s.Appointments().UpdateAppointmentStatus(ctx, shop.ID, later.ID, domain.StatusConfirmed, now))
	got, err := s.Appointments().GetAppointment(ctx, shop.ID, later.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, got.Status)

	require.NoError(t, s.Services().DeleteService(ctx, shop.ID, svc.ID))
	got, err = s.Appointments().GetAppointment(ctx, shop.ID, later.ID)
	require.NoError(t, err)
	require.Empty(t, got.ServiceID, "history outlives the catalogue")
}

func testTx(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, domain.User{ID: idx.NewString(), Email: "rollback@petbook.com.br", PasswordHash: "x"}))
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = s.Users().GetUserByEmail(ctx, "rollback@petbook.com.br")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, domain.User{ID: idx.NewString(), Email: "commit@petbook.com.br", PasswordHash: "x"})
	}))
	_, err = s.Users().GetUserByEmail(ctx, "commit@petbook.com.br")
	require.NoError(t, err)
}
