package sqlite_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/internal/petbook/store/drivers/sqlite"
	"github.com/aussiebroadwan/petbook/internal/petbook/store/storetest"
	"github.com/aussiebroadwan/petbook/pkg/idx"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestStore(t *testing.T) {
	t.Parallel()
	storetest.Run(t, newStore)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(t.Context()))
}

func TestFileDatabase(t *testing.T) {
	t.Parallel()

	s, err := sqlite.NewStore(sqlite.FileDSN(t.TempDir() + "/petbook.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.ApplyMigrations())
	ctx := t.Context()
	_, err = s.Users().GetUserByEmail(ctx, "nobody@petbook.com.br")
	require.ErrorIs(t, err, store.ErrNotFound)

	t.Run("cascade on every connection", func(t *testing.T) {
		// Hold the first connection so the statements below run on others.
		pinned, err := s.DB().Conn(ctx)
		require.NoError(t, err)
		defer pinned.Close()

		var fk int
		require.NoError(t, pinned.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
		require.Equal(t, 1, fk)

		shop := domain.Shop{ID: idx.NewString(), Name: "Pet Feliz"}
		require.NoError(t, s.Shops().CreateShop(ctx, shop))
		client := domain.Client{ID: idx.NewString(), ShopID: shop.ID, Name: "Bruno"}
		require.NoError(t, s.Clients().CreateClient(ctx, client))
		require.NoError(t, s.Pets().CreatePet(ctx, domain.Pet{
			ID: idx.NewString(), ShopID: shop.ID, ClientID: client.ID, Name: "Rex",
		}))

		require.NoError(t, s.Clients().DeleteClient(ctx, shop.ID, client.ID))
		pets, err := s.Pets().ListPets(ctx, shop.ID, "")
		require.NoError(t, err)
		require.Empty(t, pets)
	})
}
