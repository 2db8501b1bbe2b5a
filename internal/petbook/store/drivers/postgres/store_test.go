package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/internal/petbook/store/drivers/postgres"
	"github.com/aussiebroadwan/petbook/internal/petbook/store/drivers/sqldb"
	"github.com/aussiebroadwan/petbook/internal/petbook/store/storetest"
)

// startPostgres runs a throwaway server and returns its DSN.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "petbook",
			"POSTGRES_PASSWORD": "petbook",
			"POSTGRES_DB":       "petbook",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://petbook:petbook@%s:%s/petbook?sslmode=disable", host, port.Port())
}

func TestStore(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	dsn := startPostgres(t)

	s, err := postgres.NewStore(t.Context(), dsn)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.ApplyMigrations())

	storetest.Run(t, func(t *testing.T) store.Store {
		truncate(t, s)
		return s
	})
}

// truncate empties every table between subtests; the server is shared.
func truncate(t *testing.T, s *sqldb.Store) {
	t.Helper()
	_, err := s.DB().ExecContext(t.Context(), `TRUNCATE users, shops, pending_shops, signing_keys CASCADE`)
	require.NoError(t, err)
}

func TestRebind(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		"SELECT 1 FROM users WHERE id = $1 AND email = $2",
		postgres.Dialect{}.Rebind("SELECT 1 FROM users WHERE id = ? AND email = ?"),
	)
}
