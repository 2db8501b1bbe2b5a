package sqldb

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/petbook/internal/petbook/store"
)

// Store implements store.Store on a *sql.DB.
type Store struct {
	repos
	db *sql.DB
	d  Dialect
}

func New(db *sql.DB, d Dialect) *Store {
	return &Store{repos: repos{c: conn{q: db, d: d}}, db: db, d: d}
}

// DB exposes the underlying pool, for drivers and tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) ApplyMigrations() error { return s.d.Migrate(s.db) }

func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx, repos: repos{c: conn{q: tx, d: s.d}}}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after Commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// repos hands out repositories bound to one conn.
type repos struct {
	c conn
}

func (r repos) Users() store.Users                 { return usersRepo{r.c} }
func (r repos) Profiles() store.Profiles           { return profilesRepo{r.c} }
func (r repos) Shops() store.Shops                 { return shopsRepo{r.c} }
func (r repos) PendingShops() store.PendingShops   { return pendingShopsRepo{r.c} }
func (r repos) EmailTokens() store.EmailTokens     { return emailTokensRepo{r.c} }
func (r repos) RefreshTokens() store.RefreshTokens { return refreshTokensRepo{r.c} }
func (r repos) StaffInvites() store.StaffInvites   { return invitesRepo{r.c} }
func (r repos) SigningKeys() store.SigningKeys     { return signingKeysRepo{r.c} }
func (r repos) Clients() store.Clients             { return clientsRepo{r.c} }
func (r repos) Pets() store.Pets                   { return petsRepo{r.c} }
func (r repos) Services() store.Services           { return servicesRepo{r.c} }
func (r repos) Appointments() store.Appointments   { return appointmentsRepo{r.c} }
func (r repos) Dashboard() store.Dashboard         { return dashboardRepo{r.c} }

type txStore struct {
	repos
	tx *sql.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the owning Store keeps the pool open.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(context.Context) error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, sql.ErrTxDone }

func (t *txStore) WithTx(context.Context, func(store.Tx) error) error { return sql.ErrTxDone }

// Migrations run before any transaction is opened.
func (t *txStore) ApplyMigrations() error { return nil }
