// Package postgres is the PostgreSQL driver of store.Store, using lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/aussiebroadwan/petbook/internal/petbook/store/drivers/sqldb"
)

const uniqueViolation = pq.ErrorCode("23505")

// NewStore opens dsn and checks the server is reachable.
func NewStore(ctx context.Context, dsn string) (*sqldb.Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sqldb.New(db, Dialect{}), nil
}

// Dialect is the sqldb.Dialect for PostgreSQL.
type Dialect struct{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) Rebind(query string) string { return sqldb.RebindDollar(query) }

func (Dialect) IsUniqueViolation(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == uniqueViolation
}

func (Dialect) Migrate(db *sql.DB) error { return applyMigrations(db) }
