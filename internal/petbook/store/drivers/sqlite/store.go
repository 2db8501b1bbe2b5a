// Package sqlite is the SQLite driver of store.Store, backed by the pure Go
// modernc.org/sqlite engine.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/aussiebroadwan/petbook/internal/petbook/store/drivers/sqldb"
)

// FileDSN is the DSN of the database file at path, with a busy timeout and
// WAL journaling.
func FileDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// NewStore opens dsn with foreign keys enforced on every pooled
// connection. An in-memory database is pinned to a single connection,
// otherwise every connection would see its own empty database.
func NewStore(dsn string) (*sqldb.Store, error) {
	db, err := sql.Open("sqlite", withForeignKeys(dsn))
	if err != nil {
		return nil, err
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return sqldb.New(db, Dialect{}), nil
}

// withForeignKeys adds the foreign_keys pragma to dsn. The driver runs
// _pragma parameters on each new connection.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Dialect is the sqldb.Dialect for SQLite.
type Dialect struct{}

func (Dialect) Name() string { return "sqlite" }

// Rebind is the identity; SQLite understands "?".
func (Dialect) Rebind(query string) string { return query }

func (Dialect) IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func (Dialect) Migrate(db *sql.DB) error { return applyMigrations(db) }
