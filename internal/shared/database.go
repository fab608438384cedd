package shared

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*sql.DB, error) {
	return OpenDatabase(DriverSQLite, path)
}

// OpenDatabase opens a connection using the named driver.
//
// For [DriverSQLite] dsn is a file path (or ":memory:"), for [DriverPostgres] it is a postgres:// URL.
// Both drivers accept the $n placeholders used by the repositories.
func OpenDatabase(driver, dsn string) (*sql.DB, error) {
	var db *sql.DB

	switch driver {
	case DriverSQLite, "":
		var err error
		if db, err = sql.Open(DriverSQLite, dsn); err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// :memory: databases are per-connection
		if dsn == ":memory:" {
			db.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		db = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", ErrInvalidConfig, driver)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
// Zero values leave the driver defaults in place.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}
