package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects to dsn with the named driver and verifies the connection.
// SQLite handles are limited to one connection: an in-memory database lives
// only as long as its connection, and writers serialize anyway.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	return db, nil
}
