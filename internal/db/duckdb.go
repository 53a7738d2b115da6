package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

// OpenColdStore opens a *sql.DB over a DuckDB database file. An empty path
// opens an in-memory database, useful for development and tests.
func OpenColdStore(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open cold store: %w", err)
	}

	// DuckDB serializes writes internally; a small pool avoids contention.
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping cold store: %w", err)
	}

	return db, nil
}
