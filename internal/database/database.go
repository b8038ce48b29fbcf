// Package database opens the libSQL file that holds completed quiz results.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// Memory opens a private in-memory database; tests use it.
const Memory = ":memory:"

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// Open creates a SQLite connection via libSQL with WAL journaling and a 5 s
// busy timeout. An in-memory database is pinned to one connection so every
// query sees the same data.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == Memory {
		db.SetMaxOpenConns(1)
	}

	// Some PRAGMAs return rows and libSQL rejects Exec for those, so every
	// PRAGMA goes through QueryContext.
	for _, p := range pragmas {
		rows, err := db.QueryContext(ctx, p)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %s: %w", p, err)
		}
		rows.Close()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// Checker adapts a *sql.DB to the health endpoint.
type Checker struct {
	DB *sql.DB
}

func (c Checker) Check(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}
