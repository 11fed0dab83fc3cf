// Package db persists analysis results in SQLite. The schema is owned by the
// embedded golang-migrate migrations.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/leavitt/internal/timeutil"
)

// DB wraps a SQLite connection to the results database.
type DB struct {
	*sql.DB

	// Clock stamps created_at on saved rows.
	Clock timeutil.Clock
}

// Essential PRAGMAs applied to every opened database.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// OpenDB opens the database at path without touching the schema. SQLite has
// a single writer, so the pool is limited to one connection; this also keeps
// the per-connection PRAGMAs in force.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return &DB{DB: sqlDB, Clock: timeutil.RealClock{}}, nil
}

// NewDB opens the database at path and applies any pending migrations.
func NewDB(path string) (*DB, error) {
	database, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := database.MigrateUp(MigrationsFS()); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func (db *DB) now() int64 {
	if db.Clock == nil {
		return timeutil.RealClock{}.Now().Unix()
	}
	return db.Clock.Now().Unix()
}
