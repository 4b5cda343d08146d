// Package storage persists the ledger in a local SQLite database.
//
// The Ledger owns the only database handle in the process: open it once at
// startup, pass it to the surfaces, close it on shutdown.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// dateLayout is the ISO-8601 form transactions are stored with. It sorts
// lexically, which the month-range queries rely on.
const dateLayout = "2006-01-02T15:04:05"

type Ledger struct {
	db *sql.DB

	// now is the clock used for transaction dates; tests override it.
	now func() time.Time
}

// Open opens (or creates) the SQLite database at dbPath, enables foreign
// keys and runs pending migrations. Migrations are idempotent: opening an
// already-initialized database is a no-op.
func Open(dbPath string) (*Ledger, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Ledger{db: db, now: time.Now}, nil
}

func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}
