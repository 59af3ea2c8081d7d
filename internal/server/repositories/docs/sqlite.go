package docs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/ordrebog/ordrebog/internal/server/migrations"
)

// SQLite is a Store over an embedded SQLite database, the middle step the
// deployment went through between flat files and PostgreSQL.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database file, runs the schema
// migrations, and returns a store over it.
func NewSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	// The documents table is rewritten whole; a single connection avoids
	// SQLITE_BUSY between the two front ends.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, migrations.SQLite, "sqlite3", "sqlite"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	row := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE key = ?`, key)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return data, nil
}

func (s *SQLite) Save(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO documents (key, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key)
		DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, data); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
