package docs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ordrebog/ordrebog/internal/dbx"
	"github.com/ordrebog/ordrebog/internal/server/migrations"
)

// Postgres is a Store over a PostgreSQL documents table (one JSONB row per
// collection). It is bound to a dbx.DBTX so callers can hand it either a
// *sql.DB or an open transaction.
type Postgres struct {
	db     dbx.DBTX
	closer func() error
}

// NewPostgres opens a pgx connection pool for the DSN, runs the schema
// migrations, and returns a store over it.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := runMigrations(ctx, db, migrations.Postgres, "pgx", "postgres"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &Postgres{db: db, closer: db.Close}, nil
}

// NewPostgresWithDB binds a store to an existing handle. Used by tests.
func NewPostgresWithDB(db dbx.DBTX) *Postgres {
	return &Postgres{db: db, closer: func() error { return nil }}
}

func (p *Postgres) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	row := p.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE key = $1`, key)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return data, nil
}

func (p *Postgres) Save(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO documents (key, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key)
		DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`
	if _, err := p.db.ExecContext(ctx, query, key, data); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.closer()
}
