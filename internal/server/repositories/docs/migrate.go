package docs

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// runMigrations points goose at an embedded migration FS and applies it.
func runMigrations(ctx context.Context, db *sql.DB, fsys fs.FS, dialect, dir string) error {
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, dir)
}
