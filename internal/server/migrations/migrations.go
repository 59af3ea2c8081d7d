// Package migrations embeds the goose schema migrations for the SQL-backed
// document stores. PostgreSQL and SQLite get separate directories because
// the column types differ (JSONB vs TEXT).
package migrations

import "embed"

//go:embed postgres/*.sql
var Postgres embed.FS

//go:embed sqlite/*.sql
var SQLite embed.FS
