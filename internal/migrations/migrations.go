// Package migrations embeds the goose schema migrations for every supported
// database dialect. Each dialect lives in its own directory of the FS.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)
