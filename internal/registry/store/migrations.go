package store

import "github.com/tendril-lang/tendril/internal/registry/migrate"

// Migrations returns the registry's schema migrations in order, for use
// with migrate.Runner.
func Migrations() []*migrate.Migration {
	return []*migrate.Migration{
		{
			Version: 1,
			Name:    "create_patterns_table",
			Up: `CREATE TABLE IF NOT EXISTS patterns (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	source TEXT NOT NULL,
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`,
			Down: `DROP TABLE IF EXISTS patterns`,
		},
	}
}
