// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files follow the naming convention {version}_{description}.sql
// (e.g. "001_session_entries.sql") and are read from any fs.FS, typically an
// embed.FS compiled into the binary. Applied versions are tracked in a
// schema_migrations table so each file runs at most once, inside its own
// transaction.
package migration
