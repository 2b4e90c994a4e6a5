package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the SQL flavor for migrations and placeholders.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return "unknown"
	}
}

// KVTable is the table holding every persisted key.
const KVTable = "kv_store"

var migrations = map[Dialect][]string{
	SQLite: {
		`CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`ALTER TABLE kv_store ADD COLUMN size_bytes INTEGER NOT NULL DEFAULT 0`,
	},
	Postgres: {
		// BYTEA rather than JSONB: JSONB reorders keys, so a reload would not
		// be byte-identical to what was saved.
		`CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`ALTER TABLE kv_store ADD COLUMN IF NOT EXISTS size_bytes BIGINT NOT NULL DEFAULT 0`,
	},
}

// Migrate runs all schema migrations for the dialect. Statements are
// idempotent so Migrate may run on every open.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	stmts, ok := migrations[d]
	if !ok {
		return fmt.Errorf("no migrations for dialect %s", d)
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			// SQLite has no ADD COLUMN IF NOT EXISTS.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
