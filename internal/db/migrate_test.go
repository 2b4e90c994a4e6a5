package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(context.Background(), db, SQLite))
	require.NoError(t, Migrate(context.Background(), db, SQLite))
}

func TestMigrate_CreatesKVTable(t *testing.T) {
	db := openTestDB(t)

	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, KVTable).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, KVTable, name)

	_, err = db.Exec(`INSERT INTO kv_store (key, value, size_bytes) VALUES (?, ?, ?)`, "k", []byte("v"), 1)
	require.NoError(t, err)

	var updated string
	require.NoError(t, db.QueryRow(`SELECT updated_at FROM kv_store WHERE key = ?`, "k").Scan(&updated))
	assert.NotEmpty(t, updated, "updated_at should default")
}

func TestMigrate_UnknownDialect(t *testing.T) {
	db := openTestDB(t)
	err := Migrate(context.Background(), db, Dialect(99))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}

func TestOpenDB_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "delegate.db")
	db, err := OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpenPostgres_EmptyDSN(t *testing.T) {
	_, err := OpenPostgres(context.Background(), "")
	require.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := `INSERT INTO kv_store (key, value) VALUES (?, ?)`
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, `INSERT INTO kv_store (key, value) VALUES ($1, $2)`, Postgres.Rebind(q))
	assert.Equal(t, "postgres", Postgres.String())
}
