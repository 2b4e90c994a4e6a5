package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/delegate/internal/db"
)

// SQLBackend keeps each key as one row of the kv_store table. It serves both
// the SQLite and the Postgres dialects.
type SQLBackend struct {
	conn    *sql.DB
	dialect db.Dialect
	uow     db.UnitOfWork
}

// NewSQLBackend wraps an already migrated database.
func NewSQLBackend(conn *sql.DB, dialect db.Dialect) *SQLBackend {
	return &SQLBackend{conn: conn, dialect: dialect, uow: db.NewSQLUnitOfWork(conn)}
}

// WithUnitOfWork replaces the transaction runner used by Put, Delete and
// Batch.
func (b *SQLBackend) WithUnitOfWork(uow db.UnitOfWork) *SQLBackend {
	b.uow = uow
	return b
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(path string) (*SQLBackend, error) {
	conn, err := db.OpenDB(path)
	if err != nil {
		return nil, err
	}
	return NewSQLBackend(conn, db.SQLite), nil
}

// OpenPostgres connects to Postgres using dsn.
func OpenPostgres(ctx context.Context, dsn string) (*SQLBackend, error) {
	conn, err := db.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewSQLBackend(conn, db.Postgres), nil
}

func (b *SQLBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.conn.QueryRowContext(ctx, b.dialect.Rebind(`SELECT value FROM kv_store WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoValue
	}
	if err != nil {
		return nil, fmt.Errorf("reading key %s: %w", key, err)
	}
	return value, nil
}

func (b *SQLBackend) Put(ctx context.Context, key string, value []byte) error {
	return b.put(ctx, b.conn, key, value)
}

func (b *SQLBackend) Delete(ctx context.Context, key string) error {
	return b.delete(ctx, b.conn, key)
}

// Batch applies puts and deletes in one transaction.
func (b *SQLBackend) Batch(ctx context.Context, puts map[string][]byte, deletes []string) error {
	return b.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		for k, v := range puts {
			if err := b.put(ctx, tx, k, v); err != nil {
				return err
			}
		}
		for _, k := range deletes {
			if err := b.delete(ctx, tx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *SQLBackend) put(ctx context.Context, q db.DBTX, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	var stmt string
	switch b.dialect {
	case db.Postgres:
		stmt = `INSERT INTO kv_store (key, value, size_bytes, updated_at) VALUES (?, ?, ?, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, size_bytes = EXCLUDED.size_bytes, updated_at = now()`
	default:
		stmt = `INSERT INTO kv_store (key, value, size_bytes, updated_at) VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
			ON CONFLICT (key) DO UPDATE SET value = excluded.value, size_bytes = excluded.size_bytes, updated_at = excluded.updated_at`
	}
	if _, err := q.ExecContext(ctx, b.dialect.Rebind(stmt), key, value, len(value)); err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	return nil
}

func (b *SQLBackend) delete(ctx context.Context, q db.DBTX, key string) error {
	if _, err := q.ExecContext(ctx, b.dialect.Rebind(`DELETE FROM kv_store WHERE key = ?`), key); err != nil {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}

func (b *SQLBackend) Close() error { return b.conn.Close() }

var (
	_ Backend = (*SQLBackend)(nil)
	_ Batcher = (*SQLBackend)(nil)
)
