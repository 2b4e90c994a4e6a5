package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alexanderramin/delegate/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stateKey   = "delegate.appState.v1"
	sessionKey = "delegate.session.v1"
)

func openKV(t *testing.T) (*sql.DB, *db.SQLUnitOfWork) {
	t.Helper()
	conn, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, db.NewSQLUnitOfWork(conn)
}

func putKV(ctx context.Context, tx db.DBTX, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO kv_store (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, []byte(value))
	return err
}

func getKV(t *testing.T, conn *sql.DB, key string) (string, bool) {
	t.Helper()
	var v []byte
	err := conn.QueryRow(`SELECT value FROM kv_store WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	require.NoError(t, err)
	return string(v), true
}

func TestWithinTx_CommitsStateAndMarkerTogether(t *testing.T) {
	conn, uow := openKV(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := putKV(ctx, tx, stateKey, `{"projects":[]}`); err != nil {
			return err
		}
		return putKV(ctx, tx, sessionKey, `{"userId":"USR_1"}`)
	})
	require.NoError(t, err)

	state, ok := getKV(t, conn, stateKey)
	require.True(t, ok)
	assert.Equal(t, `{"projects":[]}`, state)
	_, ok = getKV(t, conn, sessionKey)
	assert.True(t, ok)
}

func TestWithinTx_Rollback(t *testing.T) {
	boom := errors.New("marker write failed")

	tests := []struct {
		name  string
		fail  func() error
		panic bool
	}{
		{name: "error", fail: func() error { return boom }},
		{name: "panic", panic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, uow := openKV(t)
			ctx := context.Background()
			require.NoError(t, uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
				return putKV(ctx, tx, stateKey, "before")
			}))

			run := func() error {
				return uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
					if err := putKV(ctx, tx, stateKey, "after"); err != nil {
						return err
					}
					if tt.panic {
						panic("backend crashed")
					}
					return tt.fail()
				})
			}

			if tt.panic {
				assert.Panics(t, func() { _ = run() })
			} else {
				require.ErrorIs(t, run(), boom)
			}

			state, ok := getKV(t, conn, stateKey)
			require.True(t, ok)
			assert.Equal(t, "before", state, "the earlier committed value survives")
		})
	}
}
