package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/alexanderramin/delegate/internal/db"
	"github.com/alexanderramin/delegate/internal/persist"
)

// FailOnNthExecUoW runs each transaction normally except that the Nth
// ExecContext inside it returns Err. Counting starts at 1 per transaction;
// reads are not counted. It lets tests prove a multi-key batch rolls back.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	wrapped := &failOnNthExec{DBTX: tx, failOn: u.FailOn, err: u.Err}
	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type failOnNthExec struct {
	db.DBTX
	count  atomic.Int32
	failOn int32
	err    error
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.count.Add(1) == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}

// FailingBackend wraps a MemoryBackend and fails every Put while Fail is
// set. It counts the Puts it saw either way.
type FailingBackend struct {
	*persist.MemoryBackend

	mu   sync.Mutex
	fail error
	puts int
}

func NewFailingBackend() *FailingBackend {
	return &FailingBackend{MemoryBackend: persist.NewMemoryBackend()}
}

// FailWith makes later Puts return err; nil restores normal writes.
func (b *FailingBackend) FailWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = err
}

func (b *FailingBackend) Puts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.puts
}

func (b *FailingBackend) Put(ctx context.Context, key string, value []byte) error {
	b.mu.Lock()
	b.puts++
	err := b.fail
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.MemoryBackend.Put(ctx, key, value)
}

func (b *FailingBackend) Batch(ctx context.Context, puts map[string][]byte, deletes []string) error {
	b.mu.Lock()
	b.puts += len(puts)
	err := b.fail
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.MemoryBackend.Batch(ctx, puts, deletes)
}
