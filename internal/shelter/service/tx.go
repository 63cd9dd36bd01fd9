package service

import (
	"context"
	"sync"
	"time"

	dErrors "shelterhub/pkg/domain-errors"
)

// TxRunner runs fn as one unit of work. Every store reached through the
// Stores passed to fn commits or rolls back together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

// Snapshotter is implemented by in-memory stores so a failed unit of work
// can be undone.
type Snapshotter interface {
	Snapshot() (restore func())
}

// defaultTxTimeout is the maximum duration for a registry transaction.
const defaultTxTimeout = 5 * time.Second

// MemoryTx serialises writers behind one lock and restores store snapshots
// when fn fails. Readers bypass the lock and may observe uncommitted state.
type MemoryTx struct {
	mu      sync.Mutex
	stores  Stores
	timeout time.Duration
}

func NewMemoryTx(stores Stores) *MemoryTx {
	return &MemoryTx{stores: stores}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	restore := t.snapshot()
	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
		if err != nil {
			restore()
		}
	}()

	return fn(ctx, t.stores)
}

func (t *MemoryTx) snapshot() func() {
	var restores []func()
	for _, store := range []any{t.stores.Shelters, t.stores.Links, t.stores.Audit, t.stores.Blobs} {
		if s, ok := store.(Snapshotter); ok {
			restores = append(restores, s.Snapshot())
		}
	}
	return func() {
		for _, restore := range restores {
			restore()
		}
	}
}
