package service

import (
	"context"
	"database/sql"
	"time"

	dErrors "shelterhub/pkg/domain-errors"
	"shelterhub/pkg/platform/tx"
)

// PostgresTx runs each unit of work in one SQL transaction. The stores join
// it through the transaction carried in ctx, so they must use tx.Exec.
type PostgresTx struct {
	db      *sql.DB
	stores  Stores
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB, stores Stores) *PostgresTx {
	return &PostgresTx{db: db, stores: stores}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
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

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx), t.stores); err != nil {
		return err
	}
	return sqlTx.Commit()
}
