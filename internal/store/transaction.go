package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phrazzld/bizops-api/internal/platform/logger"
)

// TxFn is the body of a transaction. Returning an error rolls it back.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction runs fn in a new transaction on db and commits if fn
// succeeds. An error from fn is returned as is after rollback. A panic in fn
// rolls back and is re-raised.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) (err error) {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", "error", err)
		return fmt.Errorf("%w: begin: %w", ErrTransactionFailed, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		rbErr := tx.Rollback()
		if p := recover(); p != nil {
			log.Error("transaction rolled back after panic", "panic", p, "rollback_error", rbErr)
			panic(p)
		}
		if rbErr != nil {
			log.Error("failed to roll back transaction", "rollback_error", rbErr, "error", err)
			err = fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		log.Debug("rolling back transaction", "error", err)
		return err
	}

	if err = tx.Commit(); err != nil {
		committed = true // a failed commit has already ended the transaction
		log.Error("failed to commit transaction", "error", err)
		return fmt.Errorf("%w: commit: %w", ErrTransactionFailed, err)
	}
	committed = true
	return nil
}

// WithinTx runs fn in a transaction opened on db. When db is already a
// transaction, fn joins it and the caller keeps ownership of commit and rollback.
func WithinTx(ctx context.Context, db DBTX, fn TxFn) error {
	switch conn := db.(type) {
	case *sql.Tx:
		return fn(ctx, conn)
	case *sql.DB:
		return RunInTransaction(ctx, conn, fn)
	default:
		return fmt.Errorf("%w: %T cannot start a transaction", ErrTransactionFailed, db)
	}
}
