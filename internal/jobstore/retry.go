package jobstore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"gitlab.com/tozd/go/errors"
)

const maxRetries = 10

var ErrMaxRetriesReached = errors.Base("max retries reached")

// retryTransaction runs fn inside a Serializable transaction, retrying on
// serialization failures and deadlocks the way the teacher's
// RetryTransaction does. The dispatcher is a standalone batch process with
// no request-scoped metrics and no nested-transaction call sites, so the
// waf.GetMetrics retry counter and the dbTx/transactionContextKey nesting
// machinery are dropped; see DESIGN.md.
func retryTransaction(ctx context.Context, dbpool *pgxpool.Pool, fn func(ctx context.Context, tx pgx.Tx) errors.E) errors.E {
	for i := 0; i < maxRetries; i++ {
		if ctx.Err() != nil {
			return errors.WithStack(ctx.Err())
		}

		errE := runOnce(ctx, dbpool, fn)
		if errE == nil {
			return nil
		}

		if errors.Is(errE, context.Canceled) || errors.Is(errE, context.DeadlineExceeded) {
			return errE
		}
		var pgError *pgconn.PgError
		if errors.As(errE, &pgError) {
			switch pgError.Code {
			case ErrorCodeSerializationFailure, ErrorCodeDeadlockDetected:
				continue
			}
		}
		return errE
	}

	return errors.WithStack(ErrMaxRetriesReached)
}

func runOnce(ctx context.Context, dbpool *pgxpool.Pool, fn func(ctx context.Context, tx pgx.Tx) errors.E) (errE errors.E) { //nolint:nonamedreturns
	tx, err := dbpool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:       pgx.Serializable,
		AccessMode:     pgx.ReadWrite,
		DeferrableMode: pgx.NotDeferrable,
	})
	if err != nil {
		return withPgxError(err)
	}
	defer func() {
		err := tx.Rollback(ctx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			errE = errors.Join(errE, err)
		}
	}()

	errE = fn(ctx, tx)
	if errE != nil {
		return errE
	}

	err = tx.Commit(ctx)
	if err != nil && (errors.Is(err, pgx.ErrTxClosed) || errors.Is(err, pgx.ErrTxCommitRollback)) {
		return nil
	}
	return withPgxError(err)
}
