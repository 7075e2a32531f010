package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager is implemented by stores that write an identity and its
// provider links in one database transaction.
type TransactionManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Commit(ctx context.Context, tx pgx.Tx) error
	Rollback(ctx context.Context, tx pgx.Tx) error
}

// CounterPurger is implemented by rate-limit stores whose expired windows must
// be deleted explicitly. Stores that expire entries themselves omit it.
type CounterPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}
