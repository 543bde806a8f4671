package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WithTx runs fn inside a read committed transaction. An error from fn rolls
// the transaction back and is returned wrapped.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	if pool == nil {
		return errors.New("postgres pool is nil")
	}

	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	if err := pgx.BeginTxFunc(ctx, pool, opts, fn); err != nil {
		return fmt.Errorf("relay tx: %w", err)
	}
	return nil
}
