package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type contextKey string

const (
	// TxKey is the context key for an in-flight transaction.
	TxKey contextKey = "tx"
)

// GetTx retrieves the transaction stored in context, if any.
func GetTx(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(TxKey).(pgx.Tx)
	return tx, ok
}

// SetTx stores a transaction in context.
func SetTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, TxKey, tx)
}

// Conn returns the transaction in ctx when one is active, otherwise the pool.
func (db *DB) Conn(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return tx
	}
	return db.Pool
}

// WithTx runs fn inside a transaction carried by the context passed to fn.
// Nested calls reuse the outer transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := GetTx(ctx); ok {
		return fn(ctx)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after Commit is a no-op.
		_ = tx.Rollback(context.Background())
	}()

	if err := fn(SetTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
