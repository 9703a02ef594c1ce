package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
// Repositories only talk to this interface so the same method works
// inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxFunc is executed with a context that carries the open transaction.
type TxFunc func(ctx context.Context) error

// Transactor runs a unit of work atomically.
type Transactor interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

type txKey struct{}

type hooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

// Conn returns the transaction stored in ctx, or the pool when there is none.
func Conn(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return pool
}

// TxFromContext extracts the transaction opened by WithinTx.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// ContextWithTx stores tx in ctx.
func ContextWithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// PgxTransactor opens transactions on a pgx pool.
type PgxTransactor struct {
	pool *pgxpool.Pool
}

func NewTransactor(pool *pgxpool.Pool) *PgxTransactor {
	return &PgxTransactor{pool: pool}
}

// WithinTx begins a transaction, runs fn and commits.
// A call made while a transaction is already open joins it instead of nesting.
// Rollback happens on error or panic; the panic is re-thrown.
func (t *PgxTransactor) WithinTx(ctx context.Context, fn TxFunc) (err error) {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	scoped, flush := CommitScope(ctx)
	if err = fn(ContextWithTx(scoped, tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	flush(ctx)
	return nil
}

// AfterCommit defers fn until the unit of work carried by ctx commits.
// Outside a unit of work fn runs immediately. A rolled back unit drops it.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	h, ok := ctx.Value(hooksKey{}).(*commitHooks)
	if !ok {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

// CommitScope opens a hook list for a unit of work. flush runs the
// collected hooks and must only be called after a successful commit.
// A nested scope joins the outer one and its flush does nothing.
func CommitScope(ctx context.Context) (context.Context, func(ctx context.Context)) {
	if _, ok := ctx.Value(hooksKey{}).(*commitHooks); ok {
		return ctx, func(context.Context) {}
	}
	h := &commitHooks{}
	flush := func(ctx context.Context) {
		h.mu.Lock()
		fns := h.fns
		h.fns = nil
		h.mu.Unlock()
		for _, fn := range fns {
			fn(ctx)
		}
	}
	return context.WithValue(ctx, hooksKey{}, h), flush
}

// WithinTxResult is WithinTx for functions that produce a value.
func WithinTxResult[T any](ctx context.Context, t Transactor, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := t.WithinTx(ctx, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
