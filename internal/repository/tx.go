// Package repository implements the MySQL persistence layer. All
// repositories share one Store so that a transaction opened by the
// service layer spans seat and booking writes alike; the open *sql.Tx
// travels in the context and nested WithTx calls join it.
package repository

import (
	"context"
	"database/sql"
	"strings"
)

type txKey struct{}

// Store wraps the database handle and provides transaction scoping for
// the repositories built on top of it.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a transaction. If the context already carries a
// transaction, fn joins it and commit/rollback stays with the outermost
// caller. Any error from fn rolls the transaction back.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// querier is the subset of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction carried by ctx, or the bare handle when
// the caller did not open one.
func (s *Store) conn(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}

// placeholders renders n comma-separated "?" marks for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
