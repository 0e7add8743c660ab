package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/tourcart/internal/port"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type cartRepository struct {
	q querier
}

func NewCart(pool *pgxpool.Pool) (port.CartStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	return &cartRepository{q: pool}, nil
}

// NewCartWithTx binds the store to a caller-owned transaction.
func NewCartWithTx(tx pgx.Tx) port.CartStore {
	return &cartRepository{q: tx}
}

const getSnapshotSQL = `SELECT payload FROM cart_snapshots WHERE namespace = $1`

const upsertSnapshotSQL = `
INSERT INTO cart_snapshots (namespace, payload)
VALUES ($1, $2)
ON CONFLICT (namespace) DO UPDATE
SET payload    = EXCLUDED.payload,
    revision   = cart_snapshots.revision + 1,
    updated_at = now()`

func (r *cartRepository) Get(ctx context.Context, namespace string) ([]byte, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace is empty")
	}

	var payload []byte
	err := r.q.QueryRow(ctx, getSnapshotSQL, namespace).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("q.QueryRow: %w", err)
	}

	return payload, nil
}

func (r *cartRepository) Set(ctx context.Context, namespace string, payload []byte) error {
	if namespace == "" {
		return fmt.Errorf("namespace is empty")
	}

	if _, err := r.q.Exec(ctx, upsertSnapshotSQL, namespace, payload); err != nil {
		return fmt.Errorf("q.Exec: %w", err)
	}

	return nil
}
