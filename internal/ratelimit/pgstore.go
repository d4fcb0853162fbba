package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists rate-limit windows in PostgreSQL. The row lock
// taken by Update makes the read-modify-write atomic across processes.
//
// Expected schema:
//
//	CREATE TABLE rate_limit_windows (
//	    key        text PRIMARY KEY,
//	    stamps     bigint[] NOT NULL,
//	    updated_at timestamptz NOT NULL
//	);
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PGStore on an existing connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Update applies fn to the window inside a transaction holding the
// row lock for key.
func (s *PGStore) Update(ctx context.Context, key string, fn UpdateFunc) ([]int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning rate limit tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var stamps []int64
	err = tx.QueryRow(ctx,
		`SELECT stamps FROM rate_limit_windows WHERE key = $1 FOR UPDATE`,
		key,
	).Scan(&stamps)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("querying rate limit window: %w", err)
	}

	newStamps, write := fn(stamps)
	if write {
		_, err = tx.Exec(ctx, `
			INSERT INTO rate_limit_windows (key, stamps, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET
				stamps = EXCLUDED.stamps,
				updated_at = NOW()
		`, key, newStamps)
		if err != nil {
			return nil, fmt.Errorf("writing rate limit window: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing rate limit tx: %w", err)
	}
	return newStamps, nil
}

// Get returns the stored window without locking.
func (s *PGStore) Get(ctx context.Context, key string) ([]int64, error) {
	var stamps []int64
	err := s.pool.QueryRow(ctx,
		`SELECT stamps FROM rate_limit_windows WHERE key = $1`,
		key,
	).Scan(&stamps)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying rate limit window: %w", err)
	}
	return stamps, nil
}

// StaleKeys returns keys not written for at least maxAge.
func (s *PGStore) StaleKeys(ctx context.Context, maxAge time.Duration) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM rate_limit_windows WHERE updated_at < $1`,
		time.Now().Add(-maxAge),
	)
	if err != nil {
		return nil, fmt.Errorf("querying stale rate limit keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning rate limit key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Delete removes a window.
func (s *PGStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM rate_limit_windows WHERE key = $1`, key); err != nil {
		return fmt.Errorf("deleting rate limit window: %w", err)
	}
	return nil
}
