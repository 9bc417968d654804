// Package store persists generated route results for audit and replay.
// Persistence is optional; the pipeline itself never depends on it.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldroute/routegen/route"
)

const schema = `
CREATE TABLE IF NOT EXISTS route_history (
	id          UUID PRIMARY KEY,
	user_id     INTEGER NOT NULL,
	url         TEXT NOT NULL,
	stop_count  INTEGER NOT NULL,
	provider    TEXT NOT NULL,
	shortened   BOOLEAN NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type Store struct {
	pool *pgxpool.Pool
}

// New connects to postgres and ensures the history table exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure route_history table: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// SaveResult records one finished run.
func (s *Store) SaveResult(ctx context.Context, runID uuid.UUID, userID int, res *route.Result) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO route_history (id, user_id, url, stop_count, provider, shortened)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, userID, res.URL, res.StopCount, res.Provider, res.Shortened,
	)
	if err != nil {
		return fmt.Errorf("insert route history: %w", err)
	}
	return nil
}

// LatestForUser returns the most recent result for one technician, or nil.
func (s *Store) LatestForUser(ctx context.Context, userID int) (*route.Result, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT url, stop_count, provider, shortened
		 FROM route_history WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT 1`, userID)

	var res route.Result
	if err := row.Scan(&res.URL, &res.StopCount, &res.Provider, &res.Shortened); err != nil {
		return nil, err
	}
	return &res, nil
}
