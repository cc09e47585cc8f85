package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend keeps slots in a shared PostgreSQL table, for clients that
// sync their caches across machines.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend connects to dsn and creates the slots table.
func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	b := &PostgresBackend{pool: pool}
	if err := b.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

func (b *PostgresBackend) initSchema(ctx context.Context) error {
	const q = `CREATE TABLE IF NOT EXISTS client_slots (
		name TEXT PRIMARY KEY,
		blob BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := b.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Load(ctx context.Context, slot string) ([]byte, error) {
	var blob []byte
	err := b.pool.QueryRow(ctx, `SELECT blob FROM client_slots WHERE name = $1`, slot).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("query slot: %w", err)
	}
	return blob, nil
}

func (b *PostgresBackend) Save(ctx context.Context, slot string, blob []byte) error {
	_, err := b.pool.Exec(ctx,
		`INSERT INTO client_slots (name, blob, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET blob = $2, updated_at = now()`,
		slot, blob)
	if err != nil {
		return fmt.Errorf("upsert slot: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, slot string) error {
	if _, err := b.pool.Exec(ctx, `DELETE FROM client_slots WHERE name = $1`, slot); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
