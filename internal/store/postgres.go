package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ski_snapshots (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	stored_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
)`

// pgConn is the subset of *pgxpool.Pool the backend uses.
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend is the networked key-value backend.
type PostgresBackend struct {
	conn  pgConn
	close func()
}

// OpenPostgres connects to databaseURL and ensures the table exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	b, err := newPostgresBackend(ctx, pool, pool.Close)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

func newPostgresBackend(ctx context.Context, conn pgConn, closeFn func()) (*PostgresBackend, error) {
	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("postgres: schema: %w", err)
	}
	return &PostgresBackend{conn: conn, close: closeFn}, nil
}

func (p *PostgresBackend) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := p.conn.QueryRow(ctx,
		`SELECT value FROM ski_snapshots WHERE key = $1 AND expires_at > now()`,
		snapshotKey,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: postgres: load: %v", ErrStorage, err)
	}
	return data, nil
}

func (p *PostgresBackend) Save(ctx context.Context, data []byte, expiresAt time.Time) error {
	_, err := p.conn.Exec(ctx, `
		INSERT INTO ski_snapshots (key, value, stored_at, expires_at)
		VALUES ($1, $2, now(), $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			stored_at = EXCLUDED.stored_at,
			expires_at = EXCLUDED.expires_at`,
		snapshotKey, data, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("%w: postgres: save: %v", ErrStorage, err)
	}
	return nil
}

func (p *PostgresBackend) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}
