package store

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/ski-conditions-aggregation/internal/config"
)

// Open builds the gateway for the backend chosen at startup.
func Open(ctx context.Context, cfg *config.AppConfig, clock clockwork.Clock) (*Gateway, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.Backend {
	case config.BackendMemory:
		backend = NewMemoryBackend()
	case config.BackendFile:
		backend = NewFileBackend(cfg.SnapshotFile)
	case config.BackendSQLite:
		backend, err = OpenSQLite(ctx, cfg.SQLitePath)
	case config.BackendPostgres:
		backend, err = OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewGateway(backend, cfg.SnapshotTTL, clock), nil
}
