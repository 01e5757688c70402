package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

var (
	// ErrNotFound is returned when no snapshot has been stored or the stored one expired.
	ErrNotFound = errors.New("no snapshot stored")

	// ErrStorage wraps every backend read or write failure.
	ErrStorage = errors.New("storage error")
)

// DefaultTTL is how long a stored snapshot stays readable.
const DefaultTTL = 36 * time.Hour

// snapshotKey is the single key every key-value backend writes under.
const snapshotKey = "ski-conditions:latest"

// Backend persists one opaque snapshot blob. Load returns ErrNotFound when
// nothing is stored.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte, expiresAt time.Time) error
	Close() error
}

// Gateway implements conditions.Gateway over a Backend. It attaches storedAt
// and the expiry horizon on write and hides expired snapshots on read.
type Gateway struct {
	backend Backend
	clock   clockwork.Clock
	ttl     time.Duration
}

var _ conditions.Gateway = (*Gateway)(nil)

// NewGateway wraps backend. A non-positive ttl means DefaultTTL.
func NewGateway(backend Backend, ttl time.Duration, clock clockwork.Clock) *Gateway {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Gateway{backend: backend, clock: clock, ttl: ttl}
}

// Put replaces the stored snapshot and returns it as stored.
func (g *Gateway) Put(ctx context.Context, snapshot conditions.Snapshot) (conditions.Snapshot, error) {
	storedAt := g.clock.Now().UTC()
	expiresAt := storedAt.Add(g.ttl)
	snapshot.StoredAt = &storedAt
	snapshot.ExpiresAt = &expiresAt

	data, err := json.Marshal(snapshot)
	if err != nil {
		return conditions.Snapshot{}, fmt.Errorf("%w: encode snapshot: %v", ErrStorage, err)
	}
	if err := g.backend.Save(ctx, data, expiresAt); err != nil {
		if errors.Is(err, ErrStorage) {
			return conditions.Snapshot{}, err
		}
		return conditions.Snapshot{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return snapshot, nil
}

// Get returns the stored snapshot, or ErrNotFound.
func (g *Gateway) Get(ctx context.Context) (conditions.Snapshot, error) {
	data, err := g.backend.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorage) {
			return conditions.Snapshot{}, err
		}
		return conditions.Snapshot{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	var snapshot conditions.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return conditions.Snapshot{}, fmt.Errorf("%w: decode snapshot: %v", ErrStorage, err)
	}
	if snapshot.ExpiresAt != nil && !g.clock.Now().Before(*snapshot.ExpiresAt) {
		return conditions.Snapshot{}, ErrNotFound
	}
	return snapshot, nil
}

// Close releases the backend.
func (g *Gateway) Close() error {
	return g.backend.Close()
}
