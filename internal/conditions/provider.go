package conditions

import (
	"context"
	"time"
)

// Result is a provider's terminal output. Record is always usable; Class and
// Err only describe what happened on the way.
type Result struct {
	Record Record
	Class  Classification
	Err    error
}

// Provider abstracts one upstream source for a single ski area
// (a resort JSON endpoint, a markup page, or an aggregator feed entry).
// Name is the display name the provider's records carry when the upstream
// supplies none. Fetch must not block past its own timeout and always
// returns a record.
type Provider interface {
	ID() string
	Name() string
	Fetch(ctx context.Context) Result
}

// RunScoped is implemented by providers that keep per-run state. BeginRun is
// called on every such provider before a run's fetches start.
type RunScoped interface {
	BeginRun()
}

// Gateway is the contract the persistence layer must satisfy.
// Get returns an error wrapping store.ErrNotFound when nothing usable is stored.
type Gateway interface {
	Get(ctx context.Context) (Snapshot, error)
	Put(ctx context.Context, snapshot Snapshot) (Snapshot, error)
}

// Publisher forwards a persisted snapshot to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, snapshot Snapshot) error
}

// Outcome is emitted once per provider when it settles.
type Outcome struct {
	RunID    string
	Provider string
	Class    Classification
	Source   string
	Duration time.Duration
	Err      error
}

// Unmapped is emitted when a record's name has no registered variant.
type Unmapped struct {
	RunID    string
	Provider string
	Name     string
}

// RunReport summarizes a finished trigger.
type RunReport struct {
	RunID        string
	ScrapedAt    time.Time
	Duration     time.Duration
	SuccessCount int
	TotalCount   int
	Saved        bool
	StorageErr   error
	PublishErr   error
	Err          error
}

// Observer receives pipeline events. Implementations must be safe for
// concurrent use.
type Observer interface {
	AdapterSettled(Outcome)
	NameUnmapped(Unmapped)
	RunCompleted(RunReport)
}

// Observers fans every event out to each member.
type Observers []Observer

func (o Observers) AdapterSettled(e Outcome) {
	for _, obs := range o {
		obs.AdapterSettled(e)
	}
}

func (o Observers) NameUnmapped(e Unmapped) {
	for _, obs := range o {
		obs.NameUnmapped(e)
	}
}

func (o Observers) RunCompleted(e RunReport) {
	for _, obs := range o {
		obs.RunCompleted(e)
	}
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) AdapterSettled(Outcome) {}
func (NopObserver) NameUnmapped(Unmapped)  {}
func (NopObserver) RunCompleted(RunReport) {}
