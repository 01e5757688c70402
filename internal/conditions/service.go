package conditions

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Summary is the redacted per-mountain view returned by a trigger.
type Summary struct {
	Name      string   `json:"name"`
	Base      *float64 `json:"base"`
	NewSnow24 *float64 `json:"newSnow24"`
	OK        bool     `json:"ok"`
}

// TriggerResult is the structured outcome of one triggered run.
// Saved is false when persistence failed; the run itself still succeeded.
type TriggerResult struct {
	OK           bool      `json:"ok"`
	RunID        string    `json:"runId"`
	ScrapedAt    time.Time `json:"scrapedAt"`
	SuccessCount int       `json:"successCount"`
	TotalCount   int       `json:"totalCount"`
	Saved        bool      `json:"saved"`
	StorageError string    `json:"storageError,omitempty"`
	Published    *bool     `json:"published,omitempty"`
	Mountains    []Summary `json:"mountains"`
}

// Service orchestrates providers, aggregation and persistence.
type Service struct {
	orchestrator *Orchestrator
	aggregator   *Aggregator
	gateway      Gateway
	publisher    Publisher
	observer     Observer
	clock        clockwork.Clock
	providers    []Provider
	newRunID     func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used to stamp runs.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithObserver sets the event sink for adapter outcomes and run reports.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithPublisher forwards every persisted snapshot to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRunID overrides the run id generator.
func WithRunID(gen func() string) Option {
	return func(s *Service) { s.newRunID = gen }
}

// NewService creates a new Service.
func NewService(gateway Gateway, providers []Provider, registry *Registry, opts ...Option) *Service {
	s := &Service{
		gateway:   gateway,
		providers: providers,
		observer:  NopObserver{},
		clock:     clockwork.NewRealClock(),
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.orchestrator = NewOrchestrator(providers, s.observer, s.clock)
	s.aggregator = NewAggregator(registry, s.observer)
	return s
}

// ProviderIDs lists the registered providers in registration order.
func (s *Service) ProviderIDs() []string {
	ids := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		ids = append(ids, p.ID())
	}
	return ids
}

// Run executes the pipeline once without persisting. A panic outside the
// providers is returned as a *RunError.
func (s *Service) Run(ctx context.Context) (Snapshot, error) {
	return s.run(ctx, s.newRunID())
}

func (s *Service) run(ctx context.Context, runID string) (snapshot Snapshot, err error) {
	stage := "fan-out"
	defer func() {
		if r := recover(); r != nil {
			err = &RunError{Stage: stage, Cause: r, Stack: debug.Stack()}
		}
	}()

	scrapedAt := s.clock.Now()
	settled := s.orchestrator.Run(ctx, runID)

	stage = "aggregate"
	return s.aggregator.Aggregate(runID, scrapedAt, settled), nil
}

// Trigger runs the pipeline once and hands the snapshot to the gateway.
// A storage failure is reported in the result, not as an error.
func (s *Service) Trigger(ctx context.Context) (TriggerResult, error) {
	runID := s.newRunID()
	start := s.clock.Now()

	snapshot, err := s.run(ctx, runID)
	if err != nil {
		s.observer.RunCompleted(RunReport{RunID: runID, ScrapedAt: start, Duration: s.clock.Since(start), Err: err})
		return TriggerResult{OK: false, RunID: runID}, err
	}

	result := TriggerResult{
		OK:           true,
		RunID:        runID,
		ScrapedAt:    snapshot.ScrapedAt,
		SuccessCount: snapshot.SuccessCount,
		TotalCount:   snapshot.TotalCount,
		Mountains:    summarize(snapshot.Mountains),
	}

	var publishErr error
	stored, storageErr := s.gateway.Put(ctx, snapshot)
	if storageErr != nil {
		result.StorageError = storageErr.Error()
	} else {
		result.Saved = true
		if s.publisher != nil {
			publishErr = s.publisher.Publish(ctx, stored)
			published := publishErr == nil
			result.Published = &published
		}
	}

	s.observer.RunCompleted(RunReport{
		RunID:        runID,
		ScrapedAt:    snapshot.ScrapedAt,
		Duration:     s.clock.Since(start),
		SuccessCount: snapshot.SuccessCount,
		TotalCount:   snapshot.TotalCount,
		Saved:        result.Saved,
		StorageErr:   storageErr,
		PublishErr:   publishErr,
	})
	return result, nil
}

// Latest returns the last persisted snapshot.
func (s *Service) Latest(ctx context.Context) (Snapshot, error) {
	return s.gateway.Get(ctx)
}

// IsRunError reports whether err is a run-level pipeline failure.
func IsRunError(err error) bool {
	var re *RunError
	return errors.As(err, &re)
}

func summarize(records []Record) []Summary {
	out := make([]Summary, 0, len(records))
	for _, r := range records {
		out = append(out, Summary{
			Name:      r.Name,
			Base:      r.Base,
			NewSnow24: r.NewSnow24,
			OK:        r.OK(),
		})
	}
	return out
}
