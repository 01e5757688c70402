package conditions

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Settled is one provider's terminal output as seen by the orchestrator.
type Settled struct {
	Provider string
	Name     string // the provider's configured display name
	Result   Result
	Duration time.Duration
}

// Orchestrator runs every provider concurrently and waits for all of them.
type Orchestrator struct {
	providers []Provider
	observer  Observer
	clock     clockwork.Clock
}

// NewOrchestrator creates an Orchestrator over a fixed provider set.
func NewOrchestrator(providers []Provider, observer Observer, clock clockwork.Clock) *Orchestrator {
	if observer == nil {
		observer = NopObserver{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Orchestrator{providers: providers, observer: observer, clock: clock}
}

// Run launches every provider at once and returns their outputs in settle
// order. No provider's failure cancels or delays another; a provider that
// panics yields a degraded record for its id. Outcomes are reported from the
// calling goroutine, so an observer that panics fails the run, not the process.
func (o *Orchestrator) Run(ctx context.Context, runID string) []Settled {
	results := make(chan Settled, len(o.providers))

	for _, p := range o.providers {
		if rs, ok := p.(RunScoped); ok {
			rs.BeginRun()
		}
	}
	for _, p := range o.providers {
		go func(p Provider) {
			start := o.clock.Now()
			s := o.fetch(ctx, p)
			s.Duration = o.clock.Since(start)
			results <- s
		}(p)
	}

	settled := make([]Settled, 0, len(o.providers))
	for range o.providers {
		s := <-results
		settled = append(settled, s)
		o.observer.AdapterSettled(Outcome{
			RunID:    runID,
			Provider: s.Provider,
			Class:    s.Result.Class,
			Source:   s.Result.Record.Source,
			Duration: s.Duration,
			Err:      s.Result.Err,
		})
	}
	return settled
}

func (o *Orchestrator) fetch(ctx context.Context, p Provider) (s Settled) {
	s.Provider = p.ID()
	s.Name = p.Name()
	defer func() {
		if r := recover(); r != nil {
			s.Result = Result{
				Record: Degraded(p.Name(), o.clock.Now(), p.ID()),
				Class:  ClassPanic,
				Err:    fmt.Errorf("provider %s panicked: %v", p.ID(), r),
			}
		}
	}()
	s.Result = p.Fetch(ctx)
	if s.Result.Class == "" {
		s.Result.Class = Classify(s.Result.Err)
	}
	return s
}
