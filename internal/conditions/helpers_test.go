package conditions

import (
	"context"
	"errors"
	"sync"
	"time"
)

var fixedTime = time.Date(2026, 1, 15, 7, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// stubProvider returns a fixed result, optionally after a barrier or by panicking.
type stubProvider struct {
	id     string
	name   string
	result Result
	panics bool
	wait   func()
}

func (p *stubProvider) ID() string   { return p.id }
func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Fetch(context.Context) Result {
	if p.wait != nil {
		p.wait()
	}
	if p.panics {
		panic("boom")
	}
	return p.result
}

func okProvider(id, name string, base float64) *stubProvider {
	return &stubProvider{
		id:   id,
		name: name,
		result: Result{
			Record: Partial{Name: name, Base: ptr(base), NewSnow24: ptr(2.0)}.Record(fixedTime, "https://"+id+".test"),
			Class:  ClassOK,
		},
	}
}

func failedProvider(id, name string, class Classification) *stubProvider {
	return &stubProvider{
		id:   id,
		name: name,
		result: Result{
			Record: Degraded(name, fixedTime, "https://"+id+".test"),
			Class:  class,
			Err:    errors.New("upstream failed"),
		},
	}
}

type memoryGateway struct {
	mu       sync.Mutex
	snapshot *Snapshot
	putErr   error
	puts     int
}

func (g *memoryGateway) Get(context.Context) (Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.snapshot == nil {
		return Snapshot{}, errors.New("not found")
	}
	return *g.snapshot, nil
}

func (g *memoryGateway) Put(_ context.Context, s Snapshot) (Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.puts++
	if g.putErr != nil {
		return Snapshot{}, g.putErr
	}
	g.snapshot = &s
	return s, nil
}

type recordingPublisher struct {
	published []Snapshot
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, s Snapshot) error {
	p.published = append(p.published, s)
	return p.err
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []Outcome
	unmapped []Unmapped
	reports  []RunReport
}

func (o *recordingObserver) AdapterSettled(e Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, e)
}

func (o *recordingObserver) NameUnmapped(e Unmapped) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unmapped = append(o.unmapped, e)
}

func (o *recordingObserver) RunCompleted(r RunReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reports = append(o.reports, r)
}

// panickingObserver fails on every adapter outcome and records the rest.
type panickingObserver struct {
	recordingObserver
}

func (o *panickingObserver) AdapterSettled(Outcome) {
	panic("observer failed")
}
