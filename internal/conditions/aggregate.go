package conditions

import "time"

// Aggregator turns settled provider outputs into a snapshot.
type Aggregator struct {
	registry *Registry
	observer Observer
}

// NewAggregator creates an Aggregator resolving names through registry.
func NewAggregator(registry *Registry, observer Observer) *Aggregator {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Aggregator{registry: registry, observer: observer}
}

// Aggregate resolves every record's name, replaces a record whose upstream
// name is unmapped with a placeholder for its provider, keeps the
// first record seen for each canonical name (in settle order), and counts.
// scrapedAt is the time the run began.
func (a *Aggregator) Aggregate(runID string, scrapedAt time.Time, settled []Settled) Snapshot {
	snapshot := Snapshot{
		Mountains: make([]Record, 0, len(settled)),
		ScrapedAt: scrapedAt.UTC(),
	}
	seen := make(map[string]struct{}, len(settled))

	for _, s := range settled {
		rec := s.Result.Record

		id, err := a.registry.Resolve(rec.Name)
		if err != nil {
			a.observer.NameUnmapped(Unmapped{RunID: runID, Provider: s.Provider, Name: rec.Name})
			// The provider keeps its slot as a placeholder under its
			// configured name. Only a configured name that does not
			// resolve either drops the record.
			if id, err = a.registry.Resolve(s.Name); err != nil {
				continue
			}
			rec = Degraded(s.Name, rec.UpdatedAt, rec.Source)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		rec.Name = id
		snapshot.Mountains = append(snapshot.Mountains, rec)
		if rec.OK() {
			snapshot.SuccessCount++
		}
	}

	snapshot.TotalCount = len(snapshot.Mountains)
	return snapshot
}
