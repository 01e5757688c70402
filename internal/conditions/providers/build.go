package providers

import (
	"fmt"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
	"github.com/i474232898/ski-conditions-aggregation/internal/roster"
)

// Build creates one adapter per roster entry, in roster order.
func Build(entries []roster.Entry, opts Options) ([]conditions.Provider, error) {
	opts.defaults()

	out := make([]conditions.Provider, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case roster.KindSnoCountry:
			out = append(out, NewSnoCountryProvider(SnoCountryConfig{
				ID:       e.ID,
				Name:     e.Name,
				ResortID: e.ResortID,
				BaseURL:  e.URL,
				Fallback: e.Fallback,
			}, opts))
		case roster.KindJSON:
			out = append(out, NewResortJSONProvider(ResortJSONConfig{
				ID:              e.ID,
				Name:            e.Name,
				URL:             e.URL,
				Fallback:        e.Fallback,
				Unit:            e.Unit,
				Root:            e.Root,
				StatusThreshold: e.StatusThreshold,
			}, opts))
		case roster.KindHTML:
			out = append(out, NewResortHTMLProvider(ResortHTMLConfig{
				ID:        e.ID,
				Name:      e.Name,
				URL:       e.URL,
				Fallback:  e.Fallback,
				Unit:      e.Unit,
				Selectors: e.FieldSelectors(),
			}, opts))
		default:
			return nil, fmt.Errorf("provider %s: unknown kind %q", e.ID, e.Kind)
		}
	}
	return out, nil
}
