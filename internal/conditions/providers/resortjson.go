package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

// ResortJSONAliases lists, per field, the key spellings a resort's own JSON
// endpoint may use. The first present, non-empty key wins.
var ResortJSONAliases = map[conditions.Field][]string{
	conditions.FieldName:        {"name", "resort_name", "resortName"},
	conditions.FieldBase:        {"base_depth", "baseDepth"},
	conditions.FieldSummit:      {"summit_depth", "summitDepth"},
	conditions.FieldNewSnow24:   {"new_snow_24", "newSnow24", "new_snow_24h", "snow24h"},
	conditions.FieldNewSnow48:   {"new_snow_48", "newSnow48", "new_snow_48h", "snow48h"},
	conditions.FieldNewSnow7d:   {"new_snow_7d", "newSnow7d", "new_snow_7_day", "snow7d"},
	conditions.FieldSeason:      {"season_total", "seasonTotal"},
	conditions.FieldTrailsOpen:  {"trails_open", "trailsOpen", "open_trails", "openTrails"},
	conditions.FieldTrailsTotal: {"trails_total", "trailsTotal", "total_trails", "totalTrails"},
	conditions.FieldLiftsOpen:   {"lifts_open", "liftsOpen", "open_lifts", "openLifts"},
	conditions.FieldLiftsTotal:  {"lifts_total", "liftsTotal", "total_lifts", "totalLifts"},
	conditions.FieldSurface:     {"surface", "surface_conditions", "surfaceConditions", "primary_surface", "primarySurface"},
	conditions.FieldStatus:      {"status", "operating_status", "operatingStatus"},
	conditions.FieldStatusCode:  {"status_code", "statusCode"},
}

// ResortJSONProvider reads a resort's own JSON conditions endpoint.
type ResortJSONProvider struct {
	base
	root      []string
	threshold int
}

// ResortJSONConfig describes one resort JSON endpoint.
type ResortJSONConfig struct {
	ID       string
	Name     string
	URL      string
	Fallback string
	Unit     conditions.Unit
	// Root is a dot path to the object holding the fields, e.g. "data.report".
	Root string
	// StatusThreshold overrides conditions.DefaultOpenThreshold.
	StatusThreshold *int
}

func NewResortJSONProvider(cfg ResortJSONConfig, opts Options) *ResortJSONProvider {
	opts.defaults()

	unit := cfg.Unit
	if unit == "" {
		unit = conditions.UnitInches
	}
	threshold := conditions.DefaultOpenThreshold
	if cfg.StatusThreshold != nil {
		threshold = *cfg.StatusThreshold
	}
	var root []string
	if cfg.Root != "" {
		root = strings.Split(cfg.Root, ".")
	}

	return &ResortJSONProvider{
		base: base{
			id:      cfg.ID,
			name:    cfg.Name,
			unit:    unit,
			fetcher: newFetcher(opts, "application/json", cfg.URL, cfg.Fallback),
			clock:   opts.Clock,
		},
		root:      root,
		threshold: threshold,
	}
}

func (p *ResortJSONProvider) Fetch(ctx context.Context) conditions.Result {
	return p.run(ctx, p.extract)
}

func (p *ResortJSONProvider) extract(body []byte) (conditions.Partial, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return conditions.Partial{}, fmt.Errorf("%w: resort json: %v", conditions.ErrParse, err)
	}

	node := doc
	for _, key := range p.root {
		obj, ok := node.(map[string]any)
		if !ok {
			return conditions.Partial{}, fmt.Errorf("%w: resort json: %q is not an object", conditions.ErrParse, key)
		}
		node = obj[key]
	}
	fields, ok := node.(map[string]any)
	if !ok {
		return conditions.Partial{}, fmt.Errorf("%w: resort json: expected an object", conditions.ErrParse)
	}

	return extractFields(fields, p.threshold), nil
}

func extractFields(fields map[string]any, threshold int) conditions.Partial {
	get := func(f conditions.Field) string {
		v, _ := conditions.FirstPresent(fields, ResortJSONAliases[f]...)
		return v
	}

	status := conditions.StatusFromText(get(conditions.FieldStatus))
	if code := conditions.ParseCount(get(conditions.FieldStatusCode)); code != nil {
		status = conditions.StatusFromCode(*code, threshold)
	}

	return conditions.Partial{
		Name:        get(conditions.FieldName),
		Base:        conditions.ParseDepth(get(conditions.FieldBase)),
		Summit:      conditions.ParseDepth(get(conditions.FieldSummit)),
		NewSnow24:   conditions.ParseDepth(get(conditions.FieldNewSnow24)),
		NewSnow48:   conditions.ParseDepth(get(conditions.FieldNewSnow48)),
		NewSnow7d:   conditions.ParseDepth(get(conditions.FieldNewSnow7d)),
		Season:      conditions.ParseDepth(get(conditions.FieldSeason)),
		TrailsOpen:  conditions.ParseCount(get(conditions.FieldTrailsOpen)),
		TrailsTotal: conditions.ParseCount(get(conditions.FieldTrailsTotal)),
		LiftsOpen:   conditions.ParseCount(get(conditions.FieldLiftsOpen)),
		LiftsTotal:  conditions.ParseCount(get(conditions.FieldLiftsTotal)),
		Surface:     conditions.CleanSurface(get(conditions.FieldSurface)),
		Status:      status,
	}
}
