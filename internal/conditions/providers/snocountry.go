package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

// SnoCountryBaseURL is the aggregator feed covering every roster resort.
const SnoCountryBaseURL = "https://feeds.snocountry.net/conditions.php"

// SnoCountryProvider reads one resort's entry from the SnoCountry feed.
// The feed reports depths in inches.
type SnoCountryProvider struct {
	base
	resortID string
}

// SnoCountryConfig describes one resort in the feed.
type SnoCountryConfig struct {
	ID       string
	Name     string
	ResortID string
	BaseURL  string // SnoCountryBaseURL when empty
	Fallback string // optional full URL of a second feed mirror
}

func NewSnoCountryProvider(cfg SnoCountryConfig, opts Options) *SnoCountryProvider {
	opts.defaults()

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = SnoCountryBaseURL
	}
	values := url.Values{}
	values.Set("apiKey", opts.APIKey)
	values.Set("ids", cfg.ResortID)

	return &SnoCountryProvider{
		base: base{
			id:      cfg.ID,
			name:    cfg.Name,
			unit:    conditions.UnitInches,
			fetcher: newFetcher(opts, "application/json", fmt.Sprintf("%s?%s", baseURL, values.Encode()), cfg.Fallback),
			clock:   opts.Clock,
		},
		resortID: cfg.ResortID,
	}
}

func (p *SnoCountryProvider) Fetch(ctx context.Context) conditions.Result {
	return p.run(ctx, p.extract)
}

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type snoCountryItem struct {
	ID                      flexString `json:"id"`
	ResortName              string     `json:"resortName"`
	OperatingStatus         string     `json:"operatingStatus"`
	ResortStatus            flexString `json:"resortStatus"`
	AvgBaseDepthMax         flexString `json:"avgBaseDepthMax"`
	AvgBaseDepthMin         flexString `json:"avgBaseDepthMin"`
	MaxBaseDepth            flexString `json:"maxBaseDepth"`
	NewSnowMax              flexString `json:"newSnowMax"`
	SnowLast48Hours         flexString `json:"snowLast48Hours"`
	SnowLast7Days           flexString `json:"snowLast7Days"`
	SeasonTotal             flexString `json:"seasonTotal"`
	OpenDownHillTrails      flexString `json:"openDownHillTrails"`
	MaxOpenDownHillTrails   flexString `json:"maxOpenDownHillTrails"`
	OpenDownHillLifts       flexString `json:"openDownHillLifts"`
	MaxOpenDownHillLifts    flexString `json:"maxOpenDownHillLifts"`
	PrimarySurfaceCondition string     `json:"primarySurfaceCondition"`
}

func (p *SnoCountryProvider) extract(body []byte) (conditions.Partial, error) {
	var payload struct {
		Items []snoCountryItem `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return conditions.Partial{}, fmt.Errorf("%w: snocountry payload: %v", conditions.ErrParse, err)
	}
	if len(payload.Items) == 0 {
		return conditions.Partial{}, fmt.Errorf("%w: snocountry payload has no items", conditions.ErrParse)
	}

	item, ok := p.find(payload.Items)
	if !ok {
		return conditions.Partial{}, fmt.Errorf("%w: no item for resort %s", conditions.ErrParse, p.resortID)
	}

	base := string(item.AvgBaseDepthMax)
	if base == "" {
		base = string(item.MaxBaseDepth)
	}
	if base == "" {
		base = string(item.AvgBaseDepthMin)
	}

	status := conditions.StatusFromText(item.OperatingStatus)
	if status == "" && item.ResortStatus != "" {
		if code := conditions.ParseCount(string(item.ResortStatus)); code != nil {
			status = conditions.StatusFromCode(*code, conditions.DefaultOpenThreshold)
		}
	}

	return conditions.Partial{
		Name:        item.ResortName,
		Base:        conditions.ParseDepth(base),
		NewSnow24:   conditions.ParseDepth(string(item.NewSnowMax)),
		NewSnow48:   conditions.ParseDepth(string(item.SnowLast48Hours)),
		NewSnow7d:   conditions.ParseDepth(string(item.SnowLast7Days)),
		Season:      conditions.ParseDepth(string(item.SeasonTotal)),
		TrailsOpen:  conditions.ParseCount(string(item.OpenDownHillTrails)),
		TrailsTotal: conditions.ParseCount(string(item.MaxOpenDownHillTrails)),
		LiftsOpen:   conditions.ParseCount(string(item.OpenDownHillLifts)),
		LiftsTotal:  conditions.ParseCount(string(item.MaxOpenDownHillLifts)),
		Surface:     conditions.CleanSurface(item.PrimarySurfaceCondition),
		Status:      status,
	}, nil
}

// find returns the item carrying the configured resort id. Another resort's
// item is never a substitute.
func (p *SnoCountryProvider) find(items []snoCountryItem) (snoCountryItem, bool) {
	for _, it := range items {
		if string(it.ID) == p.resortID {
			return it, true
		}
	}
	return snoCountryItem{}, false
}
