package conditions

import (
	"math"
	"time"
)

// Status is the operating state reported for a ski area.
type Status string

const (
	StatusOpen        Status = "Open"
	StatusClosed      Status = "Closed"
	StatusOpeningSoon Status = "OpeningSoon"
)

// Unit is the depth unit an upstream reports in.
// Records are always expressed in inches.
type Unit string

const (
	UnitInches      Unit = "in"
	UnitCentimeters Unit = "cm"
)

const cmPerInch = 2.54

// Record is the canonical, normalized view of one ski area at fetch time.
// Optional fields are nil when the value was unavailable this run; a nil
// value is rendered as JSON null and must not be read as zero.
type Record struct {
	Name string `json:"name"`

	Base      *float64 `json:"base"`
	Summit    *float64 `json:"summit"`
	NewSnow24 *float64 `json:"newSnow24"`
	NewSnow48 *float64 `json:"newSnow48"`
	NewSnow7d *float64 `json:"newSnow7d"`
	Season    *float64 `json:"season"`

	TrailsOpen  *int `json:"trailsOpen"`
	TrailsTotal *int `json:"trailsTotal"`
	LiftsOpen   *int `json:"liftsOpen"`
	LiftsTotal  *int `json:"liftsTotal"`

	Surface *string `json:"surface"`
	Status  Status  `json:"status"`

	UpdatedAt time.Time `json:"updatedAt"` // always UTC
	Source    string    `json:"source"`
}

// OK reports whether the record counts as a successful scrape.
func (r Record) OK() bool {
	return r.Base != nil
}

// Snapshot is the complete result of one pipeline run.
// StoredAt and ExpiresAt are attached by the persistence gateway only.
type Snapshot struct {
	Mountains    []Record   `json:"mountains"`
	ScrapedAt    time.Time  `json:"scrapedAt"`
	SuccessCount int        `json:"successCount"`
	TotalCount   int        `json:"totalCount"`
	StoredAt     *time.Time `json:"storedAt,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// Find returns the mountain with the given canonical name.
func (s Snapshot) Find(name string) (Record, bool) {
	for _, m := range s.Mountains {
		if m.Name == name {
			return m, true
		}
	}
	return Record{}, false
}

// Partial is the strict result of a provider's extraction step, before the
// fetch metadata is attached. Depths are in the provider's own unit until
// InUnit is applied.
type Partial struct {
	Name string

	Base      *float64
	Summit    *float64
	NewSnow24 *float64
	NewSnow48 *float64
	NewSnow7d *float64
	Season    *float64

	TrailsOpen  *int
	TrailsTotal *int
	LiftsOpen   *int
	LiftsTotal  *int

	Surface *string
	Status  Status
}

// Empty reports whether extraction found nothing usable.
func (p Partial) Empty() bool {
	return p.Base == nil && p.Summit == nil && p.NewSnow24 == nil && p.NewSnow48 == nil &&
		p.NewSnow7d == nil && p.Season == nil && p.TrailsOpen == nil && p.TrailsTotal == nil &&
		p.LiftsOpen == nil && p.LiftsTotal == nil && p.Surface == nil && p.Status == ""
}

// InUnit converts every depth field from u to inches.
func (p Partial) InUnit(u Unit) Partial {
	p.Base = ConvertDepth(p.Base, u)
	p.Summit = ConvertDepth(p.Summit, u)
	p.NewSnow24 = ConvertDepth(p.NewSnow24, u)
	p.NewSnow48 = ConvertDepth(p.NewSnow48, u)
	p.NewSnow7d = ConvertDepth(p.NewSnow7d, u)
	p.Season = ConvertDepth(p.Season, u)
	return p
}

// Record stamps the partial with fetch metadata. A missing status defaults to Open.
func (p Partial) Record(updatedAt time.Time, source string) Record {
	status := p.Status
	if status == "" {
		status = StatusOpen
	}
	return Record{
		Name:        p.Name,
		Base:        p.Base,
		Summit:      p.Summit,
		NewSnow24:   p.NewSnow24,
		NewSnow48:   p.NewSnow48,
		NewSnow7d:   p.NewSnow7d,
		Season:      p.Season,
		TrailsOpen:  p.TrailsOpen,
		TrailsTotal: p.TrailsTotal,
		LiftsOpen:   p.LiftsOpen,
		LiftsTotal:  p.LiftsTotal,
		Surface:     p.Surface,
		Status:      status,
		UpdatedAt:   updatedAt.UTC(),
		Source:      source,
	}
}

// Degraded returns a record with every optional field absent.
func Degraded(name string, updatedAt time.Time, source string) Record {
	return Partial{Name: name}.Record(updatedAt, source)
}

// ConvertDepth converts a depth reported in u to whole inches.
// Inches pass through unchanged.
func ConvertDepth(v *float64, u Unit) *float64 {
	if v == nil {
		return nil
	}
	if u != UnitCentimeters {
		return v
	}
	in := math.Round(*v / cmPerInch)
	return &in
}
