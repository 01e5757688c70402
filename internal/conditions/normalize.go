package conditions

import (
	"encoding/json"
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/i474232898/ski-conditions-aggregation/internal/common"
)

// Field names a canonical record field. Providers map their own spellings
// onto these through alias tables or selectors.
type Field string

const (
	FieldName        Field = "name"
	FieldBase        Field = "base"
	FieldSummit      Field = "summit"
	FieldNewSnow24   Field = "newSnow24"
	FieldNewSnow48   Field = "newSnow48"
	FieldNewSnow7d   Field = "newSnow7d"
	FieldSeason      Field = "season"
	FieldTrailsOpen  Field = "trailsOpen"
	FieldTrailsTotal Field = "trailsTotal"
	FieldLiftsOpen   Field = "liftsOpen"
	FieldLiftsTotal  Field = "liftsTotal"
	FieldTrails      Field = "trails" // "open / total" in one value
	FieldLifts       Field = "lifts"  // "open / total" in one value
	FieldSurface     Field = "surface"
	FieldStatus      Field = "status"
	FieldStatusCode  Field = "statusCode"
)

// DefaultOpenThreshold is the highest numeric status code still meaning open.
const DefaultOpenThreshold = 1

var (
	nonDecimal = regexp.MustCompile(`[^0-9.]`)
	nonDigit   = regexp.MustCompile(`[^0-9]`)
	ratioSep   = regexp.MustCompile(`(?i)\s*(?:/|\bof\b)\s*`)

	surfacePolicy = bluemonday.StrictPolicy()
)

// ParseDepth strips everything but digits and the decimal point and parses
// the rest. Unparseable input yields nil, never zero or NaN.
func ParseDepth(s string) *float64 {
	cleaned := nonDecimal.ReplaceAllString(s, "")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ParseCount strips everything but digits and parses the rest as an integer.
func ParseCount(s string) *int {
	cleaned := nonDigit.ReplaceAllString(s, "")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	return &v
}

// ParseRatio splits values like "42/155" or "42 of 155" into open and total counts.
func ParseRatio(s string) (open, total *int) {
	parts := ratioSep.Split(strings.TrimSpace(s), 2)
	open = ParseCount(parts[0])
	if len(parts) == 2 {
		total = ParseCount(parts[1])
	}
	return open, total
}

// Text renders a decoded JSON scalar as a string. Objects, arrays, booleans
// and null render empty.
func Text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

// FirstPresent returns the first alias whose value in fields is present and
// non-empty, in alias order.
func FirstPresent(fields map[string]any, aliases ...string) (string, bool) {
	for _, alias := range aliases {
		v, ok := fields[alias]
		if !ok {
			continue
		}
		if s := Text(v); s != "" {
			return s, true
		}
	}
	return "", false
}

// StatusFromCode maps a numeric status code: values at or below threshold are open.
func StatusFromCode(code, threshold int) Status {
	if code <= threshold {
		return StatusOpen
	}
	return StatusClosed
}

// statusPhrases are matched against lowercased free text. The phrase that
// starts earliest wins; at equal offsets the longer phrase wins, so
// "Opens at 8:30am" is Open while "Opens Nov 22" is OpeningSoon.
var statusPhrases = []struct {
	phrase string
	status Status
}{
	{"opening soon", StatusOpeningSoon},
	{"coming soon", StatusOpeningSoon},
	{"opens at", StatusOpen},
	{"opens daily", StatusOpen},
	{"opens ", StatusOpeningSoon},
	{"opening ", StatusOpeningSoon},
	{"temporarily closed", StatusClosed},
	{"closed", StatusClosed},
	{"season ended", StatusClosed},
	{"season over", StatusClosed},
	{"open", StatusOpen},
}

// StatusFromText derives a status from the leading status phrase of free
// text, so "Open - some trails closed" is Open. Unrecognized text yields "",
// which records treat as Open.
func StatusFromText(s string) Status {
	text := strings.ToLower(common.CollapseSpace(s))

	best, bestAt, bestLen := Status(""), -1, 0
	for _, p := range statusPhrases {
		at := strings.Index(text, p.phrase)
		if at < 0 {
			continue
		}
		if bestAt < 0 || at < bestAt || (at == bestAt && len(p.phrase) > bestLen) {
			best, bestAt, bestLen = p.status, at, len(p.phrase)
		}
	}
	return best
}

// CleanSurface strips markup from a surface description and collapses whitespace.
func CleanSurface(s string) *string {
	cleaned := common.CollapseSpace(html.UnescapeString(surfacePolicy.Sanitize(s)))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
