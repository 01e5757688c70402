package conditions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDepth(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{`58"`, ptr(58.0)},
		{"12.5 in", ptr(12.5)},
		{" 0 ", ptr(0.0)},
		{"", nil},
		{"n/a", nil},
		{"--", nil},
		{"1.2.3", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDepth(tt.in))
		})
	}
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, ptr(42), ParseCount("42 trails"))
	assert.Equal(t, ptr(1200), ParseCount("1,200"))
	assert.Nil(t, ParseCount("none"))
	assert.Nil(t, ParseCount(""))
}

func TestParseRatio(t *testing.T) {
	open, total := ParseRatio("42 / 155")
	assert.Equal(t, ptr(42), open)
	assert.Equal(t, ptr(155), total)

	open, total = ParseRatio("7 of 20 lifts")
	assert.Equal(t, ptr(7), open)
	assert.Equal(t, ptr(20), total)

	open, total = ParseRatio("12")
	assert.Equal(t, ptr(12), open)
	assert.Nil(t, total)
}

func TestConvertDepth(t *testing.T) {
	assert.Equal(t, ptr(56.0), ConvertDepth(ptr(142.0), UnitCentimeters))
	assert.Equal(t, ptr(142.0), ConvertDepth(ptr(142.0), UnitInches))
	assert.Nil(t, ConvertDepth(nil, UnitCentimeters))
}

func TestFirstPresent(t *testing.T) {
	fields := map[string]any{
		"base_depth": "",
		"baseDepth":  json.Number("48"),
		"summit":     nil,
	}

	v, ok := FirstPresent(fields, "base_depth", "baseDepth")
	require.True(t, ok)
	assert.Equal(t, "48", v)

	_, ok = FirstPresent(fields, "summit", "summitDepth")
	assert.False(t, ok)
}

func TestStatusFromCode(t *testing.T) {
	assert.Equal(t, StatusOpen, StatusFromCode(0, DefaultOpenThreshold))
	assert.Equal(t, StatusOpen, StatusFromCode(1, DefaultOpenThreshold))
	assert.Equal(t, StatusClosed, StatusFromCode(2, DefaultOpenThreshold))
	assert.Equal(t, StatusOpen, StatusFromCode(3, 3))
}

func TestStatusFromText(t *testing.T) {
	tests := map[string]Status{
		"Open":                StatusOpen,
		"open for the season": StatusOpen,
		"Closed":              StatusClosed,
		"Temporarily Closed":  StatusClosed,
		"Season ended":        StatusClosed,
		"Opening Soon":        StatusOpeningSoon,
		"Opens Nov 22":        StatusOpeningSoon,
		"":                    "",
		"snowmaking":          "",

		"Open - some trails closed":           StatusOpen,
		"Open, lifts closed for wind hold":    StatusOpen,
		"Opens at 8:30am daily":               StatusOpen,
		"Closed for the season, opens Nov 22": StatusClosed,
		"Currently open":                      StatusOpen,
		"Coming soon: opening day Dec 1":      StatusOpeningSoon,
	}
	for in, want := range tests {
		assert.Equal(t, want, StatusFromText(in), in)
	}
}

func TestCleanSurface(t *testing.T) {
	assert.Equal(t, ptr("Packed Powder"), CleanSurface("<b>Packed</b>\n   Powder"))
	assert.Equal(t, ptr("Groomed & Packed"), CleanSurface("Groomed &amp; Packed"))
	assert.Nil(t, CleanSurface("  "))
	assert.Nil(t, CleanSurface("<br/>"))
}

func TestPartialRecordDefaultsStatusToOpen(t *testing.T) {
	rec := Partial{Name: "Stowe", Base: ptr(30.0)}.Record(fixedTime, "https://example.test")

	assert.Equal(t, StatusOpen, rec.Status)
	assert.Equal(t, fixedTime.UTC(), rec.UpdatedAt)
	assert.True(t, rec.OK())
}

func TestRecordJSONRendersAbsentAsNull(t *testing.T) {
	data, err := json.Marshal(Degraded("Stowe", fixedTime, "feed"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"base", "summit", "newSnow24", "newSnow48", "newSnow7d", "season",
		"trailsOpen", "trailsTotal", "liftsOpen", "liftsTotal", "surface"} {
		v, ok := decoded[key]
		assert.True(t, ok, "%s must be present", key)
		assert.Nil(t, v, "%s must be null", key)
	}
	assert.Equal(t, "Open", decoded["status"])
}
