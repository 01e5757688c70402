package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

func TestMetricsObserverCountsOutcomes(t *testing.T) {
	m := NewMetricsForTesting()
	obs := NewMetricsObserver(m)

	obs.AdapterSettled(conditions.Outcome{Provider: "stowe", Class: conditions.ClassOK, Duration: time.Second})
	obs.AdapterSettled(conditions.Outcome{Provider: "stowe", Class: conditions.ClassNetwork, Duration: time.Second})
	obs.AdapterSettled(conditions.Outcome{Provider: "okemo", Class: conditions.ClassNetwork, Duration: time.Second})
	obs.NameUnmapped(conditions.Unmapped{Provider: "okemo", Name: "Okemo Mtn"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterOutcomes.WithLabelValues("stowe", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterOutcomes.WithLabelValues("okemo", "network")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnmappedNames.WithLabelValues("okemo")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.FetchDuration))
}

func TestMetricsObserverRunGauges(t *testing.T) {
	m := NewMetricsForTesting()
	obs := NewMetricsObserver(m)
	started := time.Date(2026, 1, 15, 7, 0, 0, 0, time.UTC)

	obs.RunCompleted(conditions.RunReport{
		ScrapedAt:    started,
		SuccessCount: 9,
		TotalCount:   14,
		StorageErr:   errors.New("disk full"),
	})
	obs.RunCompleted(conditions.RunReport{Err: errors.New("boom")})

	assert.Equal(t, 9.0, testutil.ToFloat64(m.LastSuccessCount))
	assert.Equal(t, 14.0, testutil.ToFloat64(m.LastTotalCount))
	assert.Equal(t, float64(started.Unix()), testutil.ToFloat64(m.LastRunTimestamp))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageFailures))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PublishFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("failed")))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		out = append(out, line)
	}
	return out
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogObserver(NewLoggerTo(&buf, "info", "json"))

	obs.AdapterSettled(conditions.Outcome{RunID: "r1", Provider: "stowe", Class: conditions.ClassOK})
	obs.AdapterSettled(conditions.Outcome{RunID: "r1", Provider: "okemo", Class: conditions.ClassParse, Err: errors.New("bad json")})
	obs.NameUnmapped(conditions.Unmapped{RunID: "r1", Provider: "x", Name: "Mystery Hill"})
	obs.RunCompleted(conditions.RunReport{RunID: "r1", SuccessCount: 1, TotalCount: 2, Saved: true})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3, "successful adapters log at debug")

	assert.Equal(t, "adapter degraded", lines[0]["msg"])
	assert.Equal(t, "parse", lines[0]["class"])
	assert.Equal(t, "bad json", lines[0]["error"])

	assert.Equal(t, "WARN", lines[1]["level"])
	assert.Equal(t, "Mystery Hill", lines[1]["name"])

	assert.Equal(t, "pipeline run completed", lines[2]["msg"])
	assert.Equal(t, true, lines[2]["saved"])
	assert.Equal(t, 2.0, lines[2]["total_count"])
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "warn", "text")

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "level=WARN msg=shown")
}

func TestObserversFanOut(t *testing.T) {
	m1, m2 := NewMetricsForTesting(), NewMetricsForTesting()
	obs := conditions.Observers{NewMetricsObserver(m1), NewMetricsObserver(m2)}

	obs.NameUnmapped(conditions.Unmapped{Provider: "p"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m1.UnmappedNames.WithLabelValues("p")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m2.UnmappedNames.WithLabelValues("p")))
}
