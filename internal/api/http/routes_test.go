package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
	"github.com/i474232898/ski-conditions-aggregation/internal/store"
)

var scrapedAt = time.Date(2026, 1, 15, 7, 0, 0, 0, time.UTC)

type fakePipeline struct {
	triggers   int
	result     conditions.TriggerResult
	triggerErr error
	snapshot   conditions.Snapshot
	latestErr  error
}

func (f *fakePipeline) Trigger(context.Context) (conditions.TriggerResult, error) {
	f.triggers++
	return f.result, f.triggerErr
}

func (f *fakePipeline) Latest(context.Context) (conditions.Snapshot, error) {
	return f.snapshot, f.latestErr
}

func newApp(p Pipeline, secret string) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, p, secret)
	return app
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return resp.StatusCode, out
}

func TestTriggerRequiresSecret(t *testing.T) {
	p := &fakePipeline{result: conditions.TriggerResult{OK: true, RunID: "r1", Saved: true}}
	app := newApp(p, "s3cret")

	withBearer := func(method, target, token string) *http.Request {
		req := httptest.NewRequest(method, target, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"no secret", httptest.NewRequest(http.MethodPost, "/api/scrape", nil), http.StatusUnauthorized},
		{"wrong query", httptest.NewRequest(http.MethodGet, "/api/scrape?secret=nope", nil), http.StatusUnauthorized},
		{"wrong bearer", withBearer(http.MethodPost, "/api/scrape", "nope"), http.StatusUnauthorized},
		{"query", httptest.NewRequest(http.MethodGet, "/api/scrape?secret=s3cret", nil), http.StatusOK},
		{"bearer", withBearer(http.MethodPost, "/api/scrape", "s3cret"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, tt.req)
			assert.Equal(t, tt.status, status)
			if status == http.StatusUnauthorized {
				assert.Equal(t, false, body["ok"])
			}
		})
	}
	assert.Equal(t, 2, p.triggers)
}

func TestTriggerWithoutSecretIsOpen(t *testing.T) {
	p := &fakePipeline{result: conditions.TriggerResult{OK: true, Saved: false, StorageError: "disk full"}}

	status, body := doJSON(t, newApp(p, ""), httptest.NewRequest(http.MethodPost, "/api/scrape", nil))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, false, body["saved"])
	assert.Equal(t, "disk full", body["storageError"])
}

func TestTriggerRunFailureIs500(t *testing.T) {
	p := &fakePipeline{
		result:     conditions.TriggerResult{RunID: "r9"},
		triggerErr: &conditions.RunError{Stage: "aggregate", Cause: "nil map"},
	}

	status, body := doJSON(t, newApp(p, ""), httptest.NewRequest(http.MethodPost, "/api/scrape", nil))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "r9", body["runId"])
	assert.Equal(t, "pipeline aggregate failed: nil map", body["error"])
}

func sampleSnapshot() conditions.Snapshot {
	base := 40.0
	stored := scrapedAt.Add(2 * time.Minute)
	return conditions.Snapshot{
		Mountains: []conditions.Record{
			{Name: conditions.MountSnow, Base: &base, Status: conditions.StatusOpen, UpdatedAt: scrapedAt, Source: "feed"},
		},
		ScrapedAt:    scrapedAt,
		SuccessCount: 1,
		TotalCount:   1,
		StoredAt:     &stored,
	}
}

func TestConditionsServesStoredSnapshot(t *testing.T) {
	app := newApp(&fakePipeline{snapshot: sampleSnapshot()}, "secret")

	status, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/conditions", nil))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "2026-01-15T07:00:00Z", body["scrapedAt"])
	assert.Equal(t, "2026-01-15T07:02:00Z", body["storedAt"])
	assert.Equal(t, 1.0, body["successCount"])
	assert.Equal(t, 1.0, body["totalCount"])

	mountains, ok := body["mountains"].([]any)
	require.True(t, ok)
	require.Len(t, mountains, 1)
	m := mountains[0].(map[string]any)
	assert.Equal(t, "MOUNT_SNOW", m["name"])
	assert.Nil(t, m["summit"])
}

func TestConditionsUnavailable(t *testing.T) {
	tests := map[string]struct {
		err     error
		message string
	}{
		"never stored":  {store.ErrNotFound, "no data available yet"},
		"backend error": {errors.Join(store.ErrStorage, errors.New("timeout")), "snapshot unavailable"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			app := newApp(&fakePipeline{latestErr: tt.err}, "")

			status, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/conditions", nil))

			assert.Equal(t, http.StatusServiceUnavailable, status)
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func TestSingleMountain(t *testing.T) {
	app := newApp(&fakePipeline{snapshot: sampleSnapshot()}, "")

	status, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/conditions/mount-snow", nil))
	assert.Equal(t, http.StatusOK, status)
	m := body["mountain"].(map[string]any)
	assert.Equal(t, 40.0, m["base"])

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/conditions/stowe", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "ski_conditions_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	app := fiber.New()
	RegisterMetrics(app, reg)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ski_conditions_test_total 1")
}
