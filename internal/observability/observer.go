package observability

import (
	"log/slog"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

// LogObserver writes pipeline events to a structured logger.
type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) AdapterSettled(e conditions.Outcome) {
	attrs := []any{
		"run_id", e.RunID,
		"provider", e.Provider,
		"class", string(e.Class),
		"source", e.Source,
		"duration_ms", e.Duration.Milliseconds(),
	}
	if e.Err != nil {
		o.logger.Warn("adapter degraded", append(attrs, "error", e.Err)...)
		return
	}
	o.logger.Debug("adapter settled", attrs...)
}

// NameUnmapped is logged at warn so operators can extend the alias registry.
func (o *LogObserver) NameUnmapped(e conditions.Unmapped) {
	o.logger.Warn("unmapped resort name dropped",
		"run_id", e.RunID,
		"provider", e.Provider,
		"name", e.Name,
	)
}

func (o *LogObserver) RunCompleted(r conditions.RunReport) {
	if r.Err != nil {
		o.logger.Error("pipeline run failed", "run_id", r.RunID, "error", r.Err)
		return
	}
	attrs := []any{
		"run_id", r.RunID,
		"scraped_at", r.ScrapedAt,
		"success_count", r.SuccessCount,
		"total_count", r.TotalCount,
		"saved", r.Saved,
		"duration_ms", r.Duration.Milliseconds(),
	}
	if r.StorageErr != nil {
		attrs = append(attrs, "storage_error", r.StorageErr)
	}
	if r.PublishErr != nil {
		attrs = append(attrs, "publish_error", r.PublishErr)
	}
	o.logger.Info("pipeline run completed", attrs...)
}

// MetricsObserver counts pipeline events.
type MetricsObserver struct {
	metrics *Metrics
}

func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) AdapterSettled(e conditions.Outcome) {
	o.metrics.AdapterOutcomes.WithLabelValues(e.Provider, string(e.Class)).Inc()
	o.metrics.FetchDuration.WithLabelValues(e.Provider).Observe(e.Duration.Seconds())
}

func (o *MetricsObserver) NameUnmapped(e conditions.Unmapped) {
	o.metrics.UnmappedNames.WithLabelValues(e.Provider).Inc()
}

func (o *MetricsObserver) RunCompleted(r conditions.RunReport) {
	o.metrics.RunDuration.Observe(r.Duration.Seconds())
	if r.Err != nil {
		o.metrics.Runs.WithLabelValues("failed").Inc()
		return
	}
	o.metrics.Runs.WithLabelValues("ok").Inc()
	o.metrics.LastSuccessCount.Set(float64(r.SuccessCount))
	o.metrics.LastTotalCount.Set(float64(r.TotalCount))
	o.metrics.LastRunTimestamp.Set(float64(r.ScrapedAt.Unix()))
	if r.StorageErr != nil {
		o.metrics.StorageFailures.Inc()
	}
	if r.PublishErr != nil {
		o.metrics.PublishFailures.Inc()
	}
}
