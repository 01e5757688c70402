package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

// Runner is the part of conditions.Service the scheduler drives.
type Runner interface {
	Trigger(ctx context.Context) (conditions.TriggerResult, error)
}

// runBudget bounds one scheduled run. Every adapter enforces its own
// timeout, so this only guards against a stuck persistence call.
const runBudget = 2 * time.Minute

// Scheduler periodically triggers a pipeline run.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. A non-positive interval disables it.
func New(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("scheduler disabled; trigger runs through the API only")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", s.interval.String())
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runBudget)
	defer cancel()

	result, err := s.runner.Trigger(ctx)
	if err != nil {
		s.logger.Error("scheduled run failed", "error", err)
		return
	}
	s.logger.Debug("scheduled run finished",
		"run_id", result.RunID,
		"success_count", result.SuccessCount,
		"total_count", result.TotalCount,
		"saved", result.Saved,
	)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
