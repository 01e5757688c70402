package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	httpapi "github.com/i474232898/ski-conditions-aggregation/internal/api/http"
	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
	"github.com/i474232898/ski-conditions-aggregation/internal/conditions/providers"
	"github.com/i474232898/ski-conditions-aggregation/internal/config"
	"github.com/i474232898/ski-conditions-aggregation/internal/observability"
	"github.com/i474232898/ski-conditions-aggregation/internal/publish"
	"github.com/i474232898/ski-conditions-aggregation/internal/roster"
	"github.com/i474232898/ski-conditions-aggregation/internal/scheduler"
	"github.com/i474232898/ski-conditions-aggregation/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *slog.Logger) error {
	ctx := context.Background()
	clock := clockwork.NewRealClock()

	registry := conditions.DefaultRegistry()
	ros, err := roster.LoadOrDefault(cfg.RosterFile)
	if err != nil {
		return err
	}
	if err := ros.Install(registry); err != nil {
		return err
	}

	// Shared HTTP client for outbound provider calls; every attempt carries
	// its own deadline.
	provs, err := providers.Build(ros.Providers, providers.Options{
		Client:  &http.Client{},
		Timeout: cfg.FetchTimeout,
		Clock:   clock,
		APIKey:  cfg.SnoCountryAPIKey,
	})
	if err != nil {
		return err
	}

	gateway, err := store.Open(ctx, cfg, clock)
	if err != nil {
		return err
	}
	defer gateway.Close()
	log.Info("storage ready", "backend", string(cfg.Backend), "ttl", cfg.SnapshotTTL.String())

	metrics := observability.NewMetrics()
	opts := []conditions.Option{
		conditions.WithClock(clock),
		conditions.WithObserver(conditions.Observers{
			observability.NewLogObserver(log),
			observability.NewMetricsObserver(metrics),
		}),
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub := publish.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer pub.Close()
		opts = append(opts, conditions.WithPublisher(pub))
		log.Info("publishing snapshots", "topic", cfg.KafkaTopic)
	}

	service := conditions.NewService(gateway, provs, registry, opts...)

	sched := scheduler.New(service, cfg.FetchInterval, log)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	if cfg.CronSecret == "" {
		log.Warn("CRON_SECRET is empty; the trigger endpoint is unauthenticated")
	}

	app := fiber.New(fiber.Config{
		AppName:               "ski-conditions-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// A trigger waits for every provider, each of which may use its
		// primary and fallback timeouts back to back.
		WriteTimeout: 2*cfg.FetchTimeout + 15*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   "ski-conditions-aggregation",
			"providers": service.ProviderIDs(),
		})
	})

	httpapi.RegisterRoutes(app, service, cfg.CronSecret)
	httpapi.RegisterMetrics(app, prometheus.DefaultGatherer)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()
	log.Info("listening", "port", cfg.Port, "providers", len(provs))

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
