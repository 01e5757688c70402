// Command scrape runs the pipeline once and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
	"github.com/i474232898/ski-conditions-aggregation/internal/conditions/providers"
	"github.com/i474232898/ski-conditions-aggregation/internal/config"
	"github.com/i474232898/ski-conditions-aggregation/internal/observability"
	"github.com/i474232898/ski-conditions-aggregation/internal/roster"
	"github.com/i474232898/ski-conditions-aggregation/internal/store"
)

func main() {
	var (
		only       = flag.String("provider", "", "comma-separated provider ids to run (default: all)")
		save       = flag.Bool("save", false, "persist the snapshot through the configured backend")
		rosterPath = flag.String("roster", "", "roster YAML file (default: ROSTER_FILE or the built-in roster)")
	)
	flag.Parse()

	if err := run(*only, *save, *rosterPath); err != nil {
		fmt.Fprintln(os.Stderr, "scrape:", err)
		os.Exit(1)
	}
}

func run(only string, save bool, rosterPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if rosterPath == "" {
		rosterPath = cfg.RosterFile
	}

	// Logs go to stderr so stdout stays valid JSON.
	log := observability.NewLoggerTo(os.Stderr, cfg.LogLevel, "text")
	ctx := context.Background()
	clock := clockwork.NewRealClock()

	registry := conditions.DefaultRegistry()
	ros, err := roster.LoadOrDefault(rosterPath)
	if err != nil {
		return err
	}
	if err := ros.Install(registry); err != nil {
		return err
	}
	if only != "" {
		if ros, err = ros.Select(strings.Split(only, ",")...); err != nil {
			return err
		}
	}

	provs, err := providers.Build(ros.Providers, providers.Options{
		Client:  &http.Client{},
		Timeout: cfg.FetchTimeout,
		Clock:   clock,
		APIKey:  cfg.SnoCountryAPIKey,
	})
	if err != nil {
		return err
	}

	var gateway conditions.Gateway = store.NewGateway(store.NewMemoryBackend(), cfg.SnapshotTTL, clock)
	if save {
		g, err := store.Open(ctx, cfg, clock)
		if err != nil {
			return err
		}
		defer g.Close()
		gateway = g
	}

	service := conditions.NewService(gateway, provs, registry,
		conditions.WithClock(clock),
		conditions.WithObserver(observability.NewLogObserver(log)),
	)

	var out any
	if save {
		out, err = service.Trigger(ctx)
	} else {
		out, err = service.Run(ctx)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
