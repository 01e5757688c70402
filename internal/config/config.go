package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend selects the persistence backend.
type Backend string

const (
	BackendAuto     Backend = "auto"
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// ParseBackend validates a STORAGE_BACKEND value.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendMemory, BackendFile, BackendSQLite, BackendPostgres:
		return b, nil
	default:
		return "", fmt.Errorf("unknown storage backend %q", s)
	}
}

type AppConfig struct {
	Port string

	// SnoCountryAPIKey authenticates against the aggregator feed.
	SnoCountryAPIKey string

	// CronSecret gates the trigger endpoint. Empty means unauthenticated.
	CronSecret string

	// Backend is never BackendAuto after Load.
	Backend      Backend
	DatabaseURL  string
	SnapshotFile string
	SQLitePath   string
	SnapshotTTL  time.Duration

	FetchTimeout  time.Duration
	FetchInterval time.Duration // 0 disables the scheduler

	RosterFile string

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.SnoCountryAPIKey = os.Getenv("SNOCOUNTRY_API_KEY")
	cfg.CronSecret = os.Getenv("CRON_SECRET")

	backend, err := ParseBackend(os.Getenv("STORAGE_BACKEND"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORAGE_BACKEND: %w", err)
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SnapshotFile = getenvDefault("SNAPSHOT_FILE", "data/snapshot.json")
	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "data/snapshot.db")
	cfg.Backend = resolveBackend(backend, cfg.DatabaseURL, os.Getenv("SNAPSHOT_FILE"))
	if cfg.Backend == BackendPostgres && cfg.DatabaseURL == "" {
		return nil, errors.New("STORAGE_BACKEND=postgres requires DATABASE_URL")
	}

	if cfg.SnapshotTTL, err = getenvDuration("SNAPSHOT_TTL", 36*time.Hour); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", 30*time.Minute); err != nil {
		return nil, err
	}

	cfg.RosterFile = os.Getenv("ROSTER_FILE")

	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.KafkaTopic = getenvDefault("KAFKA_TOPIC", "ski-conditions-snapshots")

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")

	return cfg, nil
}

// resolveBackend turns BackendAuto into a concrete choice: postgres when a
// database URL is set, the JSON file when a snapshot path is set explicitly,
// memory otherwise.
func resolveBackend(b Backend, databaseURL, snapshotFile string) Backend {
	if b != BackendAuto {
		return b
	}
	switch {
	case databaseURL != "":
		return BackendPostgres
	case snapshotFile != "":
		return BackendFile
	default:
		return BackendMemory
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

// getenvDuration accepts Go durations ("90s") or bare seconds ("90").
func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if getenvInt(key, -1) >= 0 {
		return time.Duration(getenvInt(key, 0)) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
