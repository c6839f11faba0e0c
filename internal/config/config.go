// Package config loads runtime settings from a .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreBigQuery = "bigquery"
)

// Cache drivers.
const (
	CacheNone      = "none"
	CacheRistretto = "ristretto"
	CacheRedis     = "redis"
)

// AI providers.
const (
	AILocal  = "local"
	AIGemini = "gemini"
)

// Config holds every setting the binaries need.
type Config struct {
	Port     string
	LogLevel string

	StoreDriver string
	DatabaseURL string
	SQLitePath  string
	BQProjectID string
	BQDataset   string

	CacheDriver string
	RedisURL    string
	CacheTTL    time.Duration

	AIProvider   string
	GeminiModel  string
	GeminiAPIKey string
	AITimeout    time.Duration

	GCSBucket string

	NotionToken        string
	NotionInsightsDBID string

	WorkerCount int
	QueueSize   int
}

// Load reads .env (if present) and then the process environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("Load: read env file: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, applying defaults for unset keys.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:               get("PORT", "8080"),
		LogLevel:           get("LOG_LEVEL", "info"),
		StoreDriver:        get("STORE_DRIVER", StoreMemory),
		DatabaseURL:        get("DATABASE_URL", ""),
		SQLitePath:         get("SQLITE_PATH", "finance-advisor.db"),
		BQProjectID:        get("BQ_PROJECT_ID", ""),
		BQDataset:          get("BQ_DATASET", "finance"),
		CacheDriver:        get("CACHE_DRIVER", CacheNone),
		RedisURL:           get("REDIS_URL", ""),
		AIProvider:         get("AI_PROVIDER", AILocal),
		GeminiModel:        get("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiAPIKey:       get("GEMINI_API_KEY", ""),
		GCSBucket:          get("GCS_BUCKET", ""),
		NotionToken:        get("NOTION_TOKEN", ""),
		NotionInsightsDBID: get("NOTION_INSIGHTS_DB_ID", ""),
	}

	var err error
	if cfg.CacheTTL, err = parseDuration("CACHE_TTL", get("CACHE_TTL", "10m")); err != nil {
		return nil, err
	}
	if cfg.AITimeout, err = parseDuration("AI_TIMEOUT", get("AI_TIMEOUT", "10s")); err != nil {
		return nil, err
	}
	if cfg.WorkerCount, err = parseInt("WORKER_COUNT", get("WORKER_COUNT", "5")); err != nil {
		return nil, err
	}
	if cfg.QueueSize, err = parseInt("QUEUE_SIZE", get("QUEUE_SIZE", "100")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers and drivers missing their settings.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("Validate: STORE_DRIVER=postgres requires DATABASE_URL")
		}
	case StoreBigQuery:
		if c.BQProjectID == "" {
			return errors.New("Validate: STORE_DRIVER=bigquery requires BQ_PROJECT_ID")
		}
	default:
		return fmt.Errorf("Validate: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.CacheDriver {
	case CacheNone, CacheRistretto:
	case CacheRedis:
		if c.RedisURL == "" {
			return errors.New("Validate: CACHE_DRIVER=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("Validate: unknown CACHE_DRIVER %q", c.CacheDriver)
	}

	switch c.AIProvider {
	case AILocal:
	case AIGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("Validate: AI_PROVIDER=gemini requires GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("Validate: unknown AI_PROVIDER %q", c.AIProvider)
	}

	if c.WorkerCount < 1 {
		return errors.New("Validate: WORKER_COUNT must be at least 1")
	}
	if c.QueueSize < 1 {
		return errors.New("Validate: QUEUE_SIZE must be at least 1")
	}
	return nil
}

// NotionEnabled reports whether insight sync to Notion is configured.
func (c *Config) NotionEnabled() bool {
	return c.NotionToken != "" && c.NotionInsightsDBID != ""
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func parseInt(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
