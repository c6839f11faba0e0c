// Package app builds the service graph from configuration. It is shared by
// the API server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/advisor"
	"github.com/dvloznov/finance-advisor/internal/attachments"
	"github.com/dvloznov/finance-advisor/internal/bills"
	"github.com/dvloznov/finance-advisor/internal/cache"
	"github.com/dvloznov/finance-advisor/internal/categorize"
	"github.com/dvloznov/finance-advisor/internal/config"
	"github.com/dvloznov/finance-advisor/internal/fraud"
	"github.com/dvloznov/finance-advisor/internal/idgen"
	"github.com/dvloznov/finance-advisor/internal/llm"
	"github.com/dvloznov/finance-advisor/internal/statement"
	"github.com/dvloznov/finance-advisor/internal/store"
	bqstore "github.com/dvloznov/finance-advisor/internal/store/bigquery"
	"github.com/dvloznov/finance-advisor/internal/store/memory"
	"github.com/dvloznov/finance-advisor/internal/store/sqlstore"
)

// RistrettoMaxBytes bounds the in-process report cache.
const RistrettoMaxBytes = 64 << 20

// ErrAIDisabled is returned by features that need a language model when
// AI_PROVIDER is local.
var ErrAIDisabled = errors.New("feature requires AI_PROVIDER=gemini")

// App holds the wired components.
type App struct {
	Config      *config.Config
	Log         zerolog.Logger
	Repo        store.Repository
	Cache       cache.Cache
	Generator   llm.Generator // nil with the local provider
	Categorizer categorize.Categorizer
	Advisor     *advisor.Service

	closers []io.Closer
}

// Build opens the store and cache selected by cfg and wires the advisor.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	repo, err := OpenRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}
	a.Repo = repo
	a.closers = append(a.closers, repo)

	c, err := OpenCache(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("Build: %w", err)
	}
	a.Cache = c
	a.closers = append(a.closers, c)

	ids := idgen.UUID{}
	var (
		categorizer categorize.Categorizer = categorize.NewKeyword()
		assessor    fraud.Assessor         = fraud.NewHeuristic()
		predictor   bills.Predictor        = bills.NewRecurring(ids)
	)
	if cfg.AIProvider == config.AIGemini {
		gen, err := llm.NewGemini(ctx, llm.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.AITimeout,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("Build: %w", err)
		}
		a.Generator = gen
		categorizer = categorize.NewGemini(gen)
		assessor = fraud.NewGemini(gen)
		predictor = bills.NewGemini(gen, ids)
	}
	a.Categorizer = categorize.WithFallback(categorizer, log)

	opts := []advisor.Option{
		advisor.WithCache(a.Cache, cfg.CacheTTL),
		advisor.WithIDGenerator(ids),
		advisor.WithLogger(log),
	}
	if cfg.GCSBucket != "" {
		objects, err := attachments.NewGCS(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("Build: %w", err)
		}
		a.closers = append(a.closers, objects)
		opts = append(opts, advisor.WithAttachments(attachments.NewService(objects, cfg.GCSBucket)))
	}

	a.Advisor = advisor.New(repo, a.Categorizer, fraud.WithFallback(assessor, log), predictor, opts...)

	log.Info().
		Str("store", cfg.StoreDriver).
		Str("cache", cfg.CacheDriver).
		Str("ai", cfg.AIProvider).
		Bool("attachments", cfg.GCSBucket != "").
		Msg("application wired")
	return a, nil
}

// Statements returns a statement analyzer, which needs a language model.
func (a *App) Statements() (*statement.Analyzer, error) {
	if a.Generator == nil {
		return nil, ErrAIDisabled
	}
	return statement.NewAnalyzer(a.Generator, a.Categorizer, idgen.UUID{}), nil
}

// Close releases every opened resource in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenRepository opens the store selected by STORE_DRIVER.
func OpenRepository(ctx context.Context, cfg *config.Config) (store.Repository, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreSQLite:
		return sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
	case config.StorePostgres:
		return sqlstore.OpenPostgres(ctx, cfg.DatabaseURL)
	case config.StoreBigQuery:
		return bqstore.NewRepository(ctx, cfg.BQProjectID, cfg.BQDataset)
	}
	return nil, fmt.Errorf("OpenRepository: unknown store driver %q", cfg.StoreDriver)
}

// OpenCache opens the cache selected by CACHE_DRIVER.
func OpenCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.CacheDriver {
	case config.CacheNone:
		return cache.Noop{}, nil
	case config.CacheRistretto:
		return cache.NewRistretto(RistrettoMaxBytes)
	case config.CacheRedis:
		return cache.NewRedis(ctx, cfg.RedisURL, "finance-advisor:")
	}
	return nil, fmt.Errorf("OpenCache: unknown cache driver %q", cfg.CacheDriver)
}
