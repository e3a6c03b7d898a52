// Package app assembles the parse service and its optional stores from configuration.
// It is shared by the API server and the parse CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"parserapi/internal/config"
	"parserapi/internal/infra/adapter/persistence/postgres"
	"parserapi/internal/infra/cache"
	"parserapi/internal/infra/db"
	"parserapi/internal/infra/extractor"
	"parserapi/internal/infra/fetcher"
	"parserapi/internal/infra/heuristic"
	"parserapi/internal/infra/llm"
	"parserapi/internal/infra/syndication"
	"parserapi/internal/repository"
	"parserapi/internal/resilience/circuitbreaker"
	"parserapi/internal/usecase/parse"
)

// Options selects the optional components.
type Options struct {
	// Stores enables the result cache and the history database when they are configured.
	Stores bool
	// DisableAI forces the heuristic pipeline regardless of LLM_PROVIDER.
	DisableAI bool
}

// App holds the wired components. Close releases them.
type App struct {
	Parser  *parse.Service
	Parsing *config.ParserConfig
	LLM     *config.LLMConfig
	Server  *config.ServerConfig

	DB      *sql.DB                       // nil without DATABASE_URL
	History repository.ParseLogRepository // nil without DATABASE_URL
	Cache   cache.Cache                   // nil when caching is disabled

	closers []func() error
}

// New loads configuration from the environment and builds the parse service.
func New(ctx context.Context, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{}
	var err error

	if a.Parsing, err = config.LoadParserConfig(); err != nil {
		return nil, err
	}
	if a.LLM, err = config.LoadLLMConfig(); err != nil {
		return nil, err
	}
	if a.Server, err = config.LoadServerConfig(); err != nil {
		return nil, err
	}
	fetchCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("invalid fetcher configuration: %w", err)
	}
	sites, err := config.LoadSiteConfigs(a.Parsing.SiteConfigPath)
	if err != nil {
		return nil, err
	}

	aiParser, err := a.newExtractor(logger, opts.DisableAI)
	if err != nil {
		return nil, err
	}

	var svcOpts []parse.Option
	if opts.Stores {
		if err := a.openStores(ctx, logger); err != nil {
			_ = a.Close()
			return nil, err
		}
		if a.Cache != nil {
			svcOpts = append(svcOpts, parse.WithCache(a.Cache, a.Parsing.CacheTTL))
		}
		if a.History != nil {
			svcOpts = append(svcOpts, parse.WithHistory(a.History))
		}
	}

	a.Parser = parse.NewService(
		fetcher.NewPageFetcher(fetchCfg),
		syndication.NewDecoder(),
		aiParser,
		heuristic.New(sites, heuristic.Options{
			MaxEntries:    a.Parsing.HeuristicMaxEntries,
			SummaryLength: a.Parsing.SummaryLength,
		}),
		parse.Config{DefaultItems: a.Parsing.DefaultItems, MaxItems: a.Parsing.MaxItems},
		svcOpts...,
	)

	logger.Info("parser initialized",
		slog.String("llm_provider", a.AIProvider()),
		slog.String("llm_model", a.LLM.Model),
		slog.Int("default_items", a.Parsing.DefaultItems),
		slog.Int("max_items", a.Parsing.MaxItems),
		slog.Int("site_rules", len(sites.Sites)),
		slog.Bool("history", a.History != nil),
		slog.String("cache", cacheName(a.Cache)))
	return a, nil
}

// AIProvider returns the LLM provider name, "none" when AI extraction is off.
func (a *App) AIProvider() string {
	if !a.Parser.AIEnabled() {
		return config.ProviderNone
	}
	return a.LLM.Provider
}

// newExtractor returns nil when AI extraction is disabled.
func (a *App) newExtractor(logger *slog.Logger, disabled bool) (parse.HTMLParser, error) {
	if disabled || !a.LLM.Enabled() {
		return nil, nil
	}

	completer, err := llm.New(a.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	prompt, err := buildPrompt(a.Parsing)
	if err != nil {
		return nil, err
	}
	if a.Parsing.PromptFile != "" || len(a.Parsing.PromptExtra) > 0 {
		logger.Info("custom extraction prompt configured",
			slog.String("path", a.Parsing.PromptFile),
			slog.Int("extra_requirements", len(a.Parsing.PromptExtra)))
	}

	ai := extractor.NewAIExtractor(completer, prompt, extractor.Config{
		MaxArticles:   a.Parsing.MaxArticles,
		MaxInputChars: a.Parsing.MaxInputChars,
		SummaryLength: a.Parsing.SummaryLength,
	})
	return parse.HTMLParserFunc(ai.Extract), nil
}

// buildPrompt loads the prompt template and appends the configured extra requirements.
func buildPrompt(cfg *config.ParserConfig) (*extractor.Prompt, error) {
	prompt, err := extractor.LoadPrompt(cfg.PromptFile)
	if err != nil {
		return nil, err
	}
	if len(cfg.PromptExtra) > 0 {
		prompt = prompt.Customize(0, cfg.PromptExtra)
	}
	return prompt, nil
}

func (a *App) openStores(ctx context.Context, logger *slog.Logger) error {
	if a.Parsing.CacheTTL > 0 {
		if a.Server.RedisURL != "" {
			r, err := cache.NewRedis(a.Server.RedisURL, "parserapi:")
			if err != nil {
				return err
			}
			a.closers = append(a.closers, r.Close)
			if err := r.Ping(ctx); err != nil {
				// the cache is optional; lookups fail open until Redis is back
				logger.Warn("redis not reachable at startup", slog.Any("error", err))
			}
			a.Cache = r
		} else {
			a.Cache = cache.NewMemory(cache.DefaultMaxEntries)
		}
	}

	if a.Server.DatabaseURL != "" {
		database, err := db.Open(ctx, a.Server.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, database.Close)
		if err := db.MigrateUp(ctx, database); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		a.DB = database
		a.History = postgres.NewParseLogRepo(circuitbreaker.NewDBCircuitBreaker(database))
	}
	return nil
}

// Close releases the stores in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func cacheName(c cache.Cache) string {
	if c == nil {
		return "none"
	}
	return c.Name()
}
