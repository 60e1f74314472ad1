package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/bazaar-search/internal/config"
	"github.com/kirillkom/bazaar-search/internal/core/ports"
	"github.com/kirillkom/bazaar-search/internal/core/usecase"
	"github.com/kirillkom/bazaar-search/internal/core/vocabulary"
	"github.com/kirillkom/bazaar-search/internal/infrastructure/cache/expansion"
	"github.com/kirillkom/bazaar-search/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/bazaar-search/internal/infrastructure/llm/openaicompat"
	"github.com/kirillkom/bazaar-search/internal/infrastructure/queue/nats"
	"github.com/kirillkom/bazaar-search/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/bazaar-search/internal/infrastructure/resilience"
	"github.com/kirillkom/bazaar-search/internal/observability/metrics"
)

// Options select the optional pieces a binary needs.
type Options struct {
	Service string
	// Registerer receives search and breaker metrics. Nil disables them.
	Registerer prometheus.Registerer
	// WithoutQueue skips the NATS connection for binaries that never publish.
	WithoutQueue bool
}

type App struct {
	Config     config.Config
	Vocabulary *vocabulary.Vocabulary

	Repo  ports.ListingRepository
	Queue ports.EnrichmentQueue

	SearchUC   *usecase.SearchUseCase
	ListingsUC *usecase.ListingQueryUseCase
	EnrichUC   *usecase.TagEnrichmentUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	vocab, err := vocabulary.Load(cfg.VocabularyPath)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	repo := postgres.NewListingRepository(db)

	var searchMetrics *metrics.SearchMetrics
	var observer ports.SearchObserver
	if opts.Registerer != nil {
		searchMetrics = metrics.NewSearchMetrics(opts.Registerer, opts.Service)
		observer = searchMetrics
	}

	oracle, err := newOracle(cfg, searchMetrics)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var queue *nats.Queue
	if !opts.WithoutQueue {
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ClientName:         "bazaar-" + opts.Service,
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init enrichment queue: %w", err)
		}
	}

	cache := expansion.New(cfg.ExpansionCacheSize, cfg.ExpansionCacheTTL)
	expander := usecase.NewTermExpander(oracle, vocab, cache, usecase.ExpanderOptions{
		OracleTimeout:         cfg.OracleTimeout,
		BidirectionalSynonyms: cfg.SynonymsBidirectional,
	})
	retriever := usecase.NewCandidateRetriever(repo)
	scorer := usecase.Scorer{MinPartialLen: cfg.MinPartialMatchLen}

	app := &App{
		Config:     cfg,
		Vocabulary: vocab,
		Repo:       repo,
		SearchUC:   usecase.NewSearchUseCase(expander, retriever, scorer, repo, observer),
		ListingsUC: usecase.NewListingQueryUseCase(repo),
		closeFn:    closer(db, queue),
	}

	var enrichQueue ports.EnrichmentQueue
	if queue != nil {
		enrichQueue = queue
		app.Queue = queue
	}
	app.EnrichUC = usecase.NewTagEnrichmentUseCase(repo, oracle, vocab, enrichQueue, cfg.EnrichTimeout)

	slog.Info("bootstrap_ready",
		"service", opts.Service,
		"llm_provider", cfg.LLMProvider,
		"vocabulary_terms", vocab.Size(),
		"queue", queue != nil,
	)
	return app, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newOracle(cfg config.Config, searchMetrics *metrics.SearchMetrics) (ports.TextOracle, error) {
	policy := resilience.DefaultConfig()
	policy.RetryMaxAttempts = cfg.OracleRetryMaxAttempts
	policy.BreakerEnabled = cfg.OracleBreakerEnabled
	if searchMetrics != nil {
		policy.OnStateChange = searchMetrics.RecordBreakerTransition
	}
	executor := resilience.NewExecutor(policy)

	switch cfg.LLMProvider {
	case config.ProviderOllama, "":
		return ollama.New(cfg.OllamaURL, cfg.OllamaModel, executor), nil
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("llm provider %q requires OPENAI_API_KEY or GEMINI_API_KEY", cfg.LLMProvider)
		}
		return openaicompat.New(openaicompat.Config{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			Temperature: 0.2,
		}, executor), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

func closer(db *sql.DB, queue *nats.Queue) func() {
	return func() {
		if queue != nil {
			queue.Close()
		}
		_ = db.Close()
	}
}
