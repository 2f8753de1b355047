package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"github.com/davidbz/quotekit/internal/assistant/openai"
	"github.com/davidbz/quotekit/internal/catalog/file"
	"github.com/davidbz/quotekit/internal/catalog/postgres"
	"github.com/davidbz/quotekit/internal/config"
	"github.com/davidbz/quotekit/internal/domain"
	"github.com/davidbz/quotekit/internal/export"
	"github.com/davidbz/quotekit/internal/export/excel"
	"github.com/davidbz/quotekit/internal/httpserver"
	"github.com/davidbz/quotekit/internal/httpserver/middleware"
	"github.com/davidbz/quotekit/internal/observability"
	"github.com/davidbz/quotekit/internal/session/memory"
	"github.com/davidbz/quotekit/internal/session/redis"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

// ErrUnknownCatalogSource indicates an unsupported CATALOG_SOURCE value.
var ErrUnknownCatalogSource = errors.New("unknown catalog source")

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *httpserver.Server) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("Shutdown failed: %v", err)
			}
		}()

		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Invoke(func(cfg *observability.LoggerConfig) error {
		_, err := observability.InitLogger(*cfg)
		return err
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	if err := container.Provide(newRegistry, dig.As(new(prometheus.Registerer), new(prometheus.Gatherer))); err != nil {
		log.Fatalf("Failed to provide metrics registry: %v", err)
	}
	if err := container.Provide(observability.NewMetrics); err != nil {
		log.Fatalf("Failed to provide metrics: %v", err)
	}
	if err := container.Provide(func(cfg *config.EventsConfig) domain.EventPublisher {
		return observability.NewEventBus(cfg.Enabled)
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Catalog
	if err := container.Provide(func() domain.CatalogIndex {
		return domain.NewInMemoryCatalog()
	}); err != nil {
		log.Fatalf("Failed to provide catalog: %v", err)
	}
	if err := container.Provide(newCatalogSource); err != nil {
		log.Fatalf("Failed to provide catalog source: %v", err)
	}
	if err := container.Invoke(loadCatalog); err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	// Sessions
	if err := container.Provide(newSessionStore); err != nil {
		log.Fatalf("Failed to provide session store: %v", err)
	}

	// Export
	if err := container.Provide(func(cfg *config.ExportConfig) *export.FileSink {
		return export.NewFileSink(cfg.Dir, excel.NewRenderer())
	}); err != nil {
		log.Fatalf("Failed to provide export sink: %v", err)
	}
	if err := container.Provide(func(sink *export.FileSink) (domain.ExportSink, httpserver.ExportFiles) {
		return sink, sink
	}); err != nil {
		log.Fatalf("Failed to provide export interfaces: %v", err)
	}

	// Assistant
	if err := container.Provide(newAssistant); err != nil {
		log.Fatalf("Failed to provide assistant: %v", err)
	}

	// Domain Services
	if err := container.Provide(domain.NewPricingEngine); err != nil {
		log.Fatalf("Failed to provide pricing engine: %v", err)
	}
	if err := container.Provide(func(cfg *config.SessionConfig) domain.QuoteServiceConfig {
		return domain.QuoteServiceConfig{SessionTTL: cfg.TTL()}
	}); err != nil {
		log.Fatalf("Failed to provide quote service config: %v", err)
	}
	if err := container.Provide(func(cfg *config.SessionConfig) domain.ChatServiceConfig {
		return domain.ChatServiceConfig{SessionTTL: cfg.TTL(), HistoryLimit: cfg.HistoryLimit}
	}); err != nil {
		log.Fatalf("Failed to provide chat service config: %v", err)
	}
	if err := container.Provide(domain.NewQuoteService); err != nil {
		log.Fatalf("Failed to provide quote service: %v", err)
	}
	if err := container.Provide(domain.NewChatService); err != nil {
		log.Fatalf("Failed to provide chat service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(httpserver.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(httpserver.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func newCatalogSource(cfg *config.CatalogConfig) (domain.CatalogSource, error) {
	switch cfg.Source {
	case config.CatalogSourceFile:
		return file.NewSource(cfg.File), nil
	case config.CatalogSourcePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return postgres.NewSource(db), nil
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Source, ErrUnknownCatalogSource)
	}
}

func loadCatalog(source domain.CatalogSource, catalog domain.CatalogIndex) error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	entries, err := source.Fetch(ctx)
	if err != nil {
		return err
	}
	if err = catalog.Load(ctx, entries); err != nil {
		return err
	}

	observability.FromContext(ctx).Info("catalog loaded", observability.Int("models", len(entries)))
	return nil
}

func newSessionStore(cfg *config.RedisConfig) (domain.SessionStore, error) {
	ctx := context.Background()

	if cfg.Addr == "" {
		observability.FromContext(ctx).Info("using in-memory session store")
		return memory.NewStore(), nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	store := redis.NewStore(client, cfg.Namespace)

	pingCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Info("using redis session store", observability.String("addr", cfg.Addr))
	return store, nil
}

func newAssistant(cfg *openai.Config) (domain.Assistant, error) {
	assistant, err := openai.NewAssistant(*cfg)
	if errors.Is(err, openai.ErrMissingAPIKey) {
		observability.FromContext(context.Background()).Warn("assistant API key not set, chat is disabled")
		return openai.Unavailable{}, nil
	}
	if err != nil {
		return nil, err
	}
	return assistant, nil
}
