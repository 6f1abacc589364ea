// Package setup builds a Coordinator and its collaborators from environment
// configuration. The Lambda, HTTP server and CLI entry points share it.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"fitcoach"
	"fitcoach/auth"
	"fitcoach/cache"
	"fitcoach/chat"
	"fitcoach/coordinator"
	"fitcoach/llm"
	"fitcoach/llm/bedrock"
	"fitcoach/llm/mock"
	"fitcoach/llm/ollama"
	"fitcoach/server"
	"fitcoach/slack"
	"fitcoach/storage"
	"fitcoach/tools"
)

type Config struct {
	Model fitcoach.ModelConfig
	Agent fitcoach.AgentConfig
	Store fitcoach.StoreConfig
	Cache fitcoach.CacheConfig
	Slack fitcoach.SlackConfig
}

// Load decodes every section of Config from the environment.
func Load() (Config, error) {
	var cfg Config
	for _, target := range []any{&cfg.Model, &cfg.Agent, &cfg.Store, &cfg.Cache, &cfg.Slack} {
		if err := envdecode.Decode(target); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	return cfg, nil
}

// App is a ready Coordinator plus the resources it holds open.
type App struct {
	Coordinator *coordinator.Coordinator
	History     chat.History
	Store       storage.Store

	closers []func() error
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

type BuildOpts struct {
	Logger         fitcoach.ConsultationLogger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// LLM overrides the client selected by Config.Model.Provider.
	LLM llm.Client
}

func Build(ctx context.Context, cfg Config, opts BuildOpts) (*App, error) {
	app := &App{}

	store, err := NewStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	app.Store = store

	registry, err := tools.NewRegistry(store, time.Now)
	if err != nil {
		return nil, fmt.Errorf("create tool registry: %w", err)
	}

	history, closeHistory, err := NewHistory(ctx, cfg.Store, store)
	if err != nil {
		return nil, err
	}
	app.History = history
	app.closers = append(app.closers, closeHistory)

	c, closeCache, err := NewCache(cfg.Cache)
	if err != nil {
		app.Close() // nolint: errcheck
		return nil, err
	}
	app.closers = append(app.closers, closeCache)

	client := opts.LLM
	if client == nil {
		client, err = NewLLMClient(ctx, cfg.Model)
		if err != nil {
			app.Close() // nolint: errcheck
			return nil, err
		}
	}

	app.Coordinator, err = coordinator.New(client, registry, coordinator.Options{
		MaxIterations:        cfg.Agent.MaxIterations,
		HistoryLimit:         cfg.Agent.HistoryLimit,
		SafetyAlertThreshold: cfg.Agent.SafetyAlertThreshold,
		ConsultTimeout:       cfg.Agent.ConsultTimeout,
		Logger:               opts.Logger,
		History:              history,
		Cache:                c,
		Notifier:             NewNotifier(cfg.Slack),
		TracerProvider:       opts.TracerProvider,
		MeterProvider:        opts.MeterProvider,
	})
	if err != nil {
		app.Close() // nolint: errcheck
		return nil, err
	}

	slog.Info("SETUP: Coordinator ready",
		"provider", cfg.Model.Provider,
		"store", cfg.Store.Backend,
		"history", cfg.Store.HistoryBackend,
		"cache", cfg.Cache.Backend)
	return app, nil
}

func NewStore(ctx context.Context, cfg fitcoach.StoreConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "", "file":
		return storage.NewFile(cfg.FileRoot), nil
	case "memory":
		return storage.NewMemory(nil), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, errors.New("STORE_S3_BUCKET must be set for the s3 store")
		}
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return storage.NewS3(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// NewHistory returns the chat history and a func that releases it.
func NewHistory(ctx context.Context, cfg fitcoach.StoreConfig, store storage.Store) (chat.History, func() error, error) {
	nop := func() error { return nil }

	switch cfg.HistoryBackend {
	case "", "store":
		return chat.NewStoreHistory(store, cfg.MaxExchanges), nop, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nop, errors.New("DATABASE_URL must be set for postgres history")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nop, fmt.Errorf("connect to postgres: %w", err)
		}
		h := chat.NewPostgresHistory(pool)
		if err := h.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nop, err
		}
		return h, func() error { pool.Close(); return nil }, nil
	default:
		return nil, nop, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}

func NewCache(cfg fitcoach.CacheConfig) (cache.Cache, func() error, error) {
	nop := func() error { return nil }

	switch cfg.Backend {
	case "", "memory":
		return cache.NewMemory(cache.WithMemoryTTL(cfg.TTL), cache.WithMaxEntries(cfg.MaxEntries)), nop, nil
	case "redis":
		r := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cache.WithTTL(cfg.TTL))
		return r, r.Close, nil
	case "none":
		return cache.Nop{}, nop, nil
	default:
		return nil, nop, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// NewNotifier returns nil when no webhook is configured, which disables
// safety alerts.
func NewNotifier(cfg fitcoach.SlackConfig) fitcoach.SafetyNotifier {
	if cfg.WebhookURL == "" {
		return nil
	}
	return slack.NewClient(cfg.WebhookURL, cfg.Channel, http.DefaultClient)
}

func NewLLMClient(ctx context.Context, cfg fitcoach.ModelConfig) (llm.Client, error) {
	switch cfg.Provider {
	case "", "bedrock":
		brc, err := newBedrockRuntimeClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create bedrock client: %w", err)
		}
		return bedrock.NewClient(brc, bedrock.Options{
			ModelID:     cfg.ModelID,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		}), nil
	case "ollama":
		return ollama.NewClient(ollama.ClientOpts{BaseEndpoint: cfg.OllamaEndpoint, ModelID: cfg.ModelID}), nil
	case "mock":
		return mock.NewLLMClient(), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

// NewHTTPServer puts the chat API for app behind bearer JWT auth.
func NewHTTPServer(app *App, cfg fitcoach.ServerConfig) (*http.Server, error) {
	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.NewHandler(app.Coordinator, app.History, signer),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
