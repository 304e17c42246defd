package main

import (
	"database/sql"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/amit-batra/playing-with-llama/internal/config"
	"github.com/amit-batra/playing-with-llama/internal/dispatch"
	"github.com/amit-batra/playing-with-llama/internal/http"
	"github.com/amit-batra/playing-with-llama/internal/llm"
	"github.com/amit-batra/playing-with-llama/internal/metrics"
	"github.com/amit-batra/playing-with-llama/internal/service"
	"github.com/amit-batra/playing-with-llama/internal/storage"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Create LLM client (external service layer)
	llmClient, err := llm.NewClient(cfg.LLMBackend, cfg.LLMBaseURL, cfg.LLMAPIKey)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	prompt := llm.Prompt{Model: cfg.LLMModelName, System: cfg.SystemPrompt}

	// Run history is optional
	var (
		db       *sql.DB
		runStore storage.RunStore
		deps     = &http.Deps{}
	)
	if cfg.RunHistoryEnabled() {
		db, err = storage.New(cfg.RunsDBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer func() {
			_ = db.Close()
		}()

		if err := storage.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		runStore = storage.NewRunRepo(db)
		deps.RunStore = db
		slog.Info("Run history enabled", "path", cfg.RunsDBPath)
	} else {
		slog.Info("Run history disabled")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	dispatcher := dispatch.New(llmClient,
		dispatch.WithPrompt(prompt),
		dispatch.WithCallTimeout(cfg.CallTimeout),
		dispatch.WithObserver(collector),
		dispatch.WithLogger(logger),
	)

	deps.ChatService = service.NewChatService(llmClient, prompt)
	deps.BenchmarkService = service.NewBenchmarkService(dispatcher, runStore, service.BenchmarkConfig{
		Model:          cfg.LLMModelName,
		BatchSize:      cfg.BatchSize,
		MaxConcurrency: cfg.MaxConcurrency,
	})
	deps.Models = llmClient
	deps.ModelName = cfg.LLMModelName
	deps.Gatherer = registry
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration",
		"backend", cfg.LLMBackend,
		"base_url", cfg.LLMBaseURL,
		"model", cfg.LLMModelName,
		"batch_size", cfg.BatchSize,
		"max_concurrency", cfg.MaxConcurrency,
		"call_timeout", cfg.CallTimeout,
	)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
