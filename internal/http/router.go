package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amit-batra/playing-with-llama/internal/handlers"
	"github.com/amit-batra/playing-with-llama/internal/llm"
	"github.com/amit-batra/playing-with-llama/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService      service.ChatService
	BenchmarkService service.BenchmarkService
	// Models and ModelName back the LLM health check.
	Models    llm.ModelLister
	ModelName string
	// RunStore is pinged by the health check. Nil when run history is disabled.
	RunStore handlers.Pinger
	// Gatherer is exposed at /metrics. Nil means prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)

	// Add CORS middleware
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	dispatchHandler := handlers.NewDispatchHandler(deps.BenchmarkService)
	runsHandler := handlers.NewRunsHandler(deps.BenchmarkService)
	healthHandler := handlers.NewHealthHandler(deps.Models, deps.ModelName, deps.RunStore)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat", chatHandler)
		r.Method(http.MethodPost, "/dispatch", dispatchHandler)
		r.Get("/runs", runsHandler.List)
		r.Get("/runs/{id}", runsHandler.Get)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
