package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/amit-batra/playing-with-llama/internal/contextutil"
	"github.com/amit-batra/playing-with-llama/internal/llm"
)

// Pinger reports whether a backing store is reachable. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	models             llm.ModelLister
	modelName          string
	runStore           Pinger
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. runStore may be nil when run history is disabled.
func NewHealthHandler(models llm.ModelLister, modelName string, runStore Pinger) *HealthHandler {
	return &HealthHandler{
		models:             models,
		modelName:          modelName,
		runStore:           runStore,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK if healthy, 503 Service Unavailable if degraded or unhealthy.
// The LLM server being unreachable is unhealthy; a missing model or run
// history store is degraded.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Create context with timeout for health checks
	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	unhealthy := false

	switch h.checkModel(checkCtx, logger) {
	case checkOK:
		checks["llm"] = "ok"
	case checkMissing:
		checks["llm"] = "model_missing"
		issues = append(issues, "model_not_available")
	default:
		checks["llm"] = "error"
		issues = append(issues, "llm_unavailable")
		unhealthy = true
	}

	if h.runStore == nil {
		checks["run_history"] = "disabled"
	} else if err := h.runStore.PingContext(checkCtx); err != nil {
		logger.WarnContext(ctx, "run history health check failed", "error", err)
		checks["run_history"] = "error"
		issues = append(issues, "run_history_unavailable")
	} else {
		checks["run_history"] = "ok"
	}

	// Determine overall status
	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	if unhealthy {
		status = "unhealthy"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}

type checkResult int

const (
	checkOK checkResult = iota
	checkMissing
	checkFailed
)

// checkModel checks that the LLM server answers and serves the configured model.
func (h *HealthHandler) checkModel(ctx context.Context, logger *slog.Logger) checkResult {
	ok, err := llm.IsModelAvailable(ctx, h.models, h.modelName)
	if err != nil {
		logger.WarnContext(ctx, "LLM health check failed", "error", err)
		return checkFailed
	}
	if !ok {
		logger.WarnContext(ctx, "configured model is not available", "model", h.modelName)
		return checkMissing
	}
	return checkOK
}
