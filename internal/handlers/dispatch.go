package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/amit-batra/playing-with-llama/internal/contextutil"
	"github.com/amit-batra/playing-with-llama/internal/service"
)

// maxDispatchBody caps the request body of POST /api/dispatch.
const maxDispatchBody = 1 << 20

// DispatchHandler handles HTTP requests that time a dispatch of many queries.
type DispatchHandler struct {
	benchmarkService service.BenchmarkService
}

// NewDispatchHandler creates a new DispatchHandler.
func NewDispatchHandler(benchmarkService service.BenchmarkService) *DispatchHandler {
	return &DispatchHandler{benchmarkService: benchmarkService}
}

// DispatchRequest represents the HTTP request payload for a dispatch.
type DispatchRequest struct {
	Queries []string `json:"queries"`
	// Mode is one of sequential, batched, parallel, chunked-parallel. Defaults to parallel.
	Mode string `json:"mode,omitempty"`
	// Limit is the batch size or worker count. Zero uses the server default.
	Limit int `json:"limit,omitempty"`
}

// DispatchResponse represents the HTTP response payload for a dispatch.
type DispatchResponse struct {
	ID         string   `json:"id"`
	Mode       string   `json:"mode"`
	Limit      int      `json:"limit"`
	Model      string   `json:"model,omitempty"`
	Responses  []string `json:"responses"`
	DurationMs int64    `json:"duration_ms"`
}

// ServeHTTP handles POST /api/dispatch.
func (h *DispatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req DispatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDispatchBody)).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.benchmarkService.Run(ctx, service.RunRequest{
		Queries: req.Queries,
		Mode:    req.Mode,
		Limit:   req.Limit,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to dispatch queries")
		return
	}

	writeJSON(w, http.StatusOK, DispatchResponse{
		ID:         report.ID,
		Mode:       report.Mode,
		Limit:      report.Limit,
		Model:      report.Model,
		Responses:  report.Responses,
		DurationMs: report.Duration.Milliseconds(),
	})
}
