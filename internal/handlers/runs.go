package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/amit-batra/playing-with-llama/internal/contextutil"
	"github.com/amit-batra/playing-with-llama/internal/service"
)

// RunsHandler serves the recorded run history.
type RunsHandler struct {
	benchmarkService service.BenchmarkService
}

// NewRunsHandler creates a new RunsHandler.
func NewRunsHandler(benchmarkService service.BenchmarkService) *RunsHandler {
	return &RunsHandler{benchmarkService: benchmarkService}
}

// RunSummaryResponse is one entry of GET /api/runs.
type RunSummaryResponse struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	Limit      int    `json:"limit"`
	Model      string `json:"model"`
	QueryCount int    `json:"query_count"`
	DurationMs int64  `json:"duration_ms"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// RunListResponse is the payload of GET /api/runs.
type RunListResponse struct {
	Runs []RunSummaryResponse `json:"runs"`
}

// RunDetailResponse is the payload of GET /api/runs/{id}.
type RunDetailResponse struct {
	RunSummaryResponse
	Results []QueryResult `json:"results"`
}

// QueryResult pairs a query with its response.
type QueryResult struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// List handles GET /api/runs. The optional limit query parameter bounds the result.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			logger.WarnContext(ctx, "invalid limit parameter", "limit", raw)
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.benchmarkService.ListRuns(ctx, limit)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list runs")
		return
	}

	resp := RunListResponse{Runs: make([]RunSummaryResponse, 0, len(runs))}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, RunSummaryResponse{
			ID:         run.ID,
			Mode:       run.Mode,
			Limit:      run.Limit,
			Model:      run.Model,
			QueryCount: run.QueryCount,
			DurationMs: run.Duration.Milliseconds(),
			Status:     run.Status,
			Error:      run.Error,
			CreatedAt:  run.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/runs/{id}.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.benchmarkService.GetRun(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load run")
		return
	}

	resp := RunDetailResponse{
		RunSummaryResponse: RunSummaryResponse{
			ID:         report.ID,
			Mode:       report.Mode,
			Limit:      report.Limit,
			Model:      report.Model,
			QueryCount: report.QueryCount,
			DurationMs: report.Duration.Milliseconds(),
			Status:     report.Status,
			Error:      report.Error,
			CreatedAt:  report.CreatedAt.UTC().Format(time.RFC3339),
		},
		Results: make([]QueryResult, 0, len(report.Responses)),
	}
	for i, reply := range report.Responses {
		resp.Results = append(resp.Results, QueryResult{Query: report.Queries[i], Response: reply})
	}
	writeJSON(w, http.StatusOK, resp)
}
