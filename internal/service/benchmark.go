package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_dispatcher.go -package=mocks github.com/amit-batra/playing-with-llama/internal/service Dispatcher
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_benchmark_service.go -package=mocks github.com/amit-batra/playing-with-llama/internal/service BenchmarkService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amit-batra/playing-with-llama/internal/contextutil"
	"github.com/amit-batra/playing-with-llama/internal/dispatch"
	"github.com/amit-batra/playing-with-llama/internal/storage"
)

// Dispatcher runs a list of queries under a mode. *dispatch.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, queries []string, mode dispatch.Mode) (dispatch.Result, error)
}

// RunRequest asks for one dispatch.
// An empty Mode uses parallel; a zero Limit uses the configured default for the mode.
type RunRequest struct {
	Queries []string
	Mode    string
	Limit   int
}

// RunReport is the outcome of one dispatch, live or read back from history.
type RunReport struct {
	ID    string
	Mode  string
	Limit int
	Model string
	// QueryCount is the number of queries submitted. A failed run read back
	// from history has no Queries or Responses but keeps its count.
	QueryCount int
	Queries    []string
	Responses  []string
	Duration   time.Duration
	Status     string
	Error      string
	CreatedAt  time.Time
}

// RunSummary describes a recorded run without its responses.
type RunSummary struct {
	ID         string
	Mode       string
	Limit      int
	Model      string
	QueryCount int
	Duration   time.Duration
	Status     string
	Error      string
	CreatedAt  time.Time
}

// BenchmarkConfig holds the defaults a BenchmarkService fills into requests.
type BenchmarkConfig struct {
	Model          string
	BatchSize      int
	MaxConcurrency int
}

// BenchmarkService times query dispatches and keeps their history.
type BenchmarkService interface {
	// Run dispatches the queries once and records the run.
	Run(ctx context.Context, req RunRequest) (RunReport, error)
	// Compare runs the same queries under each mode in order, stopping at the first failure.
	Compare(ctx context.Context, queries []string, modes []dispatch.Mode) ([]RunReport, error)
	// GetRun returns a recorded run with its responses.
	GetRun(ctx context.Context, id string) (RunReport, error)
	// ListRuns returns up to limit recorded runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

const (
	// DefaultListLimit is used when ListRuns gets a non-positive limit.
	DefaultListLimit = 20
	maxListLimit     = 200
)

type benchmarkService struct {
	dispatcher Dispatcher
	store      storage.RunStore
	cfg        BenchmarkConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewBenchmarkService creates a BenchmarkService. store may be nil to disable run history.
func NewBenchmarkService(dispatcher Dispatcher, store storage.RunStore, cfg BenchmarkConfig) BenchmarkService {
	return &benchmarkService{
		dispatcher: dispatcher,
		store:      store,
		cfg:        cfg,
		logger:     slog.Default(),
		now:        time.Now,
	}
}

// Run validates req, dispatches it and records the outcome.
func (s *benchmarkService) Run(ctx context.Context, req RunRequest) (RunReport, error) {
	if len(req.Queries) == 0 {
		return RunReport{}, &ValidationError{Field: "queries", Message: "cannot be empty"}
	}
	if req.Limit < 0 {
		return RunReport{}, &ValidationError{Field: "limit", Message: "must not be negative"}
	}

	mode, err := s.resolveMode(req.Mode, req.Limit)
	if err != nil {
		return RunReport{}, err
	}
	return s.run(ctx, req.Queries, mode)
}

// Compare runs every mode against the same queries.
func (s *benchmarkService) Compare(ctx context.Context, queries []string, modes []dispatch.Mode) ([]RunReport, error) {
	if len(queries) == 0 {
		return nil, &ValidationError{Field: "queries", Message: "cannot be empty"}
	}
	if len(modes) == 0 {
		return nil, &ValidationError{Field: "modes", Message: "cannot be empty"}
	}
	for _, mode := range modes {
		if err := mode.Validate(); err != nil {
			return nil, &ValidationError{Field: "modes", Message: err.Error()}
		}
	}

	reports := make([]RunReport, 0, len(modes))
	for _, mode := range modes {
		report, err := s.run(ctx, queries, mode)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (s *benchmarkService) run(ctx context.Context, queries []string, mode dispatch.Mode) (RunReport, error) {
	logger := contextutil.LoggerFromContextOr(ctx, s.logger)

	report := RunReport{
		ID:         uuid.NewString(),
		Mode:       mode.Kind.String(),
		Limit:      mode.Limit,
		Model:      s.cfg.Model,
		QueryCount: len(queries),
		Queries:    queries,
		CreatedAt:  s.now().UTC(),
	}
	logger = logger.With("run_id", report.ID, "mode", mode.String())

	result, err := s.dispatcher.Dispatch(ctx, queries, mode)
	report.Duration = result.Duration
	if err != nil {
		report.Status = storage.RunStatusFailed
		report.Error = err.Error()
		s.record(ctx, logger, report)

		logger.ErrorContext(ctx, "benchmark run failed", "error", err)
		return RunReport{}, classifyDispatchError(err)
	}

	report.Responses = result.Responses
	report.Status = storage.RunStatusSucceeded
	s.record(ctx, logger, report)

	logger.InfoContext(ctx, "benchmark run completed",
		"queries", len(queries),
		"duration", result.Duration,
	)
	return report, nil
}

// record stores the run when history is enabled. Failures are logged only.
func (s *benchmarkService) record(ctx context.Context, logger *slog.Logger, report RunReport) {
	if s.store == nil {
		return
	}

	run := &storage.RunRecord{
		ID:         report.ID,
		Mode:       report.Mode,
		Limit:      report.Limit,
		Model:      report.Model,
		QueryCount: report.QueryCount,
		Duration:   report.Duration,
		Status:     report.Status,
		Error:      report.Error,
		CreatedAt:  report.CreatedAt,
	}
	responses := make([]storage.ResponseRecord, 0, len(report.Responses))
	for i, reply := range report.Responses {
		responses = append(responses, storage.ResponseRecord{
			Index:    i,
			Query:    report.Queries[i],
			Response: reply,
		})
	}

	// The caller's cancellation must not lose the record of a finished run.
	if err := s.store.Create(context.WithoutCancel(ctx), run, responses); err != nil {
		logger.WarnContext(ctx, "failed to record benchmark run", "error", err)
	}
}

// GetRun reads a run back from history.
func (s *benchmarkService) GetRun(ctx context.Context, id string) (RunReport, error) {
	logger := contextutil.LoggerFromContextOr(ctx, s.logger)

	if _, err := uuid.Parse(id); err != nil {
		return RunReport{}, &ValidationError{Field: "id", Message: "must be a UUID"}
	}
	if s.store == nil {
		return RunReport{}, WrapError(ErrNotFound, "run history is disabled")
	}

	run, responses, err := s.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return RunReport{}, WrapError(ErrNotFound, fmt.Sprintf("run %s", id))
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to load run", "run_id", id, "error", err)
		return RunReport{}, WrapError(err, "failed to load run")
	}

	report := RunReport{
		ID:         run.ID,
		Mode:       run.Mode,
		Limit:      run.Limit,
		Model:      run.Model,
		QueryCount: run.QueryCount,
		Queries:    make([]string, 0, len(responses)),
		Responses:  make([]string, 0, len(responses)),
		Duration:   run.Duration,
		Status:     run.Status,
		Error:      run.Error,
		CreatedAt:  run.CreatedAt,
	}
	for _, resp := range responses {
		report.Queries = append(report.Queries, resp.Query)
		report.Responses = append(report.Responses, resp.Response)
	}
	return report, nil
}

// ListRuns returns recent runs. limit is clamped to [1, 200]; non-positive means DefaultListLimit.
func (s *benchmarkService) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	logger := contextutil.LoggerFromContextOr(ctx, s.logger)

	if s.store == nil {
		return []RunSummary{}, nil
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, maxListLimit)

	runs, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list runs", "error", err)
		return nil, WrapError(err, "failed to list runs")
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, RunSummary{
			ID:         run.ID,
			Mode:       run.Mode,
			Limit:      run.Limit,
			Model:      run.Model,
			QueryCount: run.QueryCount,
			Duration:   run.Duration,
			Status:     run.Status,
			Error:      run.Error,
			CreatedAt:  run.CreatedAt,
		})
	}
	return summaries, nil
}

// resolveMode parses a mode name and fills in the configured default limit.
func (s *benchmarkService) resolveMode(name string, limit int) (dispatch.Mode, error) {
	if name == "" {
		name = dispatch.KindParallel.String()
	}
	if limit == 0 {
		limit = s.defaultLimit(name)
	}

	mode, err := dispatch.ParseMode(name, limit)
	if err != nil {
		return dispatch.Mode{}, &ValidationError{Field: "mode", Message: err.Error()}
	}
	return mode, nil
}

func (s *benchmarkService) defaultLimit(name string) int {
	probe, err := dispatch.ParseMode(name, 1)
	if err != nil {
		return 0
	}
	if probe.Kind == dispatch.KindParallel {
		return s.cfg.MaxConcurrency
	}
	return s.cfg.BatchSize
}

func classifyDispatchError(err error) error {
	switch {
	case errors.Is(err, dispatch.ErrInvalidMode):
		return &ValidationError{Field: "mode", Message: err.Error()}
	case errors.Is(err, dispatch.ErrService):
		return ExternalError(err, "dispatch failed")
	default:
		return WrapError(err, "dispatch failed")
	}
}
