package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_run_store.go -package=mocks github.com/amit-batra/playing-with-llama/internal/storage RunStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// RunStore defines the interface for run history operations.
type RunStore interface {
	// Create stores a run and its responses in one transaction.
	Create(ctx context.Context, run *RunRecord, responses []ResponseRecord) error
	// Get returns a run and its responses ordered by query index. Returns ErrNotFound if missing.
	Get(ctx context.Context, id string) (*RunRecord, []ResponseRecord, error)
	// ListRecent returns up to limit runs, newest first.
	ListRecent(ctx context.Context, limit int) ([]RunRecord, error)
}

// RunRepo provides methods for run history operations.
// It implements the RunStore interface.
type RunRepo struct {
	db *sql.DB
}

// NewRunRepo creates a new RunRepo.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

// Create stores a run and its responses. run.ID must be set.
func (r *RunRepo) Create(ctx context.Context, run *RunRecord, responses []ResponseRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, mode, run_limit, model, query_count, duration_ns, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.Limit, run.Model, run.QueryCount, int64(run.Duration), run.Status, run.Error, run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, resp := range responses {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO run_responses (run_id, query_index, query, response) VALUES (?, ?, ?, ?)",
			run.ID, resp.Index, resp.Query, resp.Response,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run response: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// Get returns a run by ID together with its responses.
func (r *RunRepo) Get(ctx context.Context, id string) (*RunRecord, []ResponseRecord, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx,
		`SELECT id, mode, run_limit, model, query_count, duration_ns, status, error, created_at
		FROM runs WHERE id = ?`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query run: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT query_index, query, response FROM run_responses WHERE run_id = ? ORDER BY query_index",
		id,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query run responses: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	responses := []ResponseRecord{}
	for rows.Next() {
		var resp ResponseRecord
		if err := rows.Scan(&resp.Index, &resp.Query, &resp.Response); err != nil {
			return nil, nil, fmt.Errorf("failed to scan run response: %w", err)
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("row iteration error: %w", err)
	}

	return run, responses, nil
}

// ListRecent returns up to limit runs ordered by creation time, newest first.
func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, mode, run_limit, model, query_count, duration_ns, status, error, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	runs := []RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		run        RunRecord
		durationNs int64
		errText    sql.NullString
	)
	if err := row.Scan(
		&run.ID, &run.Mode, &run.Limit, &run.Model, &run.QueryCount,
		&durationNs, &run.Status, &errText, &run.CreatedAt,
	); err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationNs)
	run.Error = errText.String
	return &run, nil
}
