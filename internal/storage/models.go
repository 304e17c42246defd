package storage

import "time"

// Run statuses.
const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// RunRecord is one dispatch recorded in the runs table.
type RunRecord struct {
	ID         string // UUID
	Mode       string // dispatch kind, e.g. "parallel"
	Limit      int    // batch size or worker count
	Model      string
	QueryCount int
	Duration   time.Duration
	Status     string
	Error      string // empty unless Status is RunStatusFailed
	CreatedAt  time.Time
}

// ResponseRecord is one query/response pair of a run, keyed by input position.
type ResponseRecord struct {
	Index    int
	Query    string
	Response string
}
