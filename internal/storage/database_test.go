package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "file in temp dir", path: filepath.Join(t.TempDir(), "runs.db")},
		{name: "missing parent dir", path: "/nonexistent/path/runs.db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(tt.path)
			if tt.wantErr {
				if err == nil {
					_ = db.Close()
					t.Fatal("New() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer func() {
				_ = db.Close()
			}()

			if got := db.Stats().MaxOpenConnections; got != 25 {
				t.Errorf("MaxOpenConnections = %d, want 25", got)
			}

			var fk int
			if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
				t.Fatalf("PRAGMA foreign_keys: %v", err)
			}
			if fk != 1 {
				t.Error("New() did not enable foreign keys")
			}
		})
	}
}

func TestMigrate_Objects(t *testing.T) {
	db := newTestDB(t)

	// Second run must be a no-op.
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}

	objects := []struct {
		kind, name, contains string
	}{
		{kind: "table", name: "runs", contains: "duration_ns"},
		{kind: "table", name: "run_responses", contains: "ON DELETE CASCADE"},
		{kind: "index", name: "idx_runs_created_at", contains: "created_at"},
	}
	for _, obj := range objects {
		var schema string
		err := db.QueryRow("SELECT sql FROM sqlite_master WHERE type = ? AND name = ?", obj.kind, obj.name).Scan(&schema)
		if err != nil {
			t.Errorf("%s %s missing: %v", obj.kind, obj.name, err)
			continue
		}
		if !strings.Contains(schema, obj.contains) {
			t.Errorf("%s %s schema = %q, want it to mention %q", obj.kind, obj.name, schema, obj.contains)
		}
	}
}

func TestMigrate_DeletingRunDropsResponses(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	run := &RunRecord{ID: "r", Mode: "batched", Limit: 2, Model: "m", QueryCount: 2, Status: RunStatusSucceeded, CreatedAt: time.Now()}
	err := NewRunRepo(db).Create(ctx, run, []ResponseRecord{
		{Index: 0, Query: "a", Response: "A"},
		{Index: 1, Query: "b", Response: "B"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", "r"); err != nil {
		t.Fatalf("delete run: %v", err)
	}

	var left int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM run_responses").Scan(&left); err != nil {
		t.Fatalf("count responses: %v", err)
	}
	if left != 0 {
		t.Errorf("run_responses rows after delete = %d, want 0", left)
	}
}

func TestMigrate_ResponsesRequireRun(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Exec("INSERT INTO run_responses (run_id, query_index, query, response) VALUES ('ghost', 0, 'q', 'r')")
	if err == nil {
		t.Error("insert without parent run succeeded, want foreign key error")
	}
}
