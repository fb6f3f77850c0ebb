package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-assistant/internal/merge"
)

// DefaultRunLimit caps ListRuns when the caller passes a non-positive limit.
const DefaultRunLimit = 50

// MergeRun is one row of the merge_runs table.
type MergeRun struct {
	ID           uuid.UUID `json:"id"`
	Mode         string    `json:"mode"`
	State        string    `json:"state"`
	Outcome      string    `json:"outcome"`
	FilesRead    []string  `json:"files_read"`
	Skipped      []string  `json:"skipped"`
	Fixes        []string  `json:"fixes"`
	Output       string    `json:"output,omitempty"`
	FailedOutput string    `json:"failed_output,omitempty"`
	Diagnostic   string    `json:"diagnostic,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// RunFromResult converts an engine result to a row.
func RunFromResult(r *merge.Result) MergeRun {
	return MergeRun{
		ID:           r.RunID,
		Mode:         string(r.Mode),
		State:        string(r.State),
		Outcome:      string(r.Outcome),
		FilesRead:    nonNil(r.FilesRead),
		Skipped:      nonNil(r.Skipped),
		Fixes:        nonNil(r.Fixes),
		Output:       r.Output,
		FailedOutput: r.FailedOutput,
		Diagnostic:   r.Diagnostic,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}
}

// RecordRun stores the outcome of a merge pass. It satisfies merge.Recorder.
func (db *DB) RecordRun(ctx context.Context, result *merge.Result) error {
	run := RunFromResult(result)

	filesRead, err := json.Marshal(run.FilesRead)
	if err != nil {
		return fmt.Errorf("failed to marshal files_read: %w", err)
	}
	skipped, err := json.Marshal(run.Skipped)
	if err != nil {
		return fmt.Errorf("failed to marshal skipped: %w", err)
	}
	fixes, err := json.Marshal(run.Fixes)
	if err != nil {
		return fmt.Errorf("failed to marshal fixes: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO merge_runs (id, mode, state, outcome, files_read, skipped, fixes,
		                         output, failed_output, diagnostic, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET state = $3, outcome = $4, finished_at = $12`,
		run.ID, run.Mode, run.State, run.Outcome, filesRead, skipped, fixes,
		run.Output, run.FailedOutput, run.Diagnostic, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record merge run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent merge runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]MergeRun, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, mode, state, outcome, files_read, skipped, fixes,
		        output, failed_output, diagnostic, started_at, finished_at
		 FROM merge_runs
		 ORDER BY started_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list merge runs: %w", err)
	}
	defer rows.Close()

	var runs []MergeRun
	for rows.Next() {
		var run MergeRun
		var filesRead, skipped, fixes []byte
		if err := rows.Scan(&run.ID, &run.Mode, &run.State, &run.Outcome,
			&filesRead, &skipped, &fixes,
			&run.Output, &run.FailedOutput, &run.Diagnostic,
			&run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan merge run: %w", err)
		}
		if err := unmarshalList(filesRead, &run.FilesRead); err != nil {
			return nil, err
		}
		if err := unmarshalList(skipped, &run.Skipped); err != nil {
			return nil, err
		}
		if err := unmarshalList(fixes, &run.Fixes); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating merge runs: %w", err)
	}
	return runs, nil
}

func unmarshalList(data []byte, out *[]string) error {
	if len(data) == 0 {
		*out = []string{}
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal list column: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ merge.Recorder = (*DB)(nil)
