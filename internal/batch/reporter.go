package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talentops/hrsync/internal/batch/domain"
)

// JobStatus is a point-in-time progress snapshot for operator displays. It
// may show mid-batch state; that is expected.
type JobStatus struct {
	Active         bool           `json:"active"`
	JobID          string         `json:"job_id,omitempty"`
	FieldPath      string         `json:"field_path,omitempty"`
	TotalRows      int            `json:"total_rows"`
	NextRowIndex   int            `json:"next_row_index"`
	Completed      int            `json:"completed"`
	Skipped        int            `json:"skipped"`
	Failed         int            `json:"failed"`
	StartedAt      time.Time      `json:"started_at,omitempty"`
	LastProgressAt time.Time      `json:"last_progress_at,omitempty"`
	RowCounts      map[string]int `json:"row_counts"`
}

// RetrySummary reports the outcome of a retry-failed pass.
type RetrySummary struct {
	Attempted int `json:"attempted"`
	Completed int `json:"completed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Reporter is the operator-facing side of the batch engine: progress
// snapshots, cancellation, and the synchronous retry-failed pass. It shares
// the executor pipeline with the scheduler but never touches the tick
// trigger, so it can live in a different process.
type Reporter struct {
	rows        RowStore
	checkpoints CheckpointStore
	api         EmployeeAPI
	pacer       *Pacer
	logger      *slog.Logger
}

// NewReporter creates the reporter.
func NewReporter(rows RowStore, checkpoints CheckpointStore, api EmployeeAPI, maxCallsPerMinute int, logger *slog.Logger) *Reporter {
	return &Reporter{
		rows:        rows,
		checkpoints: checkpoints,
		api:         api,
		pacer:       NewPacer(maxCallsPerMinute),
		logger:      logger,
	}
}

// Status assembles a progress snapshot from the checkpoint and the row
// table tallies. Without an active checkpoint the snapshot still carries the
// per-status row counts of the last run.
func (r *Reporter) Status(ctx context.Context) (*JobStatus, error) {
	total, err := r.rows.CountRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	counts, err := r.rows.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to tally rows: %w", err)
	}

	status := &JobStatus{
		TotalRows: total,
		RowCounts: counts,
	}

	cp, err := r.checkpoints.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrCheckpointNotFound) {
			return status, nil
		}
		return nil, err
	}

	status.Active = true
	status.JobID = cp.JobID
	status.FieldPath = cp.FieldPath
	status.NextRowIndex = cp.NextRowIndex
	status.Completed = cp.Completed
	status.Skipped = cp.Skipped
	status.Failed = cp.Failed
	status.StartedAt = cp.StartedAt
	status.LastProgressAt = cp.LastProgressAt

	return status, nil
}

// CancelJob deletes the active checkpoint. The scheduler's next tick finds
// it missing and disarms its own trigger, which is how cancellation crosses
// the process boundary.
func (r *Reporter) CancelJob(ctx context.Context) error {
	cp, err := r.checkpoints.Get(ctx)
	if err != nil {
		return err
	}

	if err := r.checkpoints.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	r.logger.Info("Batch job cancel requested",
		slog.String("job_id", cp.JobID),
		slog.Int("next_row_index", cp.NextRowIndex),
	)

	return nil
}

// RetryFailed re-runs only the rows currently in FAILED status through the
// executor pipeline, synchronously and without checkpointing. Rejected while
// a batch job is active, since the two would compete for the call budget.
func (r *Reporter) RetryFailed(ctx context.Context, target domain.FieldTarget) (*RetrySummary, error) {
	if _, err := r.checkpoints.Get(ctx); err == nil {
		return nil, domain.ErrJobAlreadyActive
	} else if !errors.Is(err, domain.ErrCheckpointNotFound) {
		return nil, err
	}

	failed, err := r.rows.ListFailedRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed rows: %w", err)
	}
	if len(failed) == 0 {
		return &RetrySummary{}, nil
	}

	resolver, err := NewResolver(ctx, r.api, r.logger)
	if err != nil {
		return nil, err
	}
	translator, err := NewTranslator(ctx, r.api, target.EnumListName, r.logger)
	if err != nil {
		return nil, err
	}
	executor := NewExecutor(r.api, resolver, translator, r.pacer, target, r.logger)

	r.logger.Info("Retrying failed rows",
		slog.Int("count", len(failed)),
		slog.String("field_path", target.FieldPath),
	)

	summary := &RetrySummary{}
	for i := range failed {
		row := &failed[i]
		row.Status = domain.RowStatusProcessing
		row.HTTPCode = 0
		row.ErrorMessage = ""
		if err := r.rows.UpdateRow(ctx, row); err != nil {
			return summary, fmt.Errorf("failed to mark row %d processing: %w", row.RowIndex, err)
		}

		executor.Execute(ctx, row)

		if err := r.rows.UpdateRow(ctx, row); err != nil {
			return summary, fmt.Errorf("failed to record row %d outcome: %w", row.RowIndex, err)
		}

		summary.Attempted++
		switch row.Status {
		case domain.RowStatusCompleted:
			summary.Completed++
		case domain.RowStatusSkipped:
			summary.Skipped++
		case domain.RowStatusFailed:
			summary.Failed++
		}
	}

	return summary, nil
}
