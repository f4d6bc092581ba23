package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talentops/hrsync/internal/batch/domain"
)

// Config holds batch engine tuning. BatchSize times the pacing interval must
// stay under TickBudget, or a tick would be cut off mid-slice every time.
type Config struct {
	BatchSize         int
	MaxCallsPerMinute int
	TickBudget        time.Duration
}

// Scheduler drives one batch job to completion across bounded tick
// invocations. The checkpoint is the only state that survives between ticks;
// identifier and label snapshots are rebuilt fresh on every tick.
type Scheduler struct {
	rows        RowStore
	checkpoints CheckpointStore
	api         EmployeeAPI
	trigger     TickTrigger
	pacer       *Pacer
	batchSize   int
	tickBudget  time.Duration
	logger      *slog.Logger
}

// NewScheduler creates the batch scheduler.
func NewScheduler(rows RowStore, checkpoints CheckpointStore, api EmployeeAPI, trigger TickTrigger, cfg *Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		rows:        rows,
		checkpoints: checkpoints,
		api:         api,
		trigger:     trigger,
		pacer:       NewPacer(cfg.MaxCallsPerMinute),
		batchSize:   cfg.BatchSize,
		tickBudget:  cfg.TickBudget,
		logger:      logger,
	}
}

// Start creates the checkpoint for a new job and arms the tick trigger.
// Exactly one job may be active: the checkpoint store rejects a second
// create with domain.ErrJobAlreadyActive.
func (s *Scheduler) Start(ctx context.Context, jobID string, target domain.FieldTarget) (*domain.JobCheckpoint, error) {
	total, err := s.rows.CountRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count staged rows: %w", err)
	}
	if total == 0 {
		return nil, domain.ErrNoStagedRows
	}

	if jobID == "" {
		jobID = uuid.New().String()
	}

	now := time.Now().UTC()
	cp := &domain.JobCheckpoint{
		JobID:          jobID,
		FieldPath:      target.FieldPath,
		FieldType:      target.FieldType,
		EnumListName:   target.EnumListName,
		NextRowIndex:   0,
		StartedAt:      now,
		LastProgressAt: now,
	}

	if err := s.checkpoints.Create(ctx, cp); err != nil {
		return nil, err
	}

	if err := s.trigger.Arm(s.runTick); err != nil {
		return nil, fmt.Errorf("failed to arm tick trigger: %w", err)
	}

	s.logger.Info("Batch job started",
		slog.String("job_id", cp.JobID),
		slog.String("field_path", target.FieldPath),
		slog.Int("total_rows", total),
		slog.Int("batch_size", s.batchSize),
	)

	return cp, nil
}

// Resume re-arms the tick trigger for a checkpoint left by a previous
// process, so a restart picks the job up where it stopped. Returns false
// when there is nothing to resume.
func (s *Scheduler) Resume(ctx context.Context) (bool, error) {
	cp, err := s.checkpoints.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrCheckpointNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.trigger.Arm(s.runTick); err != nil {
		return false, fmt.Errorf("failed to arm tick trigger: %w", err)
	}

	s.logger.Info("Resuming batch job from checkpoint",
		slog.String("job_id", cp.JobID),
		slog.Int("next_row_index", cp.NextRowIndex),
	)

	return true, nil
}

// runTick is the trigger callback: one bounded invocation with its own
// deadline, so a hang in one tick cannot block future ticks.
func (s *Scheduler) runTick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.tickBudget)
	defer cancel()

	if err := s.Tick(ctx); err != nil {
		s.logger.Error("Tick failed",
			slog.String("error", err.Error()),
		)
	}
}

// Tick processes one bounded slice of pending rows and persists the advanced
// checkpoint. A missing checkpoint means the job was torn down out-of-band;
// the tick disarms the dangling trigger and exits cleanly.
func (s *Scheduler) Tick(ctx context.Context) error {
	cp, err := s.checkpoints.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrCheckpointNotFound) {
			s.logger.Info("No active job checkpoint, disarming trigger")
			s.trigger.Disarm()
			return nil
		}
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	total, err := s.rows.CountRows(ctx)
	if err != nil {
		return fmt.Errorf("failed to count rows: %w", err)
	}

	if cp.NextRowIndex >= total {
		return s.finish(ctx, cp)
	}

	// Fresh per-tick snapshots; staleness between ticks is tolerated by the
	// resolver's remote fallback.
	resolver, err := NewResolver(ctx, s.api, s.logger)
	if err != nil {
		return err
	}
	translator, err := NewTranslator(ctx, s.api, cp.EnumListName, s.logger)
	if err != nil {
		return err
	}
	executor := NewExecutor(s.api, resolver, translator, s.pacer, cp.Target(), s.logger)

	end := cp.NextRowIndex + s.batchSize
	if end > total {
		end = total
	}

	slice, err := s.rows.GetRows(ctx, cp.NextRowIndex, end)
	if err != nil {
		return fmt.Errorf("failed to load row slice: %w", err)
	}

	s.logger.Info("Processing batch slice",
		slog.String("job_id", cp.JobID),
		slog.Int("from", cp.NextRowIndex),
		slog.Int("to", end),
		slog.Int("total_rows", total),
	)

	processed := 0
	for i := range slice {
		if ctx.Err() != nil {
			// Out of budget; persist what was done and let the next tick
			// continue from here.
			s.logger.Warn("Tick budget exhausted mid-slice",
				slog.Int("processed", processed),
			)
			break
		}

		row := &slice[i]

		// A crash mid-slice leaves finished rows behind an unadvanced
		// checkpoint. Their outcome stands; only tally them.
		if !row.IsTerminal() {
			row.Status = domain.RowStatusProcessing
			if err := s.rows.UpdateRow(ctx, row); err != nil {
				return fmt.Errorf("failed to mark row %d processing: %w", row.RowIndex, err)
			}

			executor.Execute(ctx, row)

			if ctx.Err() != nil && row.Status == domain.RowStatusFailed && row.HTTPCode == 0 {
				// The budget expired mid-call. That is a scheduling
				// artifact, not a row outcome; leave the stored row
				// PROCESSING for the next tick to redo.
				s.logger.Warn("Tick budget expired mid-row",
					slog.Int("row_index", row.RowIndex),
				)
				break
			}

			if err := s.rows.UpdateRow(ctx, row); err != nil {
				return fmt.Errorf("failed to record row %d outcome: %w", row.RowIndex, err)
			}
		}

		cp.Record(row.Status)
		processed++
	}

	cp.NextRowIndex += processed
	cp.LastProgressAt = time.Now().UTC()
	if err := s.checkpoints.Update(ctx, cp); err != nil {
		return fmt.Errorf("failed to persist checkpoint: %w", err)
	}

	if cp.NextRowIndex >= total {
		return s.finish(ctx, cp)
	}

	return nil
}

// finish tears the job down: trigger disarmed, checkpoint deleted, final
// counters emitted.
func (s *Scheduler) finish(ctx context.Context, cp *domain.JobCheckpoint) error {
	s.trigger.Disarm()
	if err := s.checkpoints.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	s.logger.Info("Batch job completed",
		slog.String("job_id", cp.JobID),
		slog.Int("completed", cp.Completed),
		slog.Int("skipped", cp.Skipped),
		slog.Int("failed", cp.Failed),
	)

	return nil
}

// Cancel stops the job: the trigger is disarmed and the checkpoint deleted.
// Rows already processed keep their terminal status; unprocessed rows stay
// PENDING and can be restarted as a new job.
func (s *Scheduler) Cancel(ctx context.Context) error {
	cp, err := s.checkpoints.Get(ctx)
	if err != nil {
		return err
	}

	s.trigger.Disarm()
	if err := s.checkpoints.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	s.logger.Info("Batch job cancelled",
		slog.String("job_id", cp.JobID),
		slog.Int("next_row_index", cp.NextRowIndex),
	)

	return nil
}
