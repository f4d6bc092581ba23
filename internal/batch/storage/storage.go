package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/talentops/hrsync/internal/batch/domain"
)

// Storage implements the batch engine's row table and checkpoint repository
// on PostgreSQL.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ReplaceRows discards the current uploader table and stages the given pairs
// as PENDING rows in order.
func (s *Storage) ReplaceRows(ctx context.Context, pairs []domain.StagedPair) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM staged_rows`); err != nil {
		return fmt.Errorf("failed to clear staged rows: %w", err)
	}

	query := `
		INSERT INTO staged_rows (row_index, business_id, raw_value, status, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	now := time.Now().UTC()
	for i, pair := range pairs {
		if _, err := tx.ExecContext(ctx, query, i, pair.BusinessID, pair.RawValue, domain.RowStatusPending, now); err != nil {
			return fmt.Errorf("failed to stage row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit staged rows: %w", err)
	}

	s.logger.Info("Rows staged",
		slog.Int("count", len(pairs)),
	)

	return nil
}

// CountRows returns the total number of staged rows.
func (s *Storage) CountRows(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM staged_rows`); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

// GetRows returns rows with index in [from, to), in index order.
func (s *Storage) GetRows(ctx context.Context, from, to int) ([]domain.UpdateRow, error) {
	query := `
		SELECT row_index, business_id, raw_value, resolved_record_id,
		       status, http_code, error_message, verified_value, updated_at
		FROM staged_rows
		WHERE row_index >= $1 AND row_index < $2
		ORDER BY row_index
	`

	var rows []domain.UpdateRow
	if err := s.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// ListRows returns every staged row in index order.
func (s *Storage) ListRows(ctx context.Context) ([]domain.UpdateRow, error) {
	query := `
		SELECT row_index, business_id, raw_value, resolved_record_id,
		       status, http_code, error_message, verified_value, updated_at
		FROM staged_rows
		ORDER BY row_index
	`

	var rows []domain.UpdateRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	return rows, nil
}

// ListFailedRows returns rows currently in FAILED status, in index order.
func (s *Storage) ListFailedRows(ctx context.Context) ([]domain.UpdateRow, error) {
	query := `
		SELECT row_index, business_id, raw_value, resolved_record_id,
		       status, http_code, error_message, verified_value, updated_at
		FROM staged_rows
		WHERE status = $1
		ORDER BY row_index
	`

	var rows []domain.UpdateRow
	if err := s.db.SelectContext(ctx, &rows, query, domain.RowStatusFailed); err != nil {
		return nil, fmt.Errorf("failed to list failed rows: %w", err)
	}
	return rows, nil
}

// UpdateRow writes the row's outcome columns back by row index.
func (s *Storage) UpdateRow(ctx context.Context, row *domain.UpdateRow) error {
	query := `
		UPDATE staged_rows
		SET resolved_record_id = $1,
		    status = $2,
		    http_code = $3,
		    error_message = $4,
		    verified_value = $5,
		    updated_at = NOW()
		WHERE row_index = $6
	`

	result, err := s.db.ExecContext(ctx, query,
		row.ResolvedRecordID,
		row.Status,
		row.HTTPCode,
		row.ErrorMessage,
		row.VerifiedValue,
		row.RowIndex,
	)
	if err != nil {
		return fmt.Errorf("failed to update row %d: %w", row.RowIndex, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("row %d not found", row.RowIndex)
	}

	return nil
}

// CountByStatus tallies rows per status.
func (s *Storage) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) AS count FROM staged_rows GROUP BY status`

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to tally rows: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tallies: %w", err)
	}

	return counts, nil
}

// Create persists a new job checkpoint. The table admits a single row
// (id = 1), which is what enforces exactly-one-active-job.
func (s *Storage) Create(ctx context.Context, cp *domain.JobCheckpoint) error {
	query := `
		INSERT INTO job_checkpoints (
			id, job_id, field_path, field_type, enum_list_name,
			next_row_index, completed, skipped, failed,
			started_at, last_progress_at
		) VALUES (
			1, $1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10
		)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query,
		cp.JobID,
		cp.FieldPath,
		cp.FieldType,
		cp.EnumListName,
		cp.NextRowIndex,
		cp.Completed,
		cp.Skipped,
		cp.Failed,
		cp.StartedAt,
		cp.LastProgressAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrJobAlreadyActive
	}

	s.logger.Info("Checkpoint created",
		slog.String("job_id", cp.JobID),
		slog.String("field_path", cp.FieldPath),
	)

	return nil
}

// Get returns the active checkpoint or domain.ErrCheckpointNotFound.
func (s *Storage) Get(ctx context.Context) (*domain.JobCheckpoint, error) {
	query := `
		SELECT job_id, field_path, field_type, enum_list_name,
		       next_row_index, completed, skipped, failed,
		       started_at, last_progress_at
		FROM job_checkpoints
		WHERE id = 1
	`

	var cp domain.JobCheckpoint
	if err := s.db.GetContext(ctx, &cp, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return &cp, nil
}

// Update rewrites the active checkpoint.
func (s *Storage) Update(ctx context.Context, cp *domain.JobCheckpoint) error {
	query := `
		UPDATE job_checkpoints
		SET next_row_index = $1,
		    completed = $2,
		    skipped = $3,
		    failed = $4,
		    last_progress_at = $5
		WHERE id = 1 AND job_id = $6
	`

	result, err := s.db.ExecContext(ctx, query,
		cp.NextRowIndex,
		cp.Completed,
		cp.Skipped,
		cp.Failed,
		cp.LastProgressAt,
		cp.JobID,
	)
	if err != nil {
		return fmt.Errorf("failed to update checkpoint: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCheckpointNotFound
	}

	return nil
}

// Delete removes the checkpoint. Deleting a missing checkpoint is not an
// error; a cancel may already have taken it away.
func (s *Storage) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM job_checkpoints WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}
