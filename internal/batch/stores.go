package batch

import (
	"context"

	"github.com/talentops/hrsync/internal/batch/domain"
	"github.com/talentops/hrsync/shared/hrapi"
)

// RowStore is the ordered, row-indexed uploader table. The engine only needs
// index-addressable reads and per-row status writes; the storage technology
// behind it is not its concern.
type RowStore interface {
	// ReplaceRows discards the current table and stages the given pairs as
	// PENDING rows, indexed in order.
	ReplaceRows(ctx context.Context, pairs []domain.StagedPair) error

	// CountRows returns the total number of staged rows.
	CountRows(ctx context.Context) (int, error)

	// GetRows returns rows with index in [from, to).
	GetRows(ctx context.Context, from, to int) ([]domain.UpdateRow, error)

	// ListRows returns every row in index order.
	ListRows(ctx context.Context) ([]domain.UpdateRow, error)

	// ListFailedRows returns rows currently in FAILED status, in index order.
	ListFailedRows(ctx context.Context) ([]domain.UpdateRow, error)

	// UpdateRow writes the row's outcome columns back by row index.
	UpdateRow(ctx context.Context, row *domain.UpdateRow) error

	// CountByStatus tallies rows per status.
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// CheckpointStore holds the single durable job checkpoint.
type CheckpointStore interface {
	// Create persists a new checkpoint. Returns domain.ErrJobAlreadyActive
	// if one already exists.
	Create(ctx context.Context, cp *domain.JobCheckpoint) error

	// Get returns the active checkpoint or domain.ErrCheckpointNotFound.
	Get(ctx context.Context) (*domain.JobCheckpoint, error)

	// Update rewrites the active checkpoint.
	Update(ctx context.Context, cp *domain.JobCheckpoint) error

	// Delete removes the checkpoint. Deleting a missing checkpoint is not an
	// error.
	Delete(ctx context.Context) error
}

// EmployeeAPI is the slice of the HR platform client the engine uses.
type EmployeeAPI interface {
	ListEmployees(ctx context.Context) ([]hrapi.Employee, error)
	SearchEmployee(ctx context.Context, identifier string) (*hrapi.Employee, error)
	ListValues(ctx context.Context, listName string) ([]hrapi.ListValue, error)
	UpdateField(ctx context.Context, recordID string, payload map[string]any) (int, string, error)
	GetFieldValue(ctx context.Context, recordID, fieldPath string) (string, error)
}

// TickTrigger arms a periodic, non-overlapping invocation of the scheduler
// tick. Disarm cancels all future invocations; a tick already running is
// allowed to finish.
type TickTrigger interface {
	Arm(tick func()) error
	Disarm()
}
