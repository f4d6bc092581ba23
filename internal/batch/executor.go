package batch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/talentops/hrsync/internal/batch/domain"
)

// Executor drives one row through resolve, translate, write, and read-back.
// It is the only component that performs network I/O per row; everything
// else works off per-tick snapshots.
type Executor struct {
	api        EmployeeAPI
	resolver   *Resolver
	translator *Translator
	pacer      *Pacer
	target     domain.FieldTarget
	logger     *slog.Logger
}

// NewExecutor builds the per-tick row pipeline for one field target. The
// resolver and translator carry this tick's snapshots; the pacer is shared
// so spacing holds across ticks and across the retry path.
func NewExecutor(api EmployeeAPI, resolver *Resolver, translator *Translator, pacer *Pacer, target domain.FieldTarget, logger *slog.Logger) *Executor {
	return &Executor{
		api:        api,
		resolver:   resolver,
		translator: translator,
		pacer:      pacer,
		target:     target,
		logger:     logger,
	}
}

// Execute processes one row and records its terminal status in place. Every
// failure is captured on the row; nothing propagates, so a bad row can never
// abort the slice it belongs to. The pacer runs after every row, success or
// failure alike, so a run of failures cannot exceed the outbound call budget.
func (e *Executor) Execute(ctx context.Context, row *domain.UpdateRow) {
	defer func() {
		if err := e.pacer.Pace(ctx); err != nil {
			e.logger.Warn("Pacing interrupted",
				slog.Int("row_index", row.RowIndex),
				slog.String("error", err.Error()),
			)
		}
	}()

	recordID, err := e.resolver.Resolve(ctx, row.BusinessID)
	if err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			row.Fail(0, "identifier not found: "+row.BusinessID)
		} else {
			// The fallback search itself failed. Keep the raw error text
			// so an outage is not mistaken for a missing employee.
			row.Fail(0, err.Error())
		}
		e.logger.Warn("Row failed identifier resolution",
			slog.Int("row_index", row.RowIndex),
			slog.String("business_id", row.BusinessID),
			slog.String("error", err.Error()),
		)
		return
	}
	row.ResolvedRecordID = recordID

	value := e.translator.Translate(row.RawValue)
	payload := FieldPayload(e.target.FieldPath, value)

	code, body, err := e.api.UpdateField(ctx, recordID, payload)
	if err != nil {
		// Transport failure; the raw error text stays on the row verbatim.
		row.Fail(0, err.Error())
		e.logger.Error("Row update unreachable",
			slog.Int("row_index", row.RowIndex),
			slog.String("record_id", recordID),
			slog.String("error", err.Error()),
		)
		return
	}

	row.HTTPCode = code

	switch {
	case code == http.StatusNotModified:
		// The platform already holds this value; record it as a no-op but
		// still read back for auditability.
		row.Status = domain.RowStatusSkipped
		e.readBack(ctx, row, recordID)

	case code >= 200 && code < 300:
		row.Status = domain.RowStatusCompleted
		e.readBack(ctx, row, recordID)

	case code == http.StatusNotFound:
		row.Fail(code, "record or field not found")

	default:
		row.Fail(code, body)
		e.logger.Warn("Row update rejected",
			slog.Int("row_index", row.RowIndex),
			slog.String("record_id", recordID),
			slog.Int("status", code),
		)
	}
}

// readBack re-reads the written field and stores the platform's view of the
// value. A read-back failure does not demote the row: the write itself
// succeeded, so only the verification note is lost.
func (e *Executor) readBack(ctx context.Context, row *domain.UpdateRow, recordID string) {
	verified, err := e.api.GetFieldValue(ctx, recordID, e.target.FieldPath)
	if err != nil {
		row.ErrorMessage = "read-back failed: " + err.Error()
		e.logger.Warn("Row read-back failed",
			slog.Int("row_index", row.RowIndex),
			slog.String("record_id", recordID),
			slog.String("error", err.Error()),
		)
		return
	}
	row.VerifiedValue = verified
	row.ErrorMessage = ""
}
