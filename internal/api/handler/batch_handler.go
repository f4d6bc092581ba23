package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentops/hrsync/internal/api/dto"
	"github.com/talentops/hrsync/internal/batch"
	"github.com/talentops/hrsync/internal/batch/domain"
)

// StageRows handles POST /api/v1/rows
// Replaces the uploader table with a new set of (identifier, value) pairs.
func (h *BatchHandler) StageRows(c *gin.Context) {
	var req dto.StageRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid stage request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	status, err := h.reporter.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to check job status", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check job status",
		})
		return
	}
	if status.Active {
		c.JSON(http.StatusConflict, gin.H{
			"error": "a batch job is active; cancel it before restaging rows",
		})
		return
	}

	pairs := make([]domain.StagedPair, len(req.Rows))
	for i, row := range req.Rows {
		pairs[i] = domain.StagedPair{
			BusinessID: row.BusinessID,
			RawValue:   row.RawValue,
		}
	}

	if err := h.rows.ReplaceRows(c.Request.Context(), pairs); err != nil {
		h.logger.Error("Failed to stage rows", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to stage rows",
		})
		return
	}

	h.logger.Info("Rows staged via API",
		slog.Int("count", len(pairs)),
	)

	c.JSON(http.StatusOK, gin.H{
		"staged": len(pairs),
	})
}

// ListRows handles GET /api/v1/rows
// Returns the uploader table with per-row outcomes.
func (h *BatchHandler) ListRows(c *gin.Context) {
	rows, err := h.rows.ListRows(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list rows", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list rows",
		})
		return
	}

	out := make([]dto.RowDTO, len(rows))
	for i, row := range rows {
		out[i] = dto.RowDTO{
			RowIndex:         row.RowIndex,
			BusinessID:       row.BusinessID,
			RawValue:         row.RawValue,
			ResolvedRecordID: row.ResolvedRecordID,
			Status:           row.Status,
			HTTPCode:         row.HTTPCode,
			ErrorMessage:     row.ErrorMessage,
			VerifiedValue:    row.VerifiedValue,
		}
	}

	c.JSON(http.StatusOK, dto.ListRowsResponse{
		Rows:  out,
		Total: len(out),
	})
}

// StartJob handles POST /api/v1/jobs
// Accepts a field target and publishes a job-start message for the batch
// service. The checkpoint store is what ultimately rejects a duplicate
// start; this pre-check only gives the operator a clean error.
func (h *BatchHandler) StartJob(c *gin.Context) {
	var req dto.StartJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid start request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	status, err := h.reporter.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to check job status", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check job status",
		})
		return
	}
	if status.Active {
		c.JSON(http.StatusConflict, gin.H{
			"error": domain.ErrJobAlreadyActive.Error(),
		})
		return
	}
	if status.TotalRows == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.ErrNoStagedRows.Error(),
		})
		return
	}

	msg := batch.StartJobMessage{
		JobID:        uuid.New().String(),
		FieldPath:    req.FieldPath,
		FieldType:    req.FieldType,
		EnumListName: req.EnumListName,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal job-start message", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to start job",
		})
		return
	}

	if err := h.publisher.Publish(c.Request.Context(), body); err != nil {
		h.logger.Error("Failed to publish job-start message", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to start job",
		})
		return
	}

	h.logger.Info("Job start requested",
		slog.String("job_id", msg.JobID),
		slog.String("field_path", msg.FieldPath),
		slog.Int("total_rows", status.TotalRows),
	)

	c.JSON(http.StatusAccepted, dto.StartJobResponse{
		JobID:     msg.JobID,
		FieldPath: msg.FieldPath,
		TotalRows: status.TotalRows,
	})
}

// GetJob handles GET /api/v1/jobs/current
// Returns a progress snapshot; mid-batch state is expected and valid.
func (h *BatchHandler) GetJob(c *gin.Context) {
	status, err := h.reporter.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get job status", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job status",
		})
		return
	}

	c.JSON(http.StatusOK, status)
}

// CancelJob handles POST /api/v1/jobs/current/cancel
// Deletes the checkpoint; the batch service's next tick observes the missing
// checkpoint and disarms its trigger.
func (h *BatchHandler) CancelJob(c *gin.Context) {
	if err := h.reporter.CancelJob(c.Request.Context()); err != nil {
		if errors.Is(err, domain.ErrCheckpointNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "no active job",
			})
			return
		}
		h.logger.Error("Failed to cancel job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to cancel job",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cancelled": true,
	})
}

// RetryFailed handles POST /api/v1/rows/retry-failed
// Synchronously re-runs only the FAILED rows through the update pipeline.
func (h *BatchHandler) RetryFailed(c *gin.Context) {
	var req dto.RetryFailedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid retry request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	target := domain.FieldTarget{
		FieldPath:    req.FieldPath,
		FieldType:    req.FieldType,
		EnumListName: req.EnumListName,
	}

	summary, err := h.reporter.RetryFailed(c.Request.Context(), target)
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyActive) {
			c.JSON(http.StatusConflict, gin.H{
				"error": err.Error(),
			})
			return
		}
		h.logger.Error("Retry-failed pass failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retry rows",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}
