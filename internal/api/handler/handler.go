package handler

import (
	"context"
	"log/slog"

	"github.com/talentops/hrsync/internal/batch"
)

// Publisher is the publishing side of the job-control queue.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// DBHealth reports database readiness.
type DBHealth interface {
	HealthCheck(ctx context.Context) error
}

// BrokerHealth reports message broker readiness.
type BrokerHealth interface {
	IsConnected() bool
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Rows      batch.RowStore
	Reporter  *batch.Reporter
	Publisher Publisher
	DB        DBHealth
	Broker    BrokerHealth
}

// BatchHandler handles uploader-table and batch-job HTTP requests
type BatchHandler struct {
	logger    *slog.Logger
	rows      batch.RowStore
	reporter  *batch.Reporter
	publisher Publisher
}

// NewBatchHandler creates a new BatchHandler instance
func NewBatchHandler(deps *Dependencies) *BatchHandler {
	return &BatchHandler{
		logger:    deps.Logger,
		rows:      deps.Rows,
		reporter:  deps.Reporter,
		publisher: deps.Publisher,
	}
}
