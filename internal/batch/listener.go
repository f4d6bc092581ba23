package batch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/talentops/hrsync/internal/batch/domain"
)

// StartJobMessage is the job-control message the API service publishes when
// an operator starts a batch job.
type StartJobMessage struct {
	JobID        string `json:"job_id"`
	FieldPath    string `json:"field_path"`
	FieldType    string `json:"field_type"`
	EnumListName string `json:"enum_list_name,omitempty"`
}

// JobQueue is the consuming side of the job-control queue.
type JobQueue interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// Listener consumes job-start messages and hands them to the scheduler.
// One listener per batch service; jobs are serial by design, so there is no
// dispatcher pool here.
type Listener struct {
	scheduler *Scheduler
	queue     JobQueue
	logger    *slog.Logger
}

// NewListener creates the job-start listener.
func NewListener(scheduler *Scheduler, queue JobQueue, logger *slog.Logger) *Listener {
	return &Listener{
		scheduler: scheduler,
		queue:     queue,
		logger:    logger,
	}
}

// Run consumes until the context is cancelled or the delivery channel
// closes.
func (l *Listener) Run(ctx context.Context, consumerTag string) error {
	deliveries, err := l.queue.Consume(consumerTag)
	if err != nil {
		return err
	}

	l.logger.Info("Job-start listener running",
		slog.String("consumer_tag", consumerTag),
	)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Job-start listener stopped - context canceled")
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				l.logger.Warn("RabbitMQ delivery channel closed")
				return nil
			}
			l.handle(ctx, delivery)
		}
	}
}

// handle processes one delivery. Malformed or permanently unstartable jobs
// are acked away; only infrastructure failures requeue.
func (l *Listener) handle(ctx context.Context, delivery amqp.Delivery) {
	var msg StartJobMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		l.logger.Error("Failed to parse job-start message",
			slog.String("error", err.Error()),
			slog.String("body", string(delivery.Body)),
		)
		l.nack(delivery, false)
		return
	}

	if _, err := uuid.Parse(msg.JobID); err != nil {
		l.logger.Error("Invalid job_id in job-start message",
			slog.String("job_id", msg.JobID),
			slog.String("error", err.Error()),
		)
		l.nack(delivery, false)
		return
	}

	if msg.FieldPath == "" {
		l.logger.Error("Missing field_path in job-start message",
			slog.String("job_id", msg.JobID),
		)
		l.nack(delivery, false)
		return
	}

	target := domain.FieldTarget{
		FieldPath:    msg.FieldPath,
		FieldType:    msg.FieldType,
		EnumListName: msg.EnumListName,
	}

	if _, err := l.scheduler.Start(ctx, msg.JobID, target); err != nil {
		switch {
		case errors.Is(err, domain.ErrJobAlreadyActive), errors.Is(err, domain.ErrNoStagedRows):
			// Not retryable; the operator state moved on since publish.
			l.logger.Warn("Job-start message dropped",
				slog.String("job_id", msg.JobID),
				slog.String("reason", err.Error()),
			)
			l.ack(delivery)
		default:
			l.logger.Error("Failed to start batch job, requeueing",
				slog.String("job_id", msg.JobID),
				slog.String("error", err.Error()),
			)
			l.nack(delivery, true)
		}
		return
	}

	l.ack(delivery)
}

func (l *Listener) ack(delivery amqp.Delivery) {
	if err := delivery.Ack(false); err != nil {
		l.logger.Error("Failed to ACK message",
			slog.String("error", err.Error()),
		)
	}
}

func (l *Listener) nack(delivery amqp.Delivery, requeue bool) {
	if err := delivery.Nack(false, requeue); err != nil {
		l.logger.Error("Failed to NACK message",
			slog.String("error", err.Error()),
		)
	}
}
