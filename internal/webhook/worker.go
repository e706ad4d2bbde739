package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	queueBatchSize = 10
	pollInterval   = 5 * time.Second
)

type Worker struct {
	db       DB
	service  *Service
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

func NewWorker(db DB, service *Service, logger *slog.Logger) *Worker {
	return &Worker{
		db:       db,
		service:  service,
		logger:   logger.With("component", "webhook_worker"),
		interval: pollInterval,
		stopCh:   make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("webhook worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("webhook worker stopped")
			return
		case <-w.stopCh:
			w.logger.Info("webhook worker stopped")
			return
		case <-ticker.C:
			if err := w.processQueue(ctx); err != nil {
				w.logger.Error("failed to process webhook queue", "error", err)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
}

// processQueue claims a batch of due jobs inside a transaction so that
// several instances never deliver the same job twice.
func (w *Worker) processQueue(ctx context.Context) error {
	tx, err := w.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `
		SELECT id, webhook_id, event_type, payload, attempts, max_attempts
		FROM webhook_queue
		WHERE status = 'pending' AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := tx.Query(ctx, query, queueBatchSize)
	if err != nil {
		return fmt.Errorf("query webhook queue: %w", err)
	}

	var jobs []WebhookJob
	for rows.Next() {
		var job WebhookJob
		if err := rows.Scan(&job.ID, &job.WebhookID, &job.EventType, &job.Payload, &job.Attempts, &job.MaxAttempts); err != nil {
			rows.Close()
			return fmt.Errorf("scan webhook job: %w", err)
		}
		jobs = append(jobs, job)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate webhook queue: %w", err)
	}

	for i := range jobs {
		if err := w.processJob(ctx, tx, &jobs[i]); err != nil {
			w.logger.Error("failed to process webhook job",
				"job_id", jobs[i].ID,
				"webhook_id", jobs[i].WebhookID,
				"attempts", jobs[i].Attempts,
				"error", err,
			)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (w *Worker) processJob(ctx context.Context, tx pgx.Tx, job *WebhookJob) error {
	webhook, err := w.service.Get(ctx, job.WebhookID)
	if err != nil {
		return w.markFailed(ctx, tx, job.ID, fmt.Sprintf("webhook not found: %v", err))
	}

	if !webhook.Enabled {
		return w.markFailed(ctx, tx, job.ID, "webhook disabled")
	}

	if err := w.service.post(ctx, webhook, job.EventType, job.Payload); err != nil {
		return w.scheduleRetry(ctx, tx, job, err.Error())
	}

	return w.markComplete(ctx, tx, job.ID)
}

// retryDelay grows exponentially with the attempt count
func retryDelay(attempts int) time.Duration {
	if attempts > 10 {
		attempts = 10
	}
	return time.Duration(1<<attempts) * time.Second
}

func (w *Worker) scheduleRetry(ctx context.Context, tx pgx.Tx, job *WebhookJob, errorMsg string) error {
	if job.Attempts+1 >= job.MaxAttempts {
		return w.markFailed(ctx, tx, job.ID, errorMsg)
	}

	nextRetry := time.Now().Add(retryDelay(job.Attempts))

	query := `
		UPDATE webhook_queue
		SET attempts = attempts + 1,
		    next_retry_at = $1,
		    last_error = $2,
		    status = 'pending',
		    updated_at = NOW()
		WHERE id = $3
	`

	if _, err := tx.Exec(ctx, query, nextRetry, errorMsg, job.ID); err != nil {
		return fmt.Errorf("schedule retry: %w", err)
	}

	w.logger.Info("webhook job scheduled for retry",
		"job_id", job.ID,
		"attempts", job.Attempts+1,
		"next_retry", nextRetry,
	)

	return nil
}

func (w *Worker) markComplete(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) error {
	query := `
		UPDATE webhook_queue
		SET status = 'delivered',
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, query, jobID); err != nil {
		return fmt.Errorf("mark complete: %w", err)
	}

	w.logger.Info("webhook job completed", "job_id", jobID)
	return nil
}

func (w *Worker) markFailed(ctx context.Context, tx pgx.Tx, jobID uuid.UUID, errorMsg string) error {
	query := `
		UPDATE webhook_queue
		SET status = 'failed',
		    last_error = $1,
		    updated_at = NOW()
		WHERE id = $2
	`

	if _, err := tx.Exec(ctx, query, errorMsg, jobID); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}

	w.logger.Warn("webhook job failed", "job_id", jobID, "error", errorMsg)
	return nil
}
