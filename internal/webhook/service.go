package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

// DB is satisfied by *pgxpool.Pool and pgxmock
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const webhookColumns = `id, name, url, secret, categories, min_severity, enabled, last_triggered_at, created_at, updated_at`

var ErrWebhookNotFound = &domain.AppError{
	Code:       "WEBHOOK_NOT_FOUND",
	Message:    "Webhook not found",
	StatusCode: 404,
}

type Service struct {
	db     DB
	client *http.Client
	logger *slog.Logger
}

func NewService(db DB, logger *slog.Logger) *Service {
	return &Service{
		db: db,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With("component", "webhook"),
	}
}

// Deliver posts the alert to every subscribed webhook. Failed posts are
// queued for the retry worker; only queueing failures are returned.
func (s *Service) Deliver(ctx context.Context, alert *domain.Alert) error {
	webhooks, err := s.ListEnabled(ctx)
	if err != nil {
		return err
	}

	event := EventPayload{
		Type:      EventAlertCreated,
		Data:      alert,
		Timestamp: time.Now().UTC(),
	}

	for _, w := range webhooks {
		if !w.Accepts(alert) {
			continue
		}
		if err := s.Send(ctx, w, event); err != nil {
			return err
		}
	}

	return nil
}

// Send posts once and enqueues the payload for retry on failure
func (s *Service) Send(ctx context.Context, webhook *Webhook, event EventPayload) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := s.post(ctx, webhook, event.Type, payload); err != nil {
		s.logger.Warn("webhook delivery failed, queued for retry",
			"webhook_id", webhook.ID,
			"error", err,
		)
		return s.enqueue(ctx, webhook.ID, event.Type, payload, err.Error())
	}

	return s.updateLastTriggered(ctx, webhook.ID)
}

func (s *Service) post(ctx context.Context, webhook *Webhook, eventType string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	// Signed at send time, so retries carry a fresh timestamp
	req.Header.Set(SignatureHeader, Sign(webhook.Secret, eventType, payload, time.Now()))
	req.Header.Set(EventHeader, eventType)
	req.Header.Set("User-Agent", "CampusGuard-Webhook/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return nil
}

func (s *Service) enqueue(ctx context.Context, webhookID uuid.UUID, eventType string, payload []byte, errorMsg string) error {
	query := `
		INSERT INTO webhook_queue (id, webhook_id, event_type, payload, next_retry_at, last_error)
		VALUES ($1, $2, $3, $4, NOW() + INTERVAL '1 second', $5)
	`

	_, err := s.db.Exec(ctx, query, uuid.New(), webhookID, eventType, payload, errorMsg)
	if err != nil {
		return fmt.Errorf("enqueue webhook: %w", err)
	}

	return nil
}

func (s *Service) updateLastTriggered(ctx context.Context, webhookID uuid.UUID) error {
	query := `UPDATE webhooks SET last_triggered_at = NOW() WHERE id = $1`
	if _, err := s.db.Exec(ctx, query, webhookID); err != nil {
		return fmt.Errorf("update last triggered: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]*Webhook, error) {
	return s.query(ctx, `SELECT `+webhookColumns+` FROM webhooks ORDER BY created_at DESC`)
}

func (s *Service) ListEnabled(ctx context.Context) ([]*Webhook, error) {
	return s.query(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE enabled = true`)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Webhook, error) {
	webhook, err := scanWebhook(s.db.QueryRow(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWebhookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get webhook: %w", err)
	}
	return webhook, nil
}

func (s *Service) query(ctx context.Context, query string, args ...interface{}) ([]*Webhook, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query webhooks: %w", err)
	}
	defer rows.Close()

	webhooks := make([]*Webhook, 0)
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		webhooks = append(webhooks, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhooks: %w", err)
	}

	return webhooks, nil
}

func (s *Service) Create(ctx context.Context, webhook *Webhook) error {
	categoriesJSON, err := json.Marshal(webhook.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	if webhook.ID == uuid.Nil {
		webhook.ID = uuid.New()
	}

	query := `
		INSERT INTO webhooks (id, name, url, secret, categories, min_severity, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err = s.db.QueryRow(ctx, query,
		webhook.ID, webhook.Name, webhook.URL, webhook.Secret,
		categoriesJSON, webhook.MinSeverity, webhook.Enabled,
	).Scan(&webhook.CreatedAt, &webhook.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}

	return nil
}

func (s *Service) Delete(ctx context.Context, webhookID uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM webhooks WHERE id = $1`, webhookID)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrWebhookNotFound
	}

	return nil
}

func scanWebhook(row pgx.Row) (*Webhook, error) {
	var (
		w              Webhook
		categoriesJSON []byte
	)

	err := row.Scan(
		&w.ID, &w.Name, &w.URL, &w.Secret,
		&categoriesJSON, &w.MinSeverity, &w.Enabled, &w.LastTriggeredAt,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(categoriesJSON) > 0 {
		if err := json.Unmarshal(categoriesJSON, &w.Categories); err != nil {
			return nil, fmt.Errorf("unmarshal categories: %w", err)
		}
	}

	return &w, nil
}
