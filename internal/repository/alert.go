package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

const (
	alertColumns     = `id, sender_id, category, severity, title, body, target, location, metadata, created_at`
	defaultListLimit = 100
	maxListLimit     = 1000
)

type AlertRepository struct {
	pool PgxPool
}

func NewAlertRepository(pool PgxPool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

// Create persists a new alert. Alerts are never updated afterwards.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	query := `
		INSERT INTO alerts (id, sender_id, category, severity, title, body, target, location, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`

	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}

	target, err := json.Marshal(alert.Target)
	if err != nil {
		return fmt.Errorf("marshal target: %w", err)
	}

	var metadata []byte
	if alert.Metadata != nil {
		metadata, err = json.Marshal(alert.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	err = r.pool.QueryRow(ctx, query,
		alert.ID,
		alert.SenderID,
		alert.Category,
		alert.Severity,
		alert.Title,
		alert.Body,
		target,
		nullable(alert.Location),
		metadata,
	).Scan(&alert.CreatedAt)

	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}

	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	alert, err := scanAlert(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get alert: %w", err)
	}

	return alert, nil
}

// Recent returns the newest alerts first, starting after before when set
func (r *AlertRepository) Recent(ctx context.Context, before *domain.AlertCursor, limit int) ([]domain.Alert, error) {
	return r.List(ctx, domain.AlertQuery{Before: before, Limit: limit})
}

// List returns alerts newest first, narrowed by category and severity when set
func (r *AlertRepository) List(ctx context.Context, q domain.AlertQuery) ([]domain.Alert, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if q.Category != "" {
		args = append(args, q.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if q.Severity != "" {
		args = append(args, q.Severity)
		conditions = append(conditions, fmt.Sprintf("severity = $%d", len(args)))
	}
	if q.Before != nil {
		args = append(args, q.Before.CreatedAt, q.Before.ID)
		conditions = append(conditions, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	args = append(args, limit)

	query := `SELECT ` + alertColumns + ` FROM alerts`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]domain.Alert, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, *alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}

	return alerts, nil
}

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var (
		alert            domain.Alert
		target, metadata []byte
		location         *string
	)

	err := row.Scan(
		&alert.ID,
		&alert.SenderID,
		&alert.Category,
		&alert.Severity,
		&alert.Title,
		&alert.Body,
		&target,
		&location,
		&metadata,
		&alert.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(target) > 0 {
		if err := json.Unmarshal(target, &alert.Target); err != nil {
			return nil, fmt.Errorf("unmarshal target: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &alert.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	alert.Location = deref(location)

	return &alert, nil
}

var _ AlertRepositoryInterface = (*AlertRepository)(nil)
