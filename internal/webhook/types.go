package webhook

import (
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

// Webhook is an external integration (dispatch desk, campus SMS gateway)
// subscribed to alert categories at or above a minimum severity.
type Webhook struct {
	ID              uuid.UUID         `json:"id"`
	Name            string            `json:"name"`
	URL             string            `json:"url"`
	Secret          string            `json:"-"`
	Categories      []domain.Category `json:"categories"`
	MinSeverity     domain.Severity   `json:"min_severity"`
	Enabled         bool              `json:"enabled"`
	LastTriggeredAt *time.Time        `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Accepts reports whether the alert falls within the subscription.
// An empty category list subscribes to every category.
func (w *Webhook) Accepts(alert *domain.Alert) bool {
	if !w.Enabled {
		return false
	}
	if w.MinSeverity != "" && !alert.Severity.AtLeast(w.MinSeverity) {
		return false
	}
	if len(w.Categories) == 0 {
		return true
	}
	for _, c := range w.Categories {
		if c == alert.Category {
			return true
		}
	}
	return false
}

type WebhookJob struct {
	ID          uuid.UUID  `json:"id"`
	WebhookID   uuid.UUID  `json:"webhook_id"`
	EventType   string     `json:"event_type"`
	Payload     []byte     `json:"payload"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
	Status      string     `json:"status"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const EventAlertCreated = "alert.created"

type EventPayload struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
