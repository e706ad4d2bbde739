// Package audit keeps a trail of biometric processing and of changes that
// alter who receives alerts.
package audit

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventReferenceEnrolled  EventType = "REFERENCE_ENROLLED"
	EventFaceCompared       EventType = "FACE_COMPARED"
	EventAttemptRecorded    EventType = "ATTEMPT_RECORDED"
	EventEscalationRaised   EventType = "ESCALATION_RAISED"
	EventVerificationFailed EventType = "VERIFICATION_INDETERMINATE"
	EventProfileUpdated     EventType = "PROFILE_UPDATED"
)

// Event is one audit entry. IdentityID is the subject; ActorID is who
// acted, set only when it can differ (a staff scan, a profile edit).
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	IdentityID uuid.UUID         `json:"identity_id,omitempty"`
	ActorID    uuid.UUID         `json:"actor_id,omitempty"`
	EventType  EventType         `json:"event_type"`
	Provider   string            `json:"provider,omitempty"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger writes audit events as structured records on the process
// logger. Unsuccessful events are logged at Warn.
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	attrs := []slog.Attr{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.Time("occurred_at", event.Timestamp),
		slog.String("identity_id", event.IdentityID.String()),
		slog.Bool("success", event.Success),
	}
	if event.ActorID != uuid.Nil && event.ActorID != event.IdentityID {
		attrs = append(attrs, slog.String("actor_id", event.ActorID.String()))
	}
	if event.Provider != "" {
		attrs = append(attrs, slog.String("provider", event.Provider))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	if len(event.Metadata) > 0 {
		attrs = append(attrs, metadataGroup(event.Metadata))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(ctx, level, "audit_event", attrs...)

	return nil
}

func metadataGroup(metadata map[string]string) slog.Attr {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]any, 0, len(keys))
	for _, k := range keys {
		values = append(values, slog.String(k, metadata[k]))
	}
	return slog.Group("metadata", values...)
}

// NoOpLogger discards events
type NoOpLogger struct{}

func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
