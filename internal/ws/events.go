package ws

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventAlert        EventType = "alert.created"
	EventVerification EventType = "verification.completed"
)

type Event struct {
	Recipients []uuid.UUID `json:"-"`
	Type       EventType   `json:"type"`
	Data       interface{} `json:"data"`
	Timestamp  time.Time   `json:"timestamp"`
}
