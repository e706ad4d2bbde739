package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/suspicion"
)

const EscalationTitle = "Face Recognition Mismatch Alert"

// NewEscalation builds the staff alert raised for a suspicious identity
func NewEscalation(identity *domain.Identity, result suspicion.Result) *domain.Alert {
	body := fmt.Sprintf(
		"Multiple failed face recognition attempts detected for %s (%s). %d attempts in the last %d minutes.",
		identity.Name, identity.EnrollmentNumber, result.AttemptCount, result.WindowMinutes,
	)

	metadata := map[string]interface{}{
		"identity":       identity.Display(),
		"attempt_count":  result.AttemptCount,
		"window_minutes": result.WindowMinutes,
	}
	if result.LastAttempt != nil {
		metadata["last_confidence"] = result.LastAttempt.Confidence
		metadata["last_attempt_at"] = result.LastAttempt.Timestamp
	}

	return &domain.Alert{
		ID:        uuid.New(),
		SenderID:  identity.ID,
		Category:  domain.CategoryEscalation,
		Severity:  domain.SeverityHigh,
		Title:     EscalationTitle,
		Body:      body,
		Target:    domain.TargetSpec{Bucket: domain.BucketStaff},
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}

// SOSRequest is what a member supplies when calling for help
type SOSRequest struct {
	Title      string
	Body       string
	Location   string
	Recipients []uuid.UUID
}

// NewSOS builds a critical alert. Staff receive it unless the reporter
// names recipients, in which case only they do.
func NewSOS(reporter *domain.Identity, req SOSRequest) *domain.Alert {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Emergency"
	}

	body := fmt.Sprintf("Reported by %s (%s)", reporter.Name, reporter.EnrollmentNumber)
	if msg := strings.TrimSpace(req.Body); msg != "" {
		body += ": " + msg
	}

	target := domain.TargetSpec{Bucket: domain.BucketStaff}
	if len(req.Recipients) > 0 {
		target = domain.TargetSpec{Recipients: req.Recipients}
	}

	return &domain.Alert{
		ID:        uuid.New(),
		SenderID:  reporter.ID,
		Category:  domain.CategorySOS,
		Severity:  domain.SeverityCritical,
		Title:     "SOS: " + title,
		Body:      body,
		Target:    target,
		Location:  strings.TrimSpace(req.Location),
		Metadata:  map[string]interface{}{"reporter": reporter.Display()},
		CreatedAt: time.Now().UTC(),
	}
}

// BroadcastRequest is an administrative announcement
type BroadcastRequest struct {
	Title    string
	Body     string
	Category domain.Category
	Severity domain.Severity
	Target   domain.TargetSpec
	Location string
}

// NewBroadcast applies the defaults: category general, severity medium,
// and everyone when no target is given.
func NewBroadcast(sender uuid.UUID, req BroadcastRequest) (*domain.Alert, error) {
	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Body)
	if title == "" || body == "" {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("title and body are required"))
	}

	category := req.Category
	if category == "" {
		category = domain.CategoryGeneral
	}
	if !category.IsValid() || category == domain.CategoryEscalation {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("category %q cannot be broadcast", category))
	}

	severity := req.Severity
	if severity == "" {
		severity = domain.SeverityMedium
	}
	if !severity.IsValid() {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("unknown severity %q", severity))
	}

	if err := req.Target.Validate(); err != nil {
		return nil, err
	}

	return &domain.Alert{
		ID:        uuid.New(),
		SenderID:  sender,
		Category:  category,
		Severity:  severity,
		Title:     title,
		Body:      body,
		Target:    req.Target,
		Location:  strings.TrimSpace(req.Location),
		CreatedAt: time.Now().UTC(),
	}, nil
}
