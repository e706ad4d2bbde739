package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category classifies what raised an alert.
type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryEmergency  Category = "emergency"
	CategorySOS        Category = "sos"
	CategoryEscalation Category = "verification_escalation"
)

var validCategories = map[Category]bool{
	CategoryGeneral:    true,
	CategoryEmergency:  true,
	CategorySOS:        true,
	CategoryEscalation: true,
}

func (c Category) IsValid() bool {
	return validCategories[c]
}

// Severity is ordered: low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the ordinal of s, or 0 for an unknown severity
func (s Severity) Rank() int {
	return severityRank[s]
}

func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// AtLeast reports whether s is as severe as other or more
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// Bucket is a broad, role-derived recipient category.
type Bucket string

const (
	BucketNone     Bucket = ""
	BucketEveryone Bucket = "all"
	BucketMembers  Bucket = "members"
	BucketStaff    Bucket = "staff"
)

var validBuckets = map[Bucket]bool{
	BucketNone:     true,
	BucketEveryone: true,
	BucketMembers:  true,
	BucketStaff:    true,
}

func (b Bucket) IsValid() bool {
	return validBuckets[b]
}

// TargetSpec describes the intended audience of an alert.
type TargetSpec struct {
	Bucket     Bucket               `json:"bucket,omitempty"`
	TagFilters map[TagKind][]string `json:"tag_filters,omitempty"`
	Roles      []Role               `json:"roles,omitempty"`
	Recipients []uuid.UUID          `json:"recipients,omitempty"`
}

// HasRecipients reports whether the explicit recipient list is present.
// When it is, it alone decides the audience.
func (t TargetSpec) HasRecipients() bool {
	return len(t.Recipients) > 0
}

// IsDegenerate reports a spec with no bucket, no filters and no recipients.
// Such a spec resolves to everyone.
func (t TargetSpec) IsDegenerate() bool {
	if t.Bucket != BucketNone || len(t.Roles) > 0 || t.HasRecipients() {
		return false
	}
	for _, values := range t.TagFilters {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Validate rejects unknown buckets, roles and tag kinds
func (t TargetSpec) Validate() error {
	if !t.Bucket.IsValid() {
		return ErrInvalidTargetSpec.WithError(fmt.Errorf("unknown bucket %q", t.Bucket))
	}
	for _, r := range t.Roles {
		if !r.IsValid() {
			return ErrInvalidTargetSpec.WithError(fmt.Errorf("unknown role %q", r))
		}
	}
	for kind := range t.TagFilters {
		if !kind.IsValid() {
			return ErrInvalidTargetSpec.WithError(fmt.Errorf("unknown tag kind %q", kind))
		}
	}
	for _, id := range t.Recipients {
		if id == uuid.Nil {
			return ErrInvalidTargetSpec.WithError(fmt.Errorf("nil recipient id"))
		}
	}
	return nil
}

// Alert representa um evento de notificação (imutável após criação)
type Alert struct {
	ID        uuid.UUID              `json:"id"`
	SenderID  uuid.UUID              `json:"sender_id"`
	Category  Category               `json:"category"`
	Severity  Severity               `json:"severity"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Target    TargetSpec             `json:"target"`
	Location  string                 `json:"location,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// AlertCursor marks a position in the newest-first alert order.
// Ties on CreatedAt are broken by ID.
type AlertCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// CursorOf returns the position right after a in the newest-first order
func CursorOf(a *Alert) *AlertCursor {
	return &AlertCursor{CreatedAt: a.CreatedAt, ID: a.ID}
}

// AlertQuery filters alert listings. Zero values are ignored.
type AlertQuery struct {
	Category Category
	Severity Severity
	Before   *AlertCursor
	Limit    int
}
