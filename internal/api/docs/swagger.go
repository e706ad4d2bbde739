package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// EnrollResponse represents the response for a stored reference
type EnrollResponse struct {
	IdentityID string `json:"identity_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EnrolledAt string `json:"enrolled_at" example:"2024-01-01T00:00:00Z"`
}

// IdentityInfo is the display form of an identity
type IdentityInfo struct {
	ID               string            `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name             string            `json:"name" example:"Ana Souza"`
	EnrollmentNumber string            `json:"enrollment_number" example:"2024001"`
	Role             string            `json:"role" example:"member"`
	Tags             map[string]string `json:"tags,omitempty"`
}

// Profile is the caller's full identity record
type Profile struct {
	ID               string            `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name             string            `json:"name" example:"Ana Souza"`
	EnrollmentNumber string            `json:"enrollment_number" example:"2024001"`
	Email            string            `json:"email,omitempty" example:"ana@campus.example"`
	Role             string            `json:"role" example:"member"`
	Tags             map[string]string `json:"tags,omitempty"`
	CreatedAt        string            `json:"created_at" example:"2024-01-01T00:00:00Z"`
	UpdatedAt        string            `json:"updated_at" example:"2024-01-01T00:00:00Z"`
}

// ProfileRequest changes profile fields; omitted fields are kept
type ProfileRequest struct {
	Name    string `json:"name,omitempty" example:"Ana Souza"`
	Email   string `json:"email,omitempty" example:"ana@campus.example"`
	Unit    string `json:"unit,omitempty" example:"law"`
	SubUnit string `json:"sub_unit,omitempty" example:"civil"`
	Level   string `json:"level,omitempty" example:"3"`
}

// StaffResponse lists administrators and security personnel
type StaffResponse struct {
	Staff []IdentityInfo `json:"staff"`
	Count int            `json:"count" example:"2"`
}

// AttemptRecord is one recorded no-match verification
type AttemptRecord struct {
	ID         string  `json:"id" example:"1b4e28ba-2fa1-11d2-883f-0016d3cca427"`
	IdentityID string  `json:"identity_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Timestamp  string  `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Outcome    string  `json:"outcome" example:"no_match"`
	Confidence float64 `json:"confidence" example:"12.5"`
}

// SuspicionAnalysis classifies recent attempts
type SuspicionAnalysis struct {
	IsSuspicious  bool `json:"is_suspicious" example:"false"`
	AttemptCount  int  `json:"attempt_count" example:"1"`
	WindowMinutes int  `json:"window_minutes" example:"10"`
}

// AttemptReport is an identity's recent verification record
type AttemptReport struct {
	Identity IdentityInfo      `json:"identity"`
	Attempts []AttemptRecord   `json:"attempts"`
	Analysis SuspicionAnalysis `json:"analysis"`
}

// VerificationResponse represents the result of a face verification
type VerificationResponse struct {
	Outcome    string       `json:"outcome" example:"no_match"`
	Match      bool         `json:"match" example:"false"`
	Confidence float64      `json:"confidence" example:"12.5"`
	Distance   float64      `json:"distance" example:"0.91"`
	Threshold  float64      `json:"threshold" example:"0.6"`
	Identity   IdentityInfo `json:"identity"`
	VerifiedBy string       `json:"verified_by,omitempty" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	Recorded   bool         `json:"recorded" example:"true"`
	Escalated  bool         `json:"escalated" example:"true"`
	AlertID    string       `json:"alert_id,omitempty" example:"9b2f6c1e-8a4d-4c1e-9f3a-2d5e7b8c9a01"`
	Provider   string       `json:"provider" example:"deepface"`
	LatencyMs  int64        `json:"latency_ms" example:"180"`
}

// TargetSpec selects the audience of an alert
type TargetSpec struct {
	Bucket     string              `json:"bucket,omitempty" example:"staff"`
	TagFilters map[string][]string `json:"tag_filters,omitempty"`
	Roles      []string            `json:"roles,omitempty"`
	Recipients []string            `json:"recipients,omitempty"`
}

// Alert represents a stored alert
type Alert struct {
	ID        string                 `json:"id" example:"9b2f6c1e-8a4d-4c1e-9f3a-2d5e7b8c9a01"`
	SenderID  string                 `json:"sender_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Category  string                 `json:"category" example:"verification_escalation"`
	Severity  string                 `json:"severity" example:"high"`
	Title     string                 `json:"title" example:"Face Recognition Mismatch Alert"`
	Body      string                 `json:"body" example:"Multiple failed face recognition attempts detected for Ana Souza (2024001). 3 attempts in the last 10 minutes."`
	Target    TargetSpec             `json:"target"`
	Location  string                 `json:"location,omitempty" example:"Library, 2nd floor"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt string                 `json:"created_at" example:"2024-01-01T00:00:00Z"`
}

// BroadcastRequest is the body of an administrative broadcast
type BroadcastRequest struct {
	Title    string     `json:"title" example:"Library closed"`
	Body     string     `json:"body" example:"The library is closed for maintenance today."`
	Category string     `json:"category,omitempty" example:"general"`
	Severity string     `json:"severity,omitempty" example:"medium"`
	Target   TargetSpec `json:"target"`
	Location string     `json:"location,omitempty" example:"Main library"`
}

// SOSRequest is the body of an SOS
type SOSRequest struct {
	Title      string   `json:"title,omitempty" example:"Medical"`
	Message    string   `json:"message,omitempty" example:"Someone fainted near the gym"`
	Location   string   `json:"location,omitempty" example:"Gym entrance"`
	Recipients []string `json:"recipients,omitempty"`
}

// CreatedResponse is returned after an alert is raised
type CreatedResponse struct {
	Alert      Alert `json:"alert"`
	Recipients int   `json:"recipients" example:"42"`
}

// AlertListResponse wraps alert listings
type AlertListResponse struct {
	Alerts []Alert `json:"alerts"`
	Count  int     `json:"count" example:"1"`
}

// TargetsResponse lists members matching a classification filter
type TargetsResponse struct {
	Members []IdentityInfo `json:"members"`
	Count   int            `json:"count" example:"1"`
}

// PreviewResponse lists who a target specification reaches
type PreviewResponse struct {
	Count      int            `json:"count" example:"2"`
	Recipients []IdentityInfo `json:"recipients"`
}

// WebhookRequest registers an external integration
type WebhookRequest struct {
	Name        string   `json:"name" example:"Dispatch desk"`
	URL         string   `json:"url" example:"https://dispatch.campus.example/hooks"`
	Categories  []string `json:"categories,omitempty"`
	MinSeverity string   `json:"min_severity,omitempty" example:"high"`
	Enabled     bool     `json:"enabled" example:"true"`
}

// Webhook represents a registered integration
type Webhook struct {
	ID              string   `json:"id" example:"3f1c2b4a-5d6e-4f70-8a9b-0c1d2e3f4a5b"`
	Name            string   `json:"name" example:"Dispatch desk"`
	URL             string   `json:"url" example:"https://dispatch.campus.example/hooks"`
	Categories      []string `json:"categories"`
	MinSeverity     string   `json:"min_severity" example:"high"`
	Enabled         bool     `json:"enabled" example:"true"`
	LastTriggeredAt string   `json:"last_triggered_at,omitempty" example:"2024-01-01T00:00:00Z"`
	CreatedAt       string   `json:"created_at" example:"2024-01-01T00:00:00Z"`
	UpdatedAt       string   `json:"updated_at" example:"2024-01-01T00:00:00Z"`
}

// WebhookCreatedResponse carries the signing secret, shown only once
type WebhookCreatedResponse struct {
	Webhook Webhook `json:"webhook"`
	Secret  string  `json:"secret" example:"6f1d...e9"`
}

// WebhookListResponse wraps webhook listings
type WebhookListResponse struct {
	Webhooks []Webhook `json:"webhooks"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

var (
	errUnauthorized = response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing access token"}, "401", "Unauthorized")
	errForbidden    = response.New(ErrorResponse{Code: "FORBIDDEN", Message: "Role not allowed"}, "403", "Forbidden")
	errRateLimited  = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded"}, "429", "Too Many Requests")
	errPersistence  = response.New(ErrorResponse{Code: "PERSISTENCE_FAILED", Message: "Storage unavailable"}, "503", "Service Unavailable")
	errInternal     = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	bearer          = endpoint.WithSecurity([]map[string][]string{{"BearerAuth": {}}})
)

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "CampusGuard API",
		Version:     "v1.0.0",
		Description: "Campus identity verification and alert targeting",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// Identity endpoints

		// GET /v1/identities/me
		endpoint.New(
			endpoint.GET,
			"/identities/me",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("The caller's profile"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(Profile{}, "200", "Profile"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errPersistence}),
			bearer,
		),

		// PATCH /v1/identities/me
		endpoint.New(
			endpoint.PATCH,
			"/identities/me",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Update the caller's profile"),
			endpoint.WithDescription("Changes name, email and classification tags. An empty string clears an optional field. Level applies to members only. New tags apply to every later delivery and feed."),
			endpoint.WithBody(ProfileRequest{}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(Profile{}, "200", "Updated profile"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				errPersistence,
			}),
			bearer,
		),

		// GET /v1/identities/staff
		endpoint.New(
			endpoint.GET,
			"/identities/staff",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Staff directory"),
			endpoint.WithDescription("Administrators and security personnel, usable as explicit SOS recipients"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StaffResponse{}, "200", "Staff"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errPersistence}),
			bearer,
		),

		// GET /v1/identities/{id}/attempts
		endpoint.New(
			endpoint.GET,
			"/identities/{id}/attempts",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Recent failed verifications of an identity"),
			endpoint.WithDescription("Admin and security only. Attempts inside the suspicion window with the current analysis."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Identity UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttemptReport{}, "200", "Attempt report"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errForbidden,
				response.New(ErrorResponse{Code: "IDENTITY_NOT_FOUND", Message: "Identity not found"}, "404", "Not Found"),
			}),
			bearer,
		),

		// Verification endpoints

		// PUT /v1/identities/me/reference - Enroll reference
		endpoint.New(
			endpoint.PUT,
			"/identities/me/reference",
			endpoint.WithTags("Verification"),
			endpoint.WithSummary("Enroll the caller's reference image"),
			endpoint.WithDescription("Extracts the face descriptor from the uploaded image (form field image) and replaces any previous reference."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollResponse{}, "201", "Reference stored"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "MULTIPLE_FACES", Message: "Multiple faces detected"}, "422", "Unprocessable Entity"),
				errInternal,
			}),
			bearer,
		),

		// POST /v1/verifications - Verify self
		endpoint.New(
			endpoint.POST,
			"/verifications",
			endpoint.WithTags("Verification"),
			endpoint.WithSummary("Verify the caller against their reference"),
			endpoint.WithDescription("Compares a live capture with the caller's enrolled reference. No-match outcomes are recorded and may raise a verification escalation alert to staff."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerificationResponse{}, "200", "Verification completed"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "REFERENCE_NOT_ENROLLED", Message: "No reference enrolled"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "EXTRACTION_FAILED", Message: "Face comparison failed"}, "422", "Unprocessable Entity"),
				errRateLimited,
				errPersistence,
			}),
			bearer,
		),

		// POST /v1/verifications/scan - Verify by enrollment number
		endpoint.New(
			endpoint.POST,
			"/verifications/scan",
			endpoint.WithTags("Verification"),
			endpoint.WithSummary("Verify a member by enrollment number"),
			endpoint.WithDescription("Staff scan a member's card (form field enrollment_number) and capture their face (form field image)."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerificationResponse{}, "200", "Verification completed"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errForbidden,
				response.New(ErrorResponse{Code: "IDENTITY_NOT_FOUND", Message: "Identity not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "REFERENCE_NOT_ENROLLED", Message: "No reference enrolled"}, "409", "Conflict"),
				errRateLimited,
				errPersistence,
			}),
			bearer,
		),

		// Alert endpoints

		// GET /v1/alerts - Feed
		endpoint.New(
			endpoint.GET,
			"/alerts",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("Alerts addressed to the caller"),
			endpoint.WithDescription("Newest first, filtered with the same audience rules used for delivery"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AlertListResponse{}, "200", "Feed"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errPersistence}),
			bearer,
		),

		// POST /v1/alerts - Broadcast
		endpoint.New(
			endpoint.POST,
			"/alerts",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("Broadcast an alert"),
			endpoint.WithDescription("Admin and security only. Defaults: category general, severity medium, target everyone."),
			endpoint.WithBody(BroadcastRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CreatedResponse{}, "201", "Alert raised"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errForbidden,
				response.New(ErrorResponse{Code: "INVALID_TARGET_SPEC", Message: "Invalid target specification"}, "422", "Unprocessable Entity"),
				errPersistence,
			}),
			bearer,
		),

		// POST /v1/alerts/sos - SOS
		endpoint.New(
			endpoint.POST,
			"/alerts/sos",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("Raise an SOS"),
			endpoint.WithDescription("Members only. Reaches staff, or only the listed recipients when given."),
			endpoint.WithBody(SOSRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CreatedResponse{}, "201", "SOS raised"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errForbidden, errPersistence}),
			bearer,
		),

		// GET /v1/alerts/all - Admin listing
		endpoint.New(
			endpoint.GET,
			"/alerts/all",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("List all alerts"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("category", parameter.Query, parameter.WithDescription("general, emergency, sos or verification_escalation")),
				parameter.StrParam("severity", parameter.Query, parameter.WithDescription("low, medium, high or critical")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of alerts (default: 100, max: 1000)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AlertListResponse{}, "200", "Alerts"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errForbidden, errPersistence}),
			bearer,
		),

		// GET /v1/alerts/escalations
		endpoint.New(
			endpoint.GET,
			"/alerts/escalations",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("Newest verification escalations"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AlertListResponse{}, "200", "Escalations"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errForbidden, errPersistence}),
			bearer,
		),

		// GET /v1/alerts/targets
		endpoint.New(
			endpoint.GET,
			"/alerts/targets",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("Members matching a classification filter"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("unit", parameter.Query, parameter.WithDescription("Unit (e.g. department)")),
				parameter.StrParam("sub_unit", parameter.Query, parameter.WithDescription("Sub-unit (e.g. course)")),
				parameter.StrParam("level", parameter.Query, parameter.WithDescription("Level (e.g. year)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(TargetsResponse{}, "200", "Members"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errForbidden, errPersistence}),
			bearer,
		),

		// POST /v1/alerts/preview
		endpoint.New(
			endpoint.POST,
			"/alerts/preview",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("Resolve a target specification"),
			endpoint.WithBody(TargetSpec{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(PreviewResponse{}, "200", "Recipients"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errForbidden,
				response.New(ErrorResponse{Code: "INVALID_TARGET_SPEC", Message: "Invalid target specification"}, "422", "Unprocessable Entity"),
			}),
			bearer,
		),

		// GET /v1/alerts/:id
		endpoint.New(
			endpoint.GET,
			"/alerts/{id}",
			endpoint.WithTags("Alerts"),
			endpoint.WithSummary("Get an alert"),
			endpoint.WithDescription("Members can only open alerts addressed to them"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Alert UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(Alert{}, "200", "Alert"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "ALERT_NOT_FOUND", Message: "Alert not found"}, "404", "Not Found"),
			}),
			bearer,
		),

		// Admin endpoints

		// GET /v1/admin/webhooks
		endpoint.New(
			endpoint.GET,
			"/admin/webhooks",
			endpoint.WithTags("Admin - Webhooks"),
			endpoint.WithSummary("List webhooks"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(WebhookListResponse{}, "200", "Webhooks"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errForbidden, errPersistence}),
			bearer,
		),

		// POST /v1/admin/webhooks
		endpoint.New(
			endpoint.POST,
			"/admin/webhooks",
			endpoint.WithTags("Admin - Webhooks"),
			endpoint.WithSummary("Register a webhook"),
			endpoint.WithDescription("Deliveries carry X-CampusGuard-Signature: t=<unix>,v1=<hex>, an HMAC-SHA256 of <unix>.<event type>.<body>. The secret is only returned here."),
			endpoint.WithBody(WebhookRequest{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(WebhookCreatedResponse{}, "201", "Webhook registered"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errForbidden,
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
			}),
			bearer,
		),

		// DELETE /v1/admin/webhooks/:id
		endpoint.New(
			endpoint.DELETE,
			"/admin/webhooks/{id}",
			endpoint.WithTags("Admin - Webhooks"),
			endpoint.WithSummary("Delete a webhook"),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Webhook UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errForbidden,
				response.New(ErrorResponse{Code: "WEBHOOK_NOT_FOUND", Message: "Webhook not found"}, "404", "Not Found"),
			}),
			bearer,
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
