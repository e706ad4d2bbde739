package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

var webhookRowColumns = []string{
	"id", "name", "url", "secret", "categories", "min_severity", "enabled", "last_triggered_at", "created_at", "updated_at",
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWebhook_Accepts(t *testing.T) {
	sos := &domain.Alert{Category: domain.CategorySOS, Severity: domain.SeverityCritical}
	general := &domain.Alert{Category: domain.CategoryGeneral, Severity: domain.SeverityLow}

	tests := []struct {
		name    string
		webhook Webhook
		alert   *domain.Alert
		want    bool
	}{
		{name: "disabled", webhook: Webhook{Enabled: false}, alert: sos, want: false},
		{name: "all categories", webhook: Webhook{Enabled: true}, alert: general, want: true},
		{name: "category listed", webhook: Webhook{Enabled: true, Categories: []domain.Category{domain.CategorySOS}}, alert: sos, want: true},
		{name: "category not listed", webhook: Webhook{Enabled: true, Categories: []domain.Category{domain.CategorySOS}}, alert: general, want: false},
		{name: "below min severity", webhook: Webhook{Enabled: true, MinSeverity: domain.SeverityHigh}, alert: general, want: false},
		{name: "at min severity", webhook: Webhook{Enabled: true, MinSeverity: domain.SeverityCritical}, alert: sos, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.webhook.Accepts(tt.alert))
		})
	}
}

func TestService_Deliver(t *testing.T) {
	var received int32
	var gotSignature, gotEvent string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&received, 1)
		gotSignature = r.Header.Get(SignatureHeader)
		gotEvent = r.Header.Get(EventHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	subscribed := uuid.New()
	categories, _ := json.Marshal([]domain.Category{domain.CategoryEscalation})
	otherCategories, _ := json.Marshal([]domain.Category{domain.CategoryGeneral})
	now := time.Now()

	mock.ExpectQuery(`FROM webhooks WHERE enabled = true`).
		WillReturnRows(pgxmock.NewRows(webhookRowColumns).
			AddRow(subscribed, "security desk", server.URL, "s3cret", categories, domain.Severity(""), true, (*time.Time)(nil), now, now).
			AddRow(uuid.New(), "newsletter", server.URL, "other", otherCategories, domain.Severity(""), true, (*time.Time)(nil), now, now))
	mock.ExpectExec(`UPDATE webhooks SET last_triggered_at = NOW\(\) WHERE id = \$1`).
		WithArgs(subscribed).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock, testLogger())
	alert := &domain.Alert{ID: uuid.New(), Category: domain.CategoryEscalation, Severity: domain.SeverityHigh, Title: "mismatch"}

	require.NoError(t, svc.Deliver(context.Background(), alert))

	assert.Equal(t, int32(1), atomic.LoadInt32(&received))
	assert.Equal(t, EventAlertCreated, gotEvent)
	assert.NoError(t, Verify("s3cret", gotEvent, gotBody, gotSignature, time.Now(), DefaultTolerance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Send_EnqueuesOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	webhook := &Webhook{ID: uuid.New(), URL: server.URL, Secret: "s", Enabled: true}

	mock.ExpectExec(`INSERT INTO webhook_queue`).
		WithArgs(pgxmock.AnyArg(), webhook.ID, EventAlertCreated, pgxmock.AnyArg(), "HTTP 502").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock, testLogger())
	err = svc.Send(context.Background(), webhook, EventPayload{Type: EventAlertCreated, Data: "x"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Delete_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`DELETE FROM webhooks WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	svc := NewService(mock, testLogger())
	assert.ErrorIs(t, svc.Delete(context.Background(), id), ErrWebhookNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorker_ProcessQueue(t *testing.T) {
	var delivered int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&delivered, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	jobID := uuid.New()
	webhookID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM webhook_queue`).
		WithArgs(queueBatchSize).
		WillReturnRows(pgxmock.NewRows([]string{"id", "webhook_id", "event_type", "payload", "attempts", "max_attempts"}).
			AddRow(jobID, webhookID, EventAlertCreated, []byte(`{"type":"alert.created"}`), 1, 5))
	mock.ExpectQuery(`FROM webhooks WHERE id = \$1`).
		WithArgs(webhookID).
		WillReturnRows(pgxmock.NewRows(webhookRowColumns).
			AddRow(webhookID, "desk", server.URL, "s", []byte(`[]`), domain.Severity(""), true, (*time.Time)(nil), now, now))
	mock.ExpectExec(`SET status = 'delivered'`).
		WithArgs(jobID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	svc := NewService(mock, testLogger())
	worker := NewWorker(mock, svc, testLogger())

	require.NoError(t, worker.processQueue(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&delivered))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, time.Second, retryDelay(0))
	assert.Equal(t, 8*time.Second, retryDelay(3))
	assert.Equal(t, retryDelay(10), retryDelay(50))
}
