package alert

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryAttempts is an append-only attempt log per identity
type memoryAttempts struct {
	mu       sync.Mutex
	history  map[uuid.UUID][]domain.AttemptRecord
	err      error
	delay    time.Duration
	inFlight map[uuid.UUID]*int32
	overlaps int32
}

func newMemoryAttempts() *memoryAttempts {
	return &memoryAttempts{
		history:  make(map[uuid.UUID][]domain.AttemptRecord),
		inFlight: make(map[uuid.UUID]*int32),
	}
}

func (m *memoryAttempts) seed(id uuid.UUID, records ...domain.AttemptRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[id] = append(m.history[id], records...)
}

func (m *memoryAttempts) counter(id uuid.UUID) *int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.inFlight[id]
	if !ok {
		c = new(int32)
		m.inFlight[id] = c
	}
	return c
}

func (m *memoryAttempts) AppendAttempt(_ context.Context, record *domain.AttemptRecord, since time.Time) ([]domain.AttemptRecord, error) {
	if m.err != nil {
		return nil, m.err
	}

	c := m.counter(record.IdentityID)
	if atomic.AddInt32(c, 1) > 1 {
		atomic.AddInt32(&m.overlaps, 1)
	}
	defer atomic.AddInt32(c, -1)

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.history[record.IdentityID] = append(m.history[record.IdentityID], *record)

	var out []domain.AttemptRecord
	for _, r := range m.history[record.IdentityID] {
		if r.Timestamp.After(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

type memoryAlerts struct {
	mu     sync.Mutex
	alerts []*domain.Alert
	err    error
}

func (m *memoryAlerts) Create(_ context.Context, alert *domain.Alert) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *memoryAlerts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}

type staticPopulation struct {
	identities []domain.Identity
	err        error
}

func (p *staticPopulation) List(_ context.Context, _ domain.IdentityFilter) ([]domain.Identity, error) {
	return p.identities, p.err
}

type recordingWebhooks struct {
	mu        sync.Mutex
	delivered []uuid.UUID
	err       error
}

func (r *recordingWebhooks) Deliver(_ context.Context, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, alert.ID)
	return r.err
}

func campus() (member, otherMember, admin, security domain.Identity) {
	member = domain.Identity{
		ID: uuid.New(), Name: "Ana Souza", EnrollmentNumber: "2024001", Role: domain.RoleMember,
		Tags: domain.Tags{domain.TagUnit: "engineering", domain.TagLevel: "3"},
	}
	otherMember = domain.Identity{
		ID: uuid.New(), Name: "Bruno Lima", EnrollmentNumber: "2024002", Role: domain.RoleMember,
		Tags: domain.Tags{domain.TagUnit: "law"},
	}
	admin = domain.Identity{ID: uuid.New(), Name: "Carla Admin", EnrollmentNumber: "A-1", Role: domain.RoleAdmin}
	security = domain.Identity{ID: uuid.New(), Name: "Davi Guard", EnrollmentNumber: "S-1", Role: domain.RoleSecurity}
	return
}
