package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/alert"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/audience"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

type alertFixture struct {
	service    *AlertService
	alerts     *MockAlertReader
	identities *MockIdentityStore
	raiser     *MockRaiser
	recipients *MockRecipients
}

func newAlertFixture() *alertFixture {
	f := &alertFixture{
		alerts:     new(MockAlertReader),
		identities: new(MockIdentityStore),
		raiser:     new(MockRaiser),
		recipients: new(MockRecipients),
	}
	f.service = NewAlertService(f.alerts, f.identities, f.raiser, f.recipients, audience.NewResolver(testLogger()), testLogger())
	return f
}

func TestAlertService_Broadcast(t *testing.T) {
	f := newAlertFixture()
	sender := uuid.New()

	f.raiser.On("Raise", mock.Anything, mock.MatchedBy(func(a *domain.Alert) bool {
		return a.Category == domain.CategoryGeneral && a.Severity == domain.SeverityMedium && a.SenderID == sender
	})).Return(42, nil)

	created, err := f.service.Broadcast(context.Background(), sender, alert.BroadcastRequest{Title: "Exam week", Body: "Library open 24h"})
	require.NoError(t, err)

	assert.Equal(t, 42, created.Recipients)
	assert.Equal(t, "Exam week", created.Alert.Title)
	f.raiser.AssertExpectations(t)
}

func TestAlertService_Broadcast_Invalid(t *testing.T) {
	f := newAlertFixture()

	_, err := f.service.Broadcast(context.Background(), uuid.New(), alert.BroadcastRequest{Title: "no body"})

	assert.True(t, errors.Is(err, domain.ErrValidationFailed))
	f.raiser.AssertNotCalled(t, "Raise", mock.Anything, mock.Anything)
}

func TestAlertService_SOS(t *testing.T) {
	f := newAlertFixture()
	reporter := &domain.Identity{ID: uuid.New(), Name: "Ana Souza", EnrollmentNumber: "2024001", Role: domain.RoleMember}

	f.identities.On("GetByID", mock.Anything, reporter.ID).Return(reporter, nil)
	f.raiser.On("Raise", mock.Anything, mock.MatchedBy(func(a *domain.Alert) bool {
		return a.Category == domain.CategorySOS && a.Severity == domain.SeverityCritical && a.Target.Bucket == domain.BucketStaff
	})).Return(3, nil)

	created, err := f.service.SOS(context.Background(), reporter.ID, alert.SOSRequest{Title: "Fall", Location: "Stairs B"})
	require.NoError(t, err)

	assert.Equal(t, "SOS: Fall", created.Alert.Title)
	assert.Equal(t, "Stairs B", created.Alert.Location)
	assert.Equal(t, 3, created.Recipients)
}

func TestAlertService_Feed(t *testing.T) {
	viewer := &domain.Identity{
		ID: uuid.New(), Role: domain.RoleMember,
		Tags: domain.Tags{domain.TagUnit: "engineering"},
	}
	now := time.Now()

	recent := []domain.Alert{
		{ID: uuid.New(), Title: "staff only", Target: domain.TargetSpec{Bucket: domain.BucketStaff}, CreatedAt: now},
		{ID: uuid.New(), Title: "engineering", Target: domain.TargetSpec{TagFilters: map[domain.TagKind][]string{domain.TagUnit: {"engineering"}}}, CreatedAt: now.Add(-time.Minute)},
		{ID: uuid.New(), Title: "everyone", Target: domain.TargetSpec{}, CreatedAt: now.Add(-2 * time.Minute)},
		{ID: uuid.New(), Title: "for me", Target: domain.TargetSpec{Recipients: []uuid.UUID{viewer.ID}}, CreatedAt: now.Add(-3 * time.Minute)},
		{ID: uuid.New(), Title: "law", Target: domain.TargetSpec{TagFilters: map[domain.TagKind][]string{domain.TagUnit: {"law"}}}, CreatedAt: now.Add(-4 * time.Minute)},
	}

	t.Run("filters by audience and keeps order", func(t *testing.T) {
		f := newAlertFixture()
		f.identities.On("GetByID", mock.Anything, viewer.ID).Return(viewer, nil)
		f.alerts.On("Recent", mock.Anything, (*domain.AlertCursor)(nil), defaultFeedScanLimit).Return(recent, nil)

		feed, err := f.service.Feed(context.Background(), viewer.ID)
		require.NoError(t, err)

		titles := make([]string, len(feed))
		for i, a := range feed {
			titles[i] = a.Title
		}
		assert.Equal(t, []string{"engineering", "everyone", "for me"}, titles)
	})

	t.Run("caps at feed limit", func(t *testing.T) {
		f := newAlertFixture()
		f.service.WithFeedLimits(2, 10)
		f.identities.On("GetByID", mock.Anything, viewer.ID).Return(viewer, nil)
		f.alerts.On("Recent", mock.Anything, (*domain.AlertCursor)(nil), 10).Return(recent, nil)

		feed, err := f.service.Feed(context.Background(), viewer.ID)
		require.NoError(t, err)
		assert.Len(t, feed, 2)
	})

	t.Run("reads past pages addressed to others", func(t *testing.T) {
		store := &pagedAlerts{}
		for i := 0; i < 600; i++ {
			store.alerts = append(store.alerts, domain.Alert{
				ID: uuid.New(), Title: "staff only",
				Target:    domain.TargetSpec{Bucket: domain.BucketStaff},
				CreatedAt: now.Add(-time.Duration(i) * time.Second),
			})
		}
		store.alerts = append(store.alerts, domain.Alert{
			ID: uuid.New(), Title: "campus wide",
			Target:    domain.TargetSpec{Bucket: domain.BucketEveryone},
			CreatedAt: now.Add(-time.Hour),
		})

		identities := new(MockIdentityStore)
		identities.On("GetByID", mock.Anything, viewer.ID).Return(viewer, nil)
		svc := NewAlertService(store, identities, new(MockRaiser), new(MockRecipients), audience.NewResolver(testLogger()), testLogger())

		feed, err := svc.Feed(context.Background(), viewer.ID)
		require.NoError(t, err)
		require.Len(t, feed, 1)
		assert.Equal(t, "campus wide", feed[0].Title)
		assert.Equal(t, 2, store.calls)
	})

	t.Run("stops once the feed is full", func(t *testing.T) {
		store := &pagedAlerts{}
		for i := 0; i < 30; i++ {
			store.alerts = append(store.alerts, domain.Alert{
				ID: uuid.New(), Title: "everyone",
				CreatedAt: now.Add(-time.Duration(i) * time.Second),
			})
		}

		identities := new(MockIdentityStore)
		identities.On("GetByID", mock.Anything, viewer.ID).Return(viewer, nil)
		svc := NewAlertService(store, identities, new(MockRaiser), new(MockRecipients), audience.NewResolver(testLogger()), testLogger()).
			WithFeedLimits(5, 5)

		feed, err := svc.Feed(context.Background(), viewer.ID)
		require.NoError(t, err)
		assert.Len(t, feed, 5)
		assert.Equal(t, 1, store.calls)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newAlertFixture()
		f.identities.On("GetByID", mock.Anything, viewer.ID).Return(viewer, nil)
		f.alerts.On("Recent", mock.Anything, (*domain.AlertCursor)(nil), defaultFeedScanLimit).Return(nil, errors.New("timeout"))

		_, err := f.service.Feed(context.Background(), viewer.ID)
		assert.True(t, errors.Is(err, domain.ErrPersistenceFailed))
	})
}

func TestAlertService_Get(t *testing.T) {
	member := &domain.Identity{ID: uuid.New(), Role: domain.RoleMember}
	staff := &domain.Identity{ID: uuid.New(), Role: domain.RoleSecurity}
	staffOnly := &domain.Alert{ID: uuid.New(), Target: domain.TargetSpec{Bucket: domain.BucketStaff}}

	f := newAlertFixture()
	f.identities.On("GetByID", mock.Anything, member.ID).Return(member, nil)
	f.identities.On("GetByID", mock.Anything, staff.ID).Return(staff, nil)
	f.alerts.On("GetByID", mock.Anything, staffOnly.ID).Return(staffOnly, nil)

	_, err := f.service.Get(context.Background(), member.ID, staffOnly.ID)
	assert.True(t, errors.Is(err, domain.ErrAlertNotFound))

	got, err := f.service.Get(context.Background(), staff.ID, staffOnly.ID)
	require.NoError(t, err)
	assert.Equal(t, staffOnly.ID, got.ID)
}

func TestAlertService_List(t *testing.T) {
	f := newAlertFixture()
	query := domain.AlertQuery{Category: domain.CategorySOS, Severity: domain.SeverityCritical, Limit: 10}
	f.alerts.On("List", mock.Anything, query).Return([]domain.Alert{{ID: uuid.New()}}, nil)

	alerts, err := f.service.List(context.Background(), query)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)

	_, err = f.service.List(context.Background(), domain.AlertQuery{Category: "party"})
	assert.True(t, errors.Is(err, domain.ErrValidationFailed))
}

func TestAlertService_Escalations(t *testing.T) {
	f := newAlertFixture()
	f.alerts.On("List", mock.Anything, domain.AlertQuery{Category: domain.CategoryEscalation, Limit: 50}).Return([]domain.Alert{}, nil)

	alerts, err := f.service.Escalations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts)
	f.alerts.AssertExpectations(t)
}

func TestAlertService_Targets(t *testing.T) {
	f := newAlertFixture()
	tags := domain.Tags{domain.TagUnit: "engineering", domain.TagLevel: "3"}
	members := []domain.Identity{{ID: uuid.New(), Name: "Ana", Role: domain.RoleMember, Tags: tags}}
	f.identities.On("List", mock.Anything, domain.IdentityFilter{Role: domain.RoleMember, Tags: tags}).Return(members, nil)

	out, err := f.service.Targets(context.Background(), tags)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Ana", out[0].Name)

	_, err = f.service.Targets(context.Background(), domain.Tags{"campus": "north"})
	assert.True(t, errors.Is(err, domain.ErrInvalidTargetSpec))
}

func TestAlertService_Preview(t *testing.T) {
	f := newAlertFixture()
	spec := domain.TargetSpec{Roles: []domain.Role{domain.RoleSecurity}}
	guard := &domain.Identity{ID: uuid.New(), Name: "Davi", Role: domain.RoleSecurity}
	f.recipients.On("Recipients", mock.Anything, spec).Return([]*domain.Identity{guard}, nil)

	preview, err := f.service.Preview(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, 1, preview.Count)
	assert.Equal(t, guard.ID, preview.Recipients[0].ID)

	_, err = f.service.Preview(context.Background(), domain.TargetSpec{Bucket: "robots"})
	assert.True(t, errors.Is(err, domain.ErrInvalidTargetSpec))
}

// pagedAlerts serves alerts newest first with keyset paging
type pagedAlerts struct {
	alerts []domain.Alert
	calls  int
}

func (p *pagedAlerts) GetByID(ctx context.Context, id uuid.UUID) (*domain.Alert, error) {
	for i := range p.alerts {
		if p.alerts[i].ID == id {
			return &p.alerts[i], nil
		}
	}
	return nil, domain.ErrAlertNotFound
}

func (p *pagedAlerts) Recent(ctx context.Context, before *domain.AlertCursor, limit int) ([]domain.Alert, error) {
	p.calls++

	start := 0
	if before != nil {
		for i := range p.alerts {
			if p.alerts[i].ID == before.ID {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	if end > len(p.alerts) {
		end = len(p.alerts)
	}
	return p.alerts[start:end], nil
}

func (p *pagedAlerts) List(ctx context.Context, query domain.AlertQuery) ([]domain.Alert, error) {
	return p.Recent(ctx, query.Before, query.Limit)
}
