package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/alert"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/match"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/provider"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/ws"
)

type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityStore) GetByEnrollmentNumber(ctx context.Context, enrollmentNumber string) (*domain.Identity, error) {
	args := m.Called(ctx, enrollmentNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityStore) SaveReference(ctx context.Context, id uuid.UUID, ref *domain.Reference) error {
	args := m.Called(ctx, id, ref)
	return args.Error(0)
}

func (m *MockIdentityStore) List(ctx context.Context, filter domain.IdentityFilter) ([]domain.Identity, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Identity), args.Error(1)
}

func (m *MockIdentityStore) UpdateProfile(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.Identity, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityStore) History(ctx context.Context, id uuid.UUID, since time.Time) ([]domain.AttemptRecord, error) {
	args := m.Called(ctx, id, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttemptRecord), args.Error(1)
}

type MockComparator struct {
	mock.Mock
}

func (m *MockComparator) Name() string {
	return "mock"
}

func (m *MockComparator) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.DetectedFace), args.Error(1)
}

func (m *MockComparator) Enroll(ctx context.Context, image []byte) (*domain.Reference, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reference), args.Error(1)
}

func (m *MockComparator) Compare(ctx context.Context, reference *domain.Reference, live []byte) (float64, error) {
	args := m.Called(ctx, reference, live)
	return args.Get(0).(float64), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) DispatchVerificationOutcome(ctx context.Context, identity *domain.Identity, verdict match.Verdict) (*alert.Result, error) {
	args := m.Called(ctx, identity, verdict)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alert.Result), args.Error(1)
}

type MockAlertReader struct {
	mock.Mock
}

func (m *MockAlertReader) GetByID(ctx context.Context, id uuid.UUID) (*domain.Alert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Alert), args.Error(1)
}

func (m *MockAlertReader) Recent(ctx context.Context, before *domain.AlertCursor, limit int) ([]domain.Alert, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Alert), args.Error(1)
}

func (m *MockAlertReader) List(ctx context.Context, query domain.AlertQuery) ([]domain.Alert, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Alert), args.Error(1)
}

type MockRaiser struct {
	mock.Mock
}

func (m *MockRaiser) Raise(ctx context.Context, a *domain.Alert) (int, error) {
	args := m.Called(ctx, a)
	return args.Int(0), args.Error(1)
}

type MockRecipients struct {
	mock.Mock
}

func (m *MockRecipients) Recipients(ctx context.Context, spec domain.TargetSpec) ([]*domain.Identity, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Identity), args.Error(1)
}

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) SendTo(recipients []uuid.UUID, eventType ws.EventType, data interface{}) {
	m.Called(recipients, eventType, data)
}
