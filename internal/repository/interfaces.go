package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool used by repositories (satisfied by pgxmock)
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// IdentityRepositoryInterface defines operations for identity and attempt history data access
type IdentityRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	GetByEnrollmentNumber(ctx context.Context, enrollmentNumber string) (*domain.Identity, error)
	Create(ctx context.Context, identity *domain.Identity) error
	SaveReference(ctx context.Context, id uuid.UUID, ref *domain.Reference) error
	AppendAttempt(ctx context.Context, record *domain.AttemptRecord, since time.Time) ([]domain.AttemptRecord, error)
	History(ctx context.Context, id uuid.UUID, since time.Time) ([]domain.AttemptRecord, error)
	List(ctx context.Context, filter domain.IdentityFilter) ([]domain.Identity, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.Identity, error)
	PruneAttempts(ctx context.Context, before time.Time) (int64, error)
	CountFailures(ctx context.Context, since time.Time) (int64, error)
}

// AlertRepositoryInterface defines operations for alert data access
type AlertRepositoryInterface interface {
	Create(ctx context.Context, alert *domain.Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Alert, error)
	Recent(ctx context.Context, before *domain.AlertCursor, limit int) ([]domain.Alert, error)
	List(ctx context.Context, query domain.AlertQuery) ([]domain.Alert, error)
}
