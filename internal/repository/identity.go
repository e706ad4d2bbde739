package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

const identityColumns = `id, name, enrollment_number, email, role, unit, sub_unit, level, created_at, updated_at`

type IdentityRepository struct {
	pool PgxPool
}

func NewIdentityRepository(pool PgxPool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	query := `
		INSERT INTO identities (id, name, enrollment_number, email, role, unit, sub_unit, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		identity.ID,
		identity.Name,
		identity.EnrollmentNumber,
		nullable(identity.Email),
		identity.Role,
		nullable(identity.Tags[domain.TagUnit]),
		nullable(identity.Tags[domain.TagSubUnit]),
		nullable(identity.Tags[domain.TagLevel]),
	).Scan(&identity.CreatedAt, &identity.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrValidationFailed.WithError(fmt.Errorf("enrollment number %q already registered", identity.EnrollmentNumber))
		}
		return fmt.Errorf("create identity: %w", err)
	}

	return nil
}

func (r *IdentityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	query := `
		SELECT ` + identityColumns + `, reference_descriptor, reference_image, reference_enrolled_at
		FROM identities
		WHERE id = $1
	`

	identity, err := scanIdentityWithReference(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}

	return identity, nil
}

func (r *IdentityRepository) GetByEnrollmentNumber(ctx context.Context, enrollmentNumber string) (*domain.Identity, error) {
	query := `
		SELECT ` + identityColumns + `, reference_descriptor, reference_image, reference_enrolled_at
		FROM identities
		WHERE enrollment_number = $1
	`

	identity, err := scanIdentityWithReference(r.pool.QueryRow(ctx, query, enrollmentNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get identity by enrollment number: %w", err)
	}

	return identity, nil
}

// UpdateProfile applies the set fields of update and returns the stored
// identity. An empty tag value stores NULL.
func (r *IdentityRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.Identity, error) {
	query := `
		UPDATE identities
		SET name       = COALESCE($2, name),
		    email      = NULLIF(COALESCE($3, email), ''),
		    unit       = NULLIF(COALESCE($4, unit), ''),
		    sub_unit   = NULLIF(COALESCE($5, sub_unit), ''),
		    level      = NULLIF(COALESCE($6, level), ''),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + identityColumns

	identity, err := scanIdentity(r.pool.QueryRow(ctx, query,
		id, update.Name, update.Email, update.Unit, update.SubUnit, update.Level,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return identity, nil
}

// SaveReference replaces the enrolled reference. An identity holds at most one.
func (r *IdentityRepository) SaveReference(ctx context.Context, id uuid.UUID, ref *domain.Reference) error {
	query := `
		UPDATE identities
		SET reference_descriptor = $2, reference_image = $3, reference_enrolled_at = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, toVector(ref.Descriptor), ref.Image, ref.EnrolledAt)
	if err != nil {
		return fmt.Errorf("save reference: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrIdentityNotFound
	}

	return nil
}

// AppendAttempt inserts the record and re-reads the identity's history since
// the given instant inside one transaction. The identity row is locked so
// concurrent appends for the same identity are serialized.
func (r *IdentityRepository) AppendAttempt(ctx context.Context, record *domain.AttemptRecord, since time.Time) ([]domain.AttemptRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("append attempt: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM identities WHERE id = $1 FOR UPDATE`, record.IdentityID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("append attempt: lock identity: %w", err)
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO verification_attempts (id, identity_id, outcome, confidence, attempted_at)
		VALUES ($1, $2, $3, $4, $5)
	`, record.ID, record.IdentityID, record.Outcome, record.Confidence, record.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("append attempt: insert: %w", err)
	}

	history, err := queryHistory(ctx, tx, record.IdentityID, since)
	if err != nil {
		return nil, fmt.Errorf("append attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("append attempt: commit: %w", err)
	}

	return history, nil
}

// History returns the attempts recorded after since, oldest first
func (r *IdentityRepository) History(ctx context.Context, id uuid.UUID, since time.Time) ([]domain.AttemptRecord, error) {
	history, err := queryHistory(ctx, r.pool, id, since)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return history, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func queryHistory(ctx context.Context, q querier, id uuid.UUID, since time.Time) ([]domain.AttemptRecord, error) {
	query := `
		SELECT id, identity_id, outcome, confidence, attempted_at
		FROM verification_attempts
		WHERE identity_id = $1 AND attempted_at > $2
		ORDER BY attempted_at ASC
	`

	rows, err := q.Query(ctx, query, id, since)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []domain.AttemptRecord
	for rows.Next() {
		var rec domain.AttemptRecord
		if err := rows.Scan(&rec.ID, &rec.IdentityID, &rec.Outcome, &rec.Confidence, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		history = append(history, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}

	return history, nil
}

// List returns identities matching the filter, without their references
func (r *IdentityRepository) List(ctx context.Context, filter domain.IdentityFilter) ([]domain.Identity, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.Role != "" {
		args = append(args, filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if len(filter.Roles) > 0 {
		roles := make([]string, len(filter.Roles))
		for i, role := range filter.Roles {
			roles[i] = string(role)
		}
		args = append(args, roles)
		conditions = append(conditions, fmt.Sprintf("role = ANY($%d)", len(args)))
	}
	for _, kind := range []domain.TagKind{domain.TagUnit, domain.TagSubUnit, domain.TagLevel} {
		if v, ok := filter.Tags[kind]; ok && v != "" {
			args = append(args, v)
			conditions = append(conditions, fmt.Sprintf("%s = $%d", string(kind), len(args)))
		}
	}

	query := `SELECT ` + identityColumns + ` FROM identities`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var identities []domain.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, *identity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}

	return identities, nil
}

// PruneAttempts deletes attempts recorded before the cutoff
func (r *IdentityRepository) PruneAttempts(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM verification_attempts WHERE attempted_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune attempts: %w", err)
	}
	return result.RowsAffected(), nil
}

// CountFailures counts no-match attempts of all identities recorded after since
func (r *IdentityRepository) CountFailures(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM verification_attempts WHERE outcome = 'no_match' AND attempted_at > $1`,
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count failures: %w", err)
	}
	return count, nil
}

func scanIdentity(row pgx.Row) (*domain.Identity, error) {
	var (
		identity              domain.Identity
		email, unit, sub, lvl *string
	)

	err := row.Scan(
		&identity.ID,
		&identity.Name,
		&identity.EnrollmentNumber,
		&email,
		&identity.Role,
		&unit,
		&sub,
		&lvl,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	identity.Email = deref(email)
	identity.Tags = buildTags(unit, sub, lvl)
	return &identity, nil
}

func scanIdentityWithReference(row pgx.Row) (*domain.Identity, error) {
	var (
		identity              domain.Identity
		email, unit, sub, lvl *string
		descriptor            *pgvector.Vector
		image                 []byte
		enrolledAt            *time.Time
	)

	err := row.Scan(
		&identity.ID,
		&identity.Name,
		&identity.EnrollmentNumber,
		&email,
		&identity.Role,
		&unit,
		&sub,
		&lvl,
		&identity.CreatedAt,
		&identity.UpdatedAt,
		&descriptor,
		&image,
		&enrolledAt,
	)
	if err != nil {
		return nil, err
	}

	identity.Email = deref(email)
	identity.Tags = buildTags(unit, sub, lvl)

	if enrolledAt != nil {
		identity.Reference = &domain.Reference{
			Descriptor: fromVector(descriptor),
			Image:      image,
			EnrolledAt: *enrolledAt,
		}
	}

	return &identity, nil
}

func buildTags(unit, subUnit, level *string) domain.Tags {
	tags := domain.Tags{}
	if unit != nil {
		tags[domain.TagUnit] = *unit
	}
	if subUnit != nil {
		tags[domain.TagSubUnit] = *subUnit
	}
	if level != nil {
		tags[domain.TagLevel] = *level
	}
	return tags
}

var _ IdentityRepositoryInterface = (*IdentityRepository)(nil)
