package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of account roles on campus.
type Role string

const (
	RoleMember   Role = "member"
	RoleAdmin    Role = "admin"
	RoleSecurity Role = "security"
)

var validRoles = map[Role]bool{
	RoleMember:   true,
	RoleAdmin:    true,
	RoleSecurity: true,
}

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsStaff reports whether r belongs to the privileged-staff bucket
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSecurity
}

// TagKind names one classification dimension of an identity.
type TagKind string

const (
	TagUnit    TagKind = "unit"
	TagSubUnit TagKind = "sub_unit"
	TagLevel   TagKind = "level"
)

var validTagKinds = map[TagKind]bool{
	TagUnit:    true,
	TagSubUnit: true,
	TagLevel:   true,
}

// IsValid reports whether k is a known classification dimension
func (k TagKind) IsValid() bool {
	return validTagKinds[k]
}

// Tags maps each classification dimension to the identity's value for it.
// A missing key means the identity carries no value for that dimension.
type Tags map[TagKind]string

// Identity representa um usuário cadastrado (membro, administrador ou segurança)
type Identity struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	EnrollmentNumber string     `json:"enrollment_number"`
	Email            string     `json:"email,omitempty"`
	Role             Role       `json:"role"`
	Tags             Tags       `json:"tags,omitempty"`
	Reference        *Reference `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// HasReference reports whether a biometric reference is enrolled
func (i *Identity) HasReference() bool {
	return i.Reference != nil && (len(i.Reference.Descriptor) > 0 || len(i.Reference.Image) > 0)
}

// DisplayInfo is the subset of identity fields carried in alert bodies and responses
type DisplayInfo struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	EnrollmentNumber string    `json:"enrollment_number"`
	Role             Role      `json:"role"`
	Tags             Tags      `json:"tags,omitempty"`
}

func (i *Identity) Display() DisplayInfo {
	return DisplayInfo{
		ID:               i.ID,
		Name:             i.Name,
		EnrollmentNumber: i.EnrollmentNumber,
		Role:             i.Role,
		Tags:             i.Tags,
	}
}

// Reference representa a face de referência cadastrada de uma identidade.
// Descriptor is used by embedding providers, Image by image-to-image providers.
type Reference struct {
	Descriptor []float64 `json:"-"`
	Image      []byte    `json:"-"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Outcome is the result of one verification attempt.
type Outcome string

const (
	OutcomeMatch         Outcome = "match"
	OutcomeNoMatch       Outcome = "no_match"
	OutcomeIndeterminate Outcome = "indeterminate"
)

// AttemptRecord representa uma tentativa de verificação registrada (imutável)
type AttemptRecord struct {
	ID         uuid.UUID `json:"id"`
	IdentityID uuid.UUID `json:"identity_id"`
	Timestamp  time.Time `json:"timestamp"`
	Outcome    Outcome   `json:"outcome"`
	Confidence float64   `json:"confidence"`
}

// IdentityFilter narrows identity listings. Zero values are ignored.
// Roles matches any of the listed roles.
type IdentityFilter struct {
	Role  Role
	Roles []Role
	Tags  Tags
}

// ProfileUpdate carries the self-editable profile fields. Nil fields are
// left unchanged; an empty tag value clears that tag.
type ProfileUpdate struct {
	Name    *string
	Email   *string
	Unit    *string
	SubUnit *string
	Level   *string
}

// IsEmpty reports whether no field is set
func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Unit == nil && u.SubUnit == nil && u.Level == nil
}

// TouchesTags reports whether the update changes targeting data
func (u ProfileUpdate) TouchesTags() bool {
	return u.Unit != nil || u.SubUnit != nil || u.Level != nil
}
