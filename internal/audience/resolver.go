package audience

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

// Viewer is the part of an identity the resolver looks at
type Viewer struct {
	ID   uuid.UUID
	Role domain.Role
	Tags domain.Tags
}

// ViewerOf extracts the targeting attributes of an identity
func ViewerOf(identity *domain.Identity) Viewer {
	return Viewer{
		ID:   identity.ID,
		Role: identity.Role,
		Tags: identity.Tags,
	}
}

// IsRecipient is the single targeting predicate. Delivery at creation time
// and feed filtering at read time both go through it.
//
// An explicit recipient list decides alone. Otherwise the viewer is included
// when any clause holds: bucket everyone, bucket matching the viewer's broad
// category, viewer role listed, or (members only) a tag value intersecting
// the viewer's own tags. A spec with no narrowing at all targets everyone.
func IsRecipient(spec domain.TargetSpec, viewer Viewer) bool {
	if spec.HasRecipients() {
		for _, id := range spec.Recipients {
			if id == viewer.ID {
				return true
			}
		}
		return false
	}

	if spec.IsDegenerate() {
		return true
	}

	return bucketMatches(spec.Bucket, viewer.Role) ||
		roleListed(spec.Roles, viewer.Role) ||
		tagsIntersect(spec.TagFilters, viewer)
}

func bucketMatches(bucket domain.Bucket, role domain.Role) bool {
	switch bucket {
	case domain.BucketEveryone:
		return true
	case domain.BucketMembers:
		return role == domain.RoleMember
	case domain.BucketStaff:
		return role.IsStaff()
	default:
		return false
	}
}

func roleListed(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// tagsIntersect checks each classification dimension independently;
// an empty value list contributes nothing.
func tagsIntersect(filters map[domain.TagKind][]string, viewer Viewer) bool {
	if viewer.Role != domain.RoleMember {
		return false
	}

	for kind, values := range filters {
		own, ok := viewer.Tags[kind]
		if !ok || own == "" {
			continue
		}
		for _, v := range values {
			if v == own {
				return true
			}
		}
	}
	return false
}

// Resolver computes recipient sets over a population
type Resolver struct {
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger.With("component", "audience")}
}

// IsRecipient is the viewer form of the predicate
func (r *Resolver) IsRecipient(spec domain.TargetSpec, viewer Viewer) bool {
	return IsRecipient(spec, viewer)
}

// Resolve is the population form: it keeps population order and never
// mutates the identities it is given.
func (r *Resolver) Resolve(spec domain.TargetSpec, population []*domain.Identity) []*domain.Identity {
	if spec.IsDegenerate() {
		r.logger.Warn("degenerate target specification, resolving to everyone",
			"population", len(population),
		)
	}

	recipients := make([]*domain.Identity, 0, len(population))
	for _, identity := range population {
		if identity == nil {
			continue
		}
		if IsRecipient(spec, ViewerOf(identity)) {
			recipients = append(recipients, identity)
		}
	}

	r.logger.Debug("audience resolved",
		"bucket", spec.Bucket,
		"explicit_recipients", len(spec.Recipients),
		"population", len(population),
		"recipients", len(recipients),
	)

	return recipients
}

// Filter keeps the alerts the viewer should see, preserving order
func (r *Resolver) Filter(alerts []*domain.Alert, viewer Viewer) []*domain.Alert {
	visible := make([]*domain.Alert, 0, len(alerts))
	for _, a := range alerts {
		if IsRecipient(a.Target, viewer) {
			visible = append(visible, a)
		}
	}
	return visible
}

// RecipientIDs returns the IDs of the resolved identities
func RecipientIDs(identities []*domain.Identity) []uuid.UUID {
	ids := make([]uuid.UUID, len(identities))
	for i, identity := range identities {
		ids[i] = identity.ID
	}
	return ids
}
