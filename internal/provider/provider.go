package provider

import (
	"context"
	"errors"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

// Errors returned by comparators when no comparable descriptor can be produced.
// Callers treat every one of them as an indeterminate verification.
var (
	ErrNoFace           = errors.New("no face found in image")
	ErrMultipleFaces    = errors.New("more than one face found in image")
	ErrReferenceInvalid = errors.New("reference cannot be compared by this provider")
)

// Comparator define a interface para provedores de comparação facial.
// The comparison itself is opaque: implementations only promise a distance
// where smaller means more alike and 0 means identical.
type Comparator interface {
	// Name identifies the provider in logs, audit events and metrics
	Name() string

	// DetectFaces detecta faces na imagem e retorna informações sobre cada uma
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)

	// Enroll extrai a referência biométrica de uma imagem com exatamente uma face
	Enroll(ctx context.Context, image []byte) (*domain.Reference, error)

	// Compare returns the distance between an enrolled reference and a live capture
	Compare(ctx context.Context, reference *domain.Reference, live []byte) (float64, error)
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox  BoundingBox `json:"bounding_box"`
	Confidence   float64     `json:"confidence"`
	QualityScore float64     `json:"quality_score"`
}

// BoundingBox represents the face area in the image
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SingleFace returns ErrNoFace or ErrMultipleFaces unless exactly one face was detected
func SingleFace(faces []DetectedFace) error {
	switch len(faces) {
	case 0:
		return ErrNoFace
	case 1:
		return nil
	default:
		return ErrMultipleFaces
	}
}
