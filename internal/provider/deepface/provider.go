package deepface

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider implements provider.Comparator on top of the DeepFace /represent API.
// Descriptors are L2-normalized so distances are comparable across models.
type Provider struct {
	client *Client
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

func (p *Provider) Name() string {
	return "deepface"
}

// DetectFaces detects faces in the image
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	resp, err := p.represent(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		// DeepFace doesn't return quality, so both scores derive from face size
		faceArea := float64(result.FacialArea.W * result.FacialArea.H)
		if faceArea == 0 {
			continue
		}

		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(result.FacialArea.X),
				Y:      float64(result.FacialArea.Y),
				Width:  float64(result.FacialArea.W),
				Height: float64(result.FacialArea.H),
			},
			Confidence:   calculateConfidence(faceArea),
			QualityScore: calculateQuality(faceArea),
		})
	}

	return faces, nil
}

func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5
	}
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

func calculateQuality(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.4
	}
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.6 + (normalized * 0.35)
}

// Enroll extracts the reference descriptor from an image holding a single face
func (p *Provider) Enroll(ctx context.Context, image []byte) (*domain.Reference, error) {
	descriptor, err := p.descriptor(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}

	return &domain.Reference{
		Descriptor: descriptor,
		EnrolledAt: time.Now().UTC(),
	}, nil
}

// Compare extracts the live descriptor and measures its Euclidean distance to the reference
func (p *Provider) Compare(ctx context.Context, reference *domain.Reference, live []byte) (float64, error) {
	if reference == nil || len(reference.Descriptor) == 0 {
		return 0, provider.ErrReferenceInvalid
	}

	descriptor, err := p.descriptor(ctx, live)
	if err != nil {
		return 0, fmt.Errorf("compare: %w", err)
	}

	distance, err := EuclideanDistance(NormalizeEmbedding(reference.Descriptor), descriptor)
	if err != nil {
		return 0, fmt.Errorf("compare: %w", err)
	}
	return distance, nil
}

func (p *Provider) descriptor(ctx context.Context, image []byte) ([]float64, error) {
	resp, err := p.represent(ctx, image)
	if err != nil {
		return nil, err
	}

	found := make([]RepresentResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		// With enforce_detection off DeepFace answers with a whole-image area when nothing was found
		if len(r.Embedding) == 0 || r.FaceConfidence == 0 {
			continue
		}
		found = append(found, r)
	}

	switch len(found) {
	case 0:
		return nil, provider.ErrNoFace
	case 1:
		return NormalizeEmbedding(found[0].Embedding), nil
	default:
		return nil, provider.ErrMultipleFaces
	}
}

func (p *Provider) represent(ctx context.Context, image []byte) (*RepresentResponse, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage
	}
	return p.client.Represent(ctx, base64.StdEncoding.EncodeToString(image))
}

var _ provider.Comparator = (*Provider)(nil)
