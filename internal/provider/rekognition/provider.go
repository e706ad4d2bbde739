package rekognition

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
	// noMatchDistance is reported when Rekognition finds a face but no similarity at all
	noMatchDistance = 1.0
)

// Provider implements provider.Comparator using AWS Rekognition.
// Rekognition does not expose descriptors, so the reference keeps the
// enrollment image and every comparison is image-to-image via CompareFaces.
type Provider struct {
	api API
}

var _ provider.Comparator = (*Provider)(nil)

// NewProvider creates a Rekognition provider backed by the AWS SDK client
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewProviderWithAPI(client), nil
}

// NewProviderWithAPI wires an existing API implementation
func NewProviderWithAPI(api API) *Provider {
	return &Provider{api: api}
}

func (p *Provider) Name() string {
	return "rekognition"
}

func validateImage(image []byte) error {
	if len(image) == 0 {
		return ErrInvalidImage
	}
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// DetectFaces detects faces in an image using AWS Rekognition DetectFaces API
// Returns an empty slice if no faces are detected (not an error)
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if err := validateImage(image); err != nil {
		return nil, err
	}

	output, err := p.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", parseAPIError(err))
	}

	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		face := provider.DetectedFace{
			Confidence:   float64(aws.ToFloat32(detail.Confidence)) / 100.0,
			QualityScore: calculateQualityScore(detail.Quality),
		}
		if box := detail.BoundingBox; box != nil {
			face.BoundingBox = provider.BoundingBox{
				X:      float64(aws.ToFloat32(box.Left)),
				Y:      float64(aws.ToFloat32(box.Top)),
				Width:  float64(aws.ToFloat32(box.Width)),
				Height: float64(aws.ToFloat32(box.Height)),
			}
		}
		faces = append(faces, face)
	}

	return faces, nil
}

// Enroll keeps the image as the reference once it holds exactly one face
func (p *Provider) Enroll(ctx context.Context, image []byte) (*domain.Reference, error) {
	faces, err := p.DetectFaces(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}
	if err := provider.SingleFace(faces); err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}

	stored := make([]byte, len(image))
	copy(stored, image)

	return &domain.Reference{
		Image:      stored,
		EnrolledAt: time.Now().UTC(),
	}, nil
}

// Compare runs CompareFaces and converts the best similarity (0-100) into a distance in [0, 1]
func (p *Provider) Compare(ctx context.Context, reference *domain.Reference, live []byte) (float64, error) {
	if reference == nil || len(reference.Image) == 0 {
		return 0, provider.ErrReferenceInvalid
	}
	if err := validateImage(live); err != nil {
		return 0, err
	}

	output, err := p.api.CompareFaces(ctx, &rekognition.CompareFacesInput{
		SourceImage:         &types.Image{Bytes: reference.Image},
		TargetImage:         &types.Image{Bytes: live},
		SimilarityThreshold: aws.Float32(0),
	})
	if err != nil {
		return 0, fmt.Errorf("compare faces: %w", parseAPIError(err))
	}

	switch total := len(output.FaceMatches) + len(output.UnmatchedFaces); {
	case total == 0:
		return 0, provider.ErrNoFace
	case total > 1:
		return 0, provider.ErrMultipleFaces
	}

	if len(output.FaceMatches) == 0 {
		return noMatchDistance, nil
	}

	return SimilarityToDistance(float64(aws.ToFloat32(output.FaceMatches[0].Similarity))), nil
}

// SimilarityToDistance maps a Rekognition similarity percentage onto a distance
func SimilarityToDistance(similarity float64) float64 {
	switch {
	case similarity <= 0:
		return noMatchDistance
	case similarity >= 100:
		return 0
	}
	return 1 - similarity/100.0
}

// calculateQualityScore computes an overall quality score from Rekognition quality metrics
// Returns a score between 0.0 (poor quality) and 1.0 (excellent quality)
func calculateQualityScore(quality *types.ImageQuality) float64 {
	if quality == nil {
		return 0.0
	}

	brightness := float64(aws.ToFloat32(quality.Brightness)) / 100.0
	sharpness := float64(aws.ToFloat32(quality.Sharpness)) / 100.0

	// Sharpness weighs more for recognition
	return brightness*0.3 + sharpness*0.7
}
