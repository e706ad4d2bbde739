package mock

import (
	"context"
	"crypto/sha256"
	"math"
	"time"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/provider"
)

const (
	embeddingDimension = 512
	minImageSize       = 1000
)

// Provider implementa provider.Comparator para testes e desenvolvimento.
// The same image always yields the same descriptor, so re-presenting the
// enrollment image matches at distance 0.
type Provider struct{}

// New cria uma nova instância do MockProvider
func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return "mock"
}

// DetectFaces simula detecção de faces
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if len(image) < minImageSize {
		return nil, domain.ErrInvalidImage
	}

	return []provider.DetectedFace{
		{
			BoundingBox: provider.BoundingBox{
				X:      0.1,
				Y:      0.1,
				Width:  0.8,
				Height: 0.8,
			},
			Confidence:   0.99,
			QualityScore: 0.95,
		},
	}, nil
}

// Enroll gera descritor determinístico baseado no hash da imagem
func (p *Provider) Enroll(ctx context.Context, image []byte) (*domain.Reference, error) {
	if len(image) < minImageSize {
		return nil, domain.ErrInvalidImage
	}

	return &domain.Reference{
		Descriptor: generateEmbedding(image),
		EnrolledAt: time.Now().UTC(),
	}, nil
}

// Compare calcula a distância euclidiana entre a referência e o descritor da imagem
func (p *Provider) Compare(ctx context.Context, reference *domain.Reference, live []byte) (float64, error) {
	if reference == nil || len(reference.Descriptor) != embeddingDimension {
		return 0, provider.ErrReferenceInvalid
	}
	if len(live) < minImageSize {
		return 0, domain.ErrInvalidImage
	}

	return euclidean(reference.Descriptor, generateEmbedding(live)), nil
}

// generateEmbedding gera embedding determinístico baseado no hash da imagem
func generateEmbedding(image []byte) []float64 {
	hash := sha256.Sum256(image)
	embedding := make([]float64, embeddingDimension)
	hashLen := len(hash)

	for i := 0; i < embeddingDimension; i++ {
		idx := i % hashLen
		//nolint:gosec // idx is always < hashLen due to modulo operation
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

var _ provider.Comparator = (*Provider)(nil)
