package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/config"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/provider"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/provider/rekognition"
)

// ProviderType defines supported face comparison provider types
type ProviderType string

const (
	// ProviderTypeDeepFace is the DeepFace provider (self-hosted)
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeRekognition is the AWS Rekognition provider (cloud, for prod)
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeMock never leaves the process; development only
	ProviderTypeMock ProviderType = "mock"
)

// NewComparator creates a Comparator based on configuration
//
// Environment variables:
//   - PROVIDER_TYPE: "deepface", "rekognition" or "mock" (default: "deepface")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5000")
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY via the AWS SDK credential chain
func NewComparator(ctx context.Context, cfg *config.Config) (provider.Comparator, error) {
	switch ProviderType(cfg.ProviderType) {
	case ProviderTypeRekognition:
		return createRekognitionProvider(ctx, cfg)

	case ProviderTypeDeepFace, "":
		return createDeepFaceProvider(cfg), nil

	case ProviderTypeMock:
		if cfg.IsProduction() {
			return nil, fmt.Errorf("mock provider is not allowed in production")
		}
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.ProviderType, ProviderTypeDeepFace, ProviderTypeRekognition, ProviderTypeMock)
	}
}

func createRekognitionProvider(ctx context.Context, cfg *config.Config) (provider.Comparator, error) {
	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}

	prov, err := rekognition.NewProvider(ctx, rekogConfig)
	if err != nil {
		return nil, fmt.Errorf("create rekognition provider: %w", err)
	}

	return prov, nil
}

func createDeepFaceProvider(cfg *config.Config) provider.Comparator {
	deepfaceConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}

	return deepface.NewProvider(deepfaceConfig)
}
