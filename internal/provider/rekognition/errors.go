package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrInvalidImage indicates the image bytes are empty or outside Rekognition's size limits
	ErrInvalidImage = errors.New("invalid image for rekognition")
)
