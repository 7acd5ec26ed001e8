package codec

import "errors"

var (
	// ErrCodecNotFound is returned when a codec is not found in the registry
	ErrCodecNotFound = errors.New("codec not found")

	// ErrInvalidParameter is returned when encoding parameters are invalid
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidQuality is returned when the quality parameter is invalid
	ErrInvalidQuality = errors.New("invalid quality (must be 1-100)")

	// ErrInvalidSource is returned when a frame source selector is malformed
	ErrInvalidSource = errors.New("invalid frame source")

	// ErrUnsupportedFormat is returned when the format is not supported
	ErrUnsupportedFormat = errors.New("unsupported format")
)
