package video

import "errors"

var (
	// ErrInvalidGOP is returned when the GOP structure string is malformed
	ErrInvalidGOP = errors.New("invalid GOP structure (need i/p characters, starting with i)")

	// ErrInvalidFramerate is returned when the frame rate is outside 1-255
	ErrInvalidFramerate = errors.New("invalid frame rate (must be 1-255)")

	// ErrInvalidBlockMatching is returned for an unknown search algorithm
	ErrInvalidBlockMatching = errors.New("invalid block matching algorithm")

	// ErrInvalidMetric is returned for an unknown distortion metric
	ErrInvalidMetric = errors.New("invalid block matching metric")

	// ErrInvalidSearchDistance is returned for a non-positive search distance
	ErrInvalidSearchDistance = errors.New("invalid search distance")

	// ErrInvalidMacroblockSize is returned when the macroblock size is not
	// a multiple of 8 of at least 8
	ErrInvalidMacroblockSize = errors.New("invalid macroblock size (must be >= 8 and a multiple of 8)")

	// ErrNoFrames is returned when the input holds no frames
	ErrNoFrames = errors.New("no input frames")

	// ErrMVSegmentTooLong is returned when a motion vector segment exceeds
	// the 255-byte limit its single length byte can express
	ErrMVSegmentTooLong = errors.New("motion vector segment exceeds 255 bytes")
)
