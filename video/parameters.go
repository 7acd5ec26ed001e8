package video

import (
	"strings"

	"github.com/edaniels/golog"

	"github.com/cocosip/go-video-codec/jpeg/common"
)

// Algorithm selects the block matching search strategy
type Algorithm string

// Supported block matching algorithms
const (
	FullSearch    Algorithm = "FSA"
	DiamondSearch Algorithm = "DSA"
)

// Metric selects the block matching distortion measure
type Metric string

// Supported distortion metrics
const (
	MetricSAD Metric = "SAD"
	MetricMAD Metric = "MAD"
)

// Config contains all options for the video encoder
type Config struct {
	// Quality drives the quantisation scale (1-100)
	Quality int

	// Subsampling selects the chroma sampling mode
	Subsampling common.ChromaMode

	// GOP is the group-of-pictures structure, e.g. "ippp". The input is
	// partitioned into consecutive GOPs of this length; the final GOP may
	// be shorter. The first character must be 'i'.
	GOP string

	// Framerate is the declared frame rate written to the header (1-255)
	Framerate int

	// BlockMatching selects full search or diamond search
	BlockMatching Algorithm

	// SearchDistance is the maximum motion vector component magnitude
	SearchDistance int

	// MacroblockSize is the luma block size for motion estimation
	MacroblockSize int

	// Metric is the block matching distortion measure
	Metric Metric

	// CustomHuffman trains per-GOP Huffman tables for P-frame residuals;
	// when unset P frames use the recommended tables
	CustomHuffman bool

	// Pipeline stage toggles, forwarded to the still-image pipeline.
	// Turning one off skips everything downstream and yields an empty
	// bitstream. With Reconstruction off the reference buffer falls back
	// to the raw input (open loop).
	Reordering      bool
	RunLengthCoding bool
	DCDifferentials bool
	EntropyCoding   bool
	Bitstream       bool
	Reconstruction  bool

	// Logger receives per-frame and per-GOP progress; nil disables logging
	Logger golog.Logger
}

// NewConfig creates a Config with default values
func NewConfig() *Config {
	return &Config{
		Quality:         85,
		Subsampling:     common.Chroma420,
		GOP:             "ippp",
		Framerate:       25,
		BlockMatching:   FullSearch,
		SearchDistance:  8,
		MacroblockSize:  16,
		Metric:          MetricSAD,
		CustomHuffman:   true,
		Reordering:      true,
		RunLengthCoding: true,
		DCDifferentials: true,
		EntropyCoding:   true,
		Bitstream:       true,
		Reconstruction:  true,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Quality < 1 || c.Quality > 100 {
		return common.ErrInvalidQuality
	}
	if !c.Subsampling.Valid() {
		return common.ErrInvalidChromaMode
	}
	if c.Framerate < 1 || c.Framerate > 255 {
		return ErrInvalidFramerate
	}
	gop := strings.ToLower(c.GOP)
	if len(gop) == 0 || gop[0] != 'i' {
		return ErrInvalidGOP
	}
	for _, ch := range gop {
		if ch != 'i' && ch != 'p' {
			return ErrInvalidGOP
		}
	}
	if c.BlockMatching != FullSearch && c.BlockMatching != DiamondSearch {
		return ErrInvalidBlockMatching
	}
	if c.Metric != MetricSAD && c.Metric != MetricMAD {
		return ErrInvalidMetric
	}
	if c.SearchDistance < 1 {
		return ErrInvalidSearchDistance
	}
	if c.MacroblockSize < 8 || c.MacroblockSize%8 != 0 {
		return ErrInvalidMacroblockSize
	}
	return nil
}

// gopTypes returns the normalised frame type sequence
func (c *Config) gopTypes() []byte {
	return []byte(strings.ToLower(c.GOP))
}

// pFramesPerGOP counts the P frames in a full GOP
func (c *Config) pFramesPerGOP() int {
	n := 0
	for _, t := range c.gopTypes() {
		if t == 'p' {
			n++
		}
	}
	return n
}
