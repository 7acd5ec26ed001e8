package baseline

import (
	"github.com/cocosip/go-video-codec/jpeg/common"
)

// Options contains encoding options for the baseline still-image encoder
type Options struct {
	// Quality controls compression quality (1-100)
	// - 100: Best quality, minimal compression
	// - 85:  High quality (default)
	// - 50:  Lower quality, higher compression
	Quality int

	// Subsampling selects the chroma sampling mode
	Subsampling common.ChromaMode

	// CustomHuffman trains Huffman tables from the frame's own symbols
	// instead of using the recommended tables
	CustomHuffman bool

	// Reconstruction keeps a decoded copy of the frame built from the
	// same quantised coefficients the bitstream carries
	Reconstruction bool

	// Pipeline stage toggles. Turning one off skips it and everything
	// downstream of it; the produced bitstream is then empty.
	Reordering      bool
	RunLengthCoding bool
	DCDifferentials bool
	EntropyCoding   bool
	Bitstream       bool
}

// NewOptions creates Options with default values
func NewOptions() *Options {
	return &Options{
		Quality:         85,
		Subsampling:     common.Chroma420,
		Reordering:      true,
		RunLengthCoding: true,
		DCDifferentials: true,
		EntropyCoding:   true,
		Bitstream:       true,
	}
}

// Validate checks if the options are valid
func (o *Options) Validate() error {
	if o.Quality < 1 || o.Quality > 100 {
		return common.ErrInvalidQuality
	}
	if !o.Subsampling.Valid() {
		return common.ErrInvalidChromaMode
	}
	return nil
}

// entropyEnabled reports whether the entropy stage can run: it needs every
// upstream symbol stage
func (o *Options) entropyEnabled() bool {
	return o.EntropyCoding && o.Reordering && o.RunLengthCoding && o.DCDifferentials
}
