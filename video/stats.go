package video

import (
	"math"

	"github.com/cocosip/go-video-codec/jpeg/common"
)

// FrameStats records per-frame encode results
type FrameStats struct {
	// Type is 'i' or 'p'
	Type byte

	// FrameBits counts the entropy-coded scan bits of all channels
	FrameBits int

	// MVBits counts the motion vector bits (0 for I frames)
	MVBits int

	// TotalBits is FrameBits + MVBits
	TotalBits int

	// PSNRY is the luma PSNR of the reconstruction against the input,
	// +Inf for a lossless frame and 0 when reconstruction is disabled
	PSNRY float64
}

// Statistics aggregates per-frame results for one encode
type Statistics struct {
	Frames    []FrameStats
	TotalBits int
}

func (s *Statistics) add(fs FrameStats) {
	s.Frames = append(s.Frames, fs)
	s.TotalBits += fs.TotalBits
}

// psnrY computes the luma PSNR between two plane sets over the declared
// frame geometry
func psnrY(a, b *common.Planes) float64 {
	var sum float64
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			d := float64(a.Y[y*a.YWidth+x]) - float64(b.Y[y*b.YWidth+x])
			sum += d * d
		}
	}

	mse := sum / float64(a.Width*a.Height)
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}
