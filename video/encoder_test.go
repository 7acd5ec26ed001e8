package video

import (
	"bytes"
	"math"
	"testing"

	"github.com/edaniels/golog"
	"github.com/stretchr/testify/require"

	"github.com/cocosip/go-video-codec/jpeg/common"
)

func testFrames(t *testing.T, n, width, height int, motion bool) [][]byte {
	t.Helper()

	frames := make([][]byte, n)
	for i := range frames {
		shift := 0
		if motion {
			shift = i
		}
		frame := make([]byte, width*height*3)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				sx, sy := x-shift, y
				idx := (y*width + x) * 3
				frame[idx] = byte((sx*5 + sy*11 + (sx*sy)%23 + 512) % 256)
				frame[idx+1] = byte(96 + (sx+sy)%16)
				frame[idx+2] = byte(160 - (sx-sy)%16&15)
			}
		}
		frames[i] = frame
	}
	return frames
}

func testConfig() *Config {
	cfg := NewConfig()
	cfg.Quality = 75
	cfg.GOP = "ip"
	cfg.Framerate = 25
	cfg.SearchDistance = 8
	cfg.MacroblockSize = 16
	return cfg
}

func TestEncodeIdenticalFramesScenario(t *testing.T) {
	// Two identical frames, GOP "ip": zero vectors, zero residual, the P
	// frame codes one DC=0 plus EOB per block and channel
	cfg := testConfig()
	enc, err := NewEncoder(cfg)
	require.NoError(t, err)

	// Flat grey reconstructs exactly, so the P frame sees a residual of
	// zeros against the decoded reference
	grey := make([]byte, 32*32*3)
	for i := range grey {
		grey[i] = 128
	}
	planes := make([]*common.Planes, 2)
	for i := range planes {
		planes[i], err = common.SubsampleAligned(grey, 32, 32, cfg.Subsampling, cfg.MacroblockSize)
		require.NoError(t, err)
	}

	stats := &Statistics{}
	var ref *common.Planes
	gop, err := enc.encodeGOP(planes, cfg.gopTypes(), &ref, stats)
	require.NoError(t, err)

	require.Len(t, gop.frames, 2)
	require.True(t, gop.frames[0].intra)
	require.False(t, gop.frames[1].intra)

	require.Len(t, stats.Frames, 2)
	require.Equal(t, byte('i'), stats.Frames[0].Type)
	require.Equal(t, byte('p'), stats.Frames[1].Type)
	require.Zero(t, stats.Frames[0].MVBits)

	// Zero residual everywhere: the trained tables code each block as one
	// 1-bit DC-zero code plus one 1-bit EOB. 16 luma + 8 chroma blocks
	// make 48 scan bits; 4 macroblocks x 2 components make 8 MV bits.
	require.Equal(t, 48, stats.Frames[1].FrameBits)
	require.Equal(t, 8, stats.Frames[1].MVBits)

	// Identical input and a clean reference make the P reconstruction
	// exact
	require.True(t, math.IsInf(stats.Frames[1].PSNRY, 1),
		"P frame PSNR = %f, want +Inf", stats.Frames[1].PSNRY)
}

func TestEncodeFramesContainerStructure(t *testing.T) {
	cfg := testConfig()
	cfg.GOP = "ippp"
	cfg.Logger = golog.NewTestLogger(t)

	enc, err := NewEncoder(cfg)
	require.NoError(t, err)

	frames := testFrames(t, 10, 32, 32, true)
	stream, stats, err := enc.EncodeFrames(frames, 32, 32)
	require.NoError(t, err)
	require.Len(t, stats.Frames, 10)

	c := parseContainer(t, stream)
	require.Equal(t, 3, c.pCount, "P frames per GOP")
	require.Equal(t, 25, c.fps)
	require.Equal(t, 3, c.gops, "10 frames at GOP length 4")
	require.Equal(t, 3, c.iFrames)
	require.Equal(t, 7, c.pFrames)

	// GOP partitioning: frames 0, 4 and 8 are intra
	for i, fs := range stats.Frames {
		want := byte('p')
		if i%4 == 0 {
			want = 'i'
		}
		require.Equalf(t, want, fs.Type, "frame %d", i)
	}
}

func TestEncodeFramesDeterministic(t *testing.T) {
	frames := testFrames(t, 6, 32, 32, true)

	encode := func() []byte {
		enc, err := NewEncoder(testConfig())
		require.NoError(t, err)
		stream, _, err := enc.EncodeFrames(frames, 32, 32)
		require.NoError(t, err)
		return stream
	}

	require.True(t, bytes.Equal(encode(), encode()), "repeat encodes differ")
}

func TestEncodeFramesTogglesYieldEmptyStream(t *testing.T) {
	cfg := testConfig()
	cfg.EntropyCoding = false

	enc, err := NewEncoder(cfg)
	require.NoError(t, err)

	stream, stats, err := enc.EncodeFrames(testFrames(t, 2, 32, 32, false), 32, 32)
	require.NoError(t, err)
	require.Empty(t, stream)
	require.Len(t, stats.Frames, 2)
	require.Zero(t, stats.TotalBits)
}

func TestEncodeFramesValidation(t *testing.T) {
	enc, err := NewEncoder(testConfig())
	require.NoError(t, err)

	_, _, err = enc.EncodeFrames(nil, 32, 32)
	require.ErrorIs(t, err, ErrNoFrames)

	_, _, err = enc.EncodeFrames([][]byte{make([]byte, 10)}, 32, 32)
	require.ErrorIs(t, err, common.ErrBufferTooSmall)
}

func TestNewEncoderConfigValidation(t *testing.T) {
	cases := []struct {
		mutate func(*Config)
		want   error
	}{
		{func(c *Config) { c.Quality = 0 }, common.ErrInvalidQuality},
		{func(c *Config) { c.GOP = "pp" }, ErrInvalidGOP},
		{func(c *Config) { c.GOP = "ixp" }, ErrInvalidGOP},
		{func(c *Config) { c.Framerate = 0 }, ErrInvalidFramerate},
		{func(c *Config) { c.Framerate = 300 }, ErrInvalidFramerate},
		{func(c *Config) { c.BlockMatching = "TSS" }, ErrInvalidBlockMatching},
		{func(c *Config) { c.Metric = "SSD" }, ErrInvalidMetric},
		{func(c *Config) { c.SearchDistance = 0 }, ErrInvalidSearchDistance},
		{func(c *Config) { c.MacroblockSize = 12 }, ErrInvalidMacroblockSize},
		{func(c *Config) { c.MacroblockSize = 4 }, ErrInvalidMacroblockSize},
	}

	for _, c := range cases {
		cfg := NewConfig()
		c.mutate(cfg)
		_, err := NewEncoder(cfg)
		require.ErrorIs(t, err, c.want)
	}
}

func TestEncodeSourceFrames(t *testing.T) {
	enc, err := NewEncoder(testConfig())
	require.NoError(t, err)

	frames := testFrames(t, 2, 32, 32, false)
	stream, stats, err := enc.EncodeSource(Frames{Data: frames, Width: 32, Height: 32}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, stream)
	require.Len(t, stats.Frames, 2)
}

func TestEncodeMVSegmentTooLong(t *testing.T) {
	// 1024 vectors of category-3 components cannot fit the one-byte
	// length field
	f := &Field{Cols: 32, Rows: 32, Vectors: make([]Vector, 1024)}
	for i := range f.Vectors {
		f.Vectors[i] = Vector{DX: 7, DY: -7}
	}

	table, err := common.OptimizeTable(common.CountSymbols(mvSymbols([]gopFrame{{field: f}})))
	require.NoError(t, err)

	_, _, err = encodeMVs(f, table.BuildCodes())
	require.ErrorIs(t, err, ErrMVSegmentTooLong)
}

func TestMVComponentsColumnMajor(t *testing.T) {
	f := &Field{Cols: 2, Rows: 2, Vectors: []Vector{
		{1, 10}, {2, 20},
		{3, 30}, {4, 40},
	}}

	got := f.components()
	want := []int32{1, 3, 2, 4, 10, 30, 20, 40}
	require.Equal(t, want, got)
}
