package video

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/cocosip/go-video-codec/codec"
)

func TestParseSourceImageSequence(t *testing.T) {
	src, err := ParseSource("imgs/s:01:03:.png")
	require.NoError(t, err)

	seq, ok := src.(ImageSequence)
	require.True(t, ok, "expected ImageSequence, got %T", src)

	require.Equal(t, []string{"imgs/s01.png", "imgs/s02.png", "imgs/s03.png"}, seq.Paths())
}

func TestParseSourceImageSequenceWidePadding(t *testing.T) {
	src, err := ParseSource("frame_:8:10:.ppm")
	require.NoError(t, err)

	seq := src.(ImageSequence)
	require.Equal(t, []string{"frame_08.ppm", "frame_09.ppm", "frame_10.ppm"}, seq.Paths())
}

func TestParseSourceAVIVariants(t *testing.T) {
	src, err := ParseSource("clip.avi")
	require.NoError(t, err)
	require.Equal(t, AVI{Path: "clip.avi", Start: 0, End: -1}, src)

	src, err = ParseSource("clip.avi:5")
	require.NoError(t, err)
	require.Equal(t, AVI{Path: "clip.avi", Start: 5, End: -1}, src)

	src, err = ParseSource("clip.avi:5:20")
	require.NoError(t, err)
	require.Equal(t, AVI{Path: "clip.avi", Start: 5, End: 20}, src)
}

func TestParseSourceErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"clip.avi:x",
		"clip.avi:1:y",
		"a:2:1:.png",
		"a:b:3:.png",
		"a:1:2:3:4",
	} {
		_, err := ParseSource(s)
		require.Errorf(t, err, "selector %q should fail", s)
		require.True(t, errors.Is(err, codec.ErrInvalidSource), "selector %q: %v", s, err)
	}
}
