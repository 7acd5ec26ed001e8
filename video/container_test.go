package video

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cocosip/go-video-codec/jpeg/common"
)

// containerInfo summarises a walked container stream
type containerInfo struct {
	pCount  int
	fps     int
	gops    int
	iFrames int
	pFrames int
}

// parseContainer walks the container grammar, failing the test on any
// structural violation. It also enforces the byte-stuffing invariant over
// every entropy-coded segment.
func parseContainer(t *testing.T, stream []byte) *containerInfo {
	t.Helper()

	info := &containerInfo{}
	i := 0

	marker := func() uint16 {
		require.Less(t, i+1, len(stream), "truncated stream at %d", i)
		return uint16(stream[i])<<8 | uint16(stream[i+1])
	}
	expect := func(want uint16) {
		require.Equalf(t, want, marker(), "marker at offset %d", i)
		i += 2
	}
	skipSegment := func(want uint16) {
		expect(want)
		length := int(stream[i])<<8 | int(stream[i+1])
		i += length
	}
	skipECS := func() {
		for i+1 < len(stream) {
			if stream[i] == 0xFF {
				if stream[i+1] == 0x00 {
					i += 2
					continue
				}
				return
			}
			i++
		}
	}

	expect(MarkerStartOfVideo)
	info.pCount = int(stream[i])<<8 | int(stream[i+1])
	i += 2
	info.fps = int(stream[i])
	i++

	skipSegment(common.MarkerDQT)
	skipSegment(common.MarkerDQT)

	for marker() != MarkerEndOfVideo {
		skipSegment(common.MarkerSOF0)

		mvLen := int(stream[i])<<8 | int(stream[i+1])
		i += mvLen

		for k := 0; k < 4; k++ {
			skipSegment(common.MarkerDHT)
		}

		expect(MarkerStartOfGOP)
		info.gops++

		for {
			m := marker()
			if m != MarkerIntraFrame && m != MarkerInterFrame {
				break
			}
			i += 2

			for ch := 0; ch < 3; ch++ {
				skipSegment(common.MarkerSOS)
				skipECS()
			}

			if m == MarkerIntraFrame {
				info.iFrames++
			} else {
				info.pFrames++
				expect(MarkerMotionVector)
				mvBytes := int(stream[i])
				i += 1 + mvBytes
			}
		}
	}

	expect(MarkerEndOfVideo)
	require.Equal(t, len(stream), i, "trailing bytes after end-of-video")

	return info
}

func TestWriteMVTableLength(t *testing.T) {
	table := &common.HuffmanTable{Values: []byte{0, 1, 2}}
	table.Bits[0] = 1
	table.Bits[1] = 2

	var buf bytes.Buffer
	writer := common.NewWriter(&buf)
	require.NoError(t, writeMVTable(writer, table))

	// 2 length bytes + 16 BITS bytes + 3 values
	data := buf.Bytes()
	require.Len(t, data, 21)
	require.Equal(t, byte(0), data[0])
	require.Equal(t, byte(21), data[1])
	require.Equal(t, byte(1), data[2])
	require.Equal(t, byte(2), data[3])
	require.Equal(t, []byte{0, 1, 2}, data[18:])
}

func TestEmptyMVTableSerialises(t *testing.T) {
	table, err := common.OptimizeTable(make([]int, 256))
	require.NoError(t, err)

	var buf bytes.Buffer
	writer := common.NewWriter(&buf)
	require.NoError(t, writeMVTable(writer, table))

	require.Equal(t, 18, buf.Len(), "2 length bytes + 16 zero BITS")
}
