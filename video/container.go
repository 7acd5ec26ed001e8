package video

import (
	"io"

	"github.com/cocosip/go-video-codec/jpeg/baseline"
	"github.com/cocosip/go-video-codec/jpeg/common"
)

// Container markers, taken from the reserved JPEG marker space
const (
	MarkerStartOfVideo = 0xFFB0
	MarkerStartOfGOP   = 0xFFB1
	MarkerIntraFrame   = 0xFFB2
	MarkerInterFrame   = 0xFFB3
	MarkerMotionVector = 0xFFB4
	MarkerEndOfVideo   = 0xFFBF
)

// encodedFrame is one frame's payload ready for emission
type encodedFrame struct {
	intra  bool
	scans  [3]baseline.Scan
	mvData []byte
}

// encodedGOP is one GOP's payload: its four residual Huffman tables, its
// motion vector table and its frames
type encodedGOP struct {
	dcTables [2]*common.HuffmanTable
	acTables [2]*common.HuffmanTable
	mvTable  *common.HuffmanTable
	frames   []encodedFrame
}

// writeContainer emits the video bitstream:
//
//	FFB0 | gop_p_count(2) | fps(1)
//	DQT (global)
//	per GOP: SOF0 | mv table | DHT x4 | FFB1 | frames
//	FFBF
func writeContainer(w io.Writer, still *baseline.Encoder, cfg *Config, width, height int, gops []*encodedGOP) error {
	writer := common.NewWriter(w)

	if err := writer.WriteMarker(MarkerStartOfVideo); err != nil {
		return err
	}
	if err := writer.WriteUint16(uint16(cfg.pFramesPerGOP())); err != nil {
		return err
	}
	if err := writer.WriteByte(byte(cfg.Framerate)); err != nil {
		return err
	}

	if err := still.WriteDQT(writer); err != nil {
		return err
	}

	for _, gop := range gops {
		if err := writeGOP(writer, cfg, width, height, gop); err != nil {
			return err
		}
	}

	return writer.WriteMarker(MarkerEndOfVideo)
}

func writeGOP(writer *common.Writer, cfg *Config, width, height int, gop *encodedGOP) error {
	if err := baseline.WriteSOF0(writer, width, height, cfg.Subsampling); err != nil {
		return err
	}

	if err := writeMVTable(writer, gop.mvTable); err != nil {
		return err
	}

	tables := []struct {
		class byte
		id    byte
		table *common.HuffmanTable
	}{
		{0, 0, gop.dcTables[0]},
		{1, 0, gop.acTables[0]},
		{0, 1, gop.dcTables[1]},
		{1, 1, gop.acTables[1]},
	}
	for _, t := range tables {
		if err := common.WriteHuffmanTable(writer, t.class, t.id, t.table); err != nil {
			return err
		}
	}

	if err := writer.WriteMarker(MarkerStartOfGOP); err != nil {
		return err
	}

	for _, frame := range gop.frames {
		if err := writeFrame(writer, &frame); err != nil {
			return err
		}
	}

	return nil
}

// writeMVTable writes the motion vector Huffman table as a length-prefixed
// BITS+HUFFVAL block; the length includes its own two bytes
func writeMVTable(writer *common.Writer, table *common.HuffmanTable) error {
	if err := writer.WriteUint16(uint16(2 + 16 + table.NumValues())); err != nil {
		return err
	}
	for i := 0; i < 16; i++ {
		if err := writer.WriteByte(byte(table.Bits[i])); err != nil {
			return err
		}
	}
	return writer.WriteBytes(table.Values)
}

func writeFrame(writer *common.Writer, frame *encodedFrame) error {
	marker := uint16(MarkerInterFrame)
	if frame.intra {
		marker = MarkerIntraFrame
	}
	if err := writer.WriteMarker(marker); err != nil {
		return err
	}

	for ch := 0; ch < 3; ch++ {
		if err := baseline.WriteSOS(writer, ch); err != nil {
			return err
		}
		if err := writer.WriteBytes(frame.scans[ch].Data); err != nil {
			return err
		}
	}

	if !frame.intra {
		if err := writer.WriteMarker(MarkerMotionVector); err != nil {
			return err
		}
		if err := writer.WriteByte(byte(len(frame.mvData))); err != nil {
			return err
		}
		if err := writer.WriteBytes(frame.mvData); err != nil {
			return err
		}
	}

	return nil
}
