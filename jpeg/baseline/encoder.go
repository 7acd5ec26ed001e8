package baseline

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/cocosip/go-video-codec/jpeg/common"
)

// Encoder is a reusable baseline block pipeline: transform and code a
// frame's planes, optionally keeping the closed-loop reconstruction, and
// emit a T.81 bitstream
type Encoder struct {
	opts *Options

	qtables  [2][64]int32
	dcTables [2]*common.HuffmanTable
	acTables [2]*common.HuffmanTable
	dcCodes  [2][256]common.HuffmanCode
	acCodes  [2][256]common.HuffmanCode
}

// NewEncoder creates an encoder with the quantisation tables scaled for
// opts.Quality and the recommended Huffman tables installed
func NewEncoder(opts *Options) (*Encoder, error) {
	if opts == nil {
		opts = NewOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	enc := &Encoder{opts: opts}
	enc.qtables[0] = common.ScaleQuantTable(common.DefaultLuminanceQuantTable, opts.Quality)
	enc.qtables[1] = common.ScaleQuantTable(common.DefaultChrominanceQuantTable, opts.Quality)

	enc.SetTables(
		[2]*common.HuffmanTable{common.DefaultDCTable(false), common.DefaultDCTable(true)},
		[2]*common.HuffmanTable{common.DefaultACTable(false), common.DefaultACTable(true)},
	)

	return enc, nil
}

// Options returns the encoder's options
func (e *Encoder) Options() *Options {
	return e.opts
}

// SetTables installs Huffman tables (index 0 = luminance, 1 = chrominance)
// and derives their canonical codes
func (e *Encoder) SetTables(dc, ac [2]*common.HuffmanTable) {
	e.dcTables = dc
	e.acTables = ac
	for i := 0; i < 2; i++ {
		e.dcCodes[i] = dc[i].BuildCodes()
		e.acCodes[i] = ac[i].BuildCodes()
	}
}

// Tables returns the installed Huffman tables in DHT order:
// DC luminance, AC luminance, DC chrominance, AC chrominance
func (e *Encoder) Tables() [4]*common.HuffmanTable {
	return [4]*common.HuffmanTable{e.dcTables[0], e.acTables[0], e.dcTables[1], e.acTables[1]}
}

// Scan is one channel's entropy-coded segment
type Scan struct {
	Data []byte // byte-stuffed, 1-padded ECS
	Bits int    // data bits before padding
}

// FrameState is the per-frame encoder state: every intermediate
// representation the pipeline produces for one frame
type FrameState struct {
	Planes *common.Planes

	// Per channel (Y, Cb, Cr), blocks in raster order
	Quantized [3][][64]int32
	Ordered   [3][][64]int32
	RunLength [3][][]common.ACSymbol
	DCDiffs   [3][]int32

	Scans [3]Scan

	// Recon holds the closed-loop reconstruction when enabled
	Recon *common.Planes
}

func (s *FrameState) channelPlane(ch int) ([]byte, int, int) {
	switch ch {
	case 0:
		return s.Planes.Y, s.Planes.YWidth, s.Planes.YHeight
	case 1:
		return s.Planes.Cb, s.Planes.CWidth, s.Planes.CHeight
	default:
		return s.Planes.Cr, s.Planes.CWidth, s.Planes.CHeight
	}
}

func (s *FrameState) reconPlane(ch int) []byte {
	switch ch {
	case 0:
		return s.Recon.Y
	case 1:
		return s.Recon.Cb
	default:
		return s.Recon.Cr
	}
}

// DCSymbols returns the DC category symbols of one table class, the source
// stream Huffman training consumes. Chroma concatenates Cb and Cr.
func (s *FrameState) DCSymbols(chroma bool) []byte {
	channels := []int{0}
	if chroma {
		channels = []int{1, 2}
	}
	var symbols []byte
	for _, ch := range channels {
		for _, d := range s.DCDiffs[ch] {
			cat, _ := common.Category(d)
			symbols = append(symbols, byte(cat))
		}
	}
	return symbols
}

// ACSymbols returns the run/size symbols of one table class
func (s *FrameState) ACSymbols(chroma bool) []byte {
	channels := []int{0}
	if chroma {
		channels = []int{1, 2}
	}
	var symbols []byte
	for _, ch := range channels {
		for _, block := range s.RunLength[ch] {
			for _, sym := range block {
				symbols = append(symbols, sym.RS)
			}
		}
	}
	return symbols
}

// Transform runs the forward path on every block of every plane: level
// shift, DCT, quantisation — and, when enabled, the inverse path into the
// reconstruction buffer using the same quantised coefficients
func (e *Encoder) Transform(p *common.Planes) (*FrameState, error) {
	if p.YWidth%8 != 0 || p.YHeight%8 != 0 || p.CWidth%8 != 0 || p.CHeight%8 != 0 {
		return nil, common.ErrGeometry
	}

	state := &FrameState{Planes: p}
	if e.opts.Reconstruction {
		state.Recon = p.Clone()
	}

	for ch := 0; ch < 3; ch++ {
		plane, w, h := state.channelPlane(ch)
		qt := &e.qtables[tableIndex(ch)]

		blocksWide := w / 8
		blocksHigh := h / 8
		state.Quantized[ch] = make([][64]int32, 0, blocksWide*blocksHigh)

		var block [64]int32
		var coef [64]float64
		for by := 0; by < blocksHigh; by++ {
			for bx := 0; bx < blocksWide; bx++ {
				common.ExtractBlock(plane, w, bx, by, &block)
				common.FDCT(&block, &coef)

				var q [64]int32
				common.Quantize(&coef, qt, &q)
				state.Quantized[ch] = append(state.Quantized[ch], q)

				if state.Recon != nil {
					var dq, rec [64]int32
					common.Dequantize(&q, qt, &dq)
					common.IDCT(&dq, &rec)
					common.StoreBlock(&rec, state.reconPlane(ch), w, bx, by)
				}
			}
		}
	}

	return state, nil
}

// PrepareSymbols runs the symbol stages on the quantised coefficients:
// zig-zag reorder, AC run-length coding, DC differentials. Each stage only
// runs when its toggle is set.
func (e *Encoder) PrepareSymbols(state *FrameState) {
	if !e.opts.Reordering {
		return
	}
	for ch := 0; ch < 3; ch++ {
		state.Ordered[ch] = make([][64]int32, len(state.Quantized[ch]))
		for i := range state.Quantized[ch] {
			state.Ordered[ch][i] = common.Reorder(&state.Quantized[ch][i])
		}
	}

	if e.opts.RunLengthCoding {
		for ch := 0; ch < 3; ch++ {
			state.RunLength[ch] = make([][]common.ACSymbol, len(state.Ordered[ch]))
			for i := range state.Ordered[ch] {
				state.RunLength[ch][i] = common.RunLength(&state.Ordered[ch][i])
			}
		}
	}

	if e.opts.DCDifferentials {
		for ch := 0; ch < 3; ch++ {
			dcs := make([]int32, len(state.Ordered[ch]))
			for i := range state.Ordered[ch] {
				dcs[i] = state.Ordered[ch][i][0]
			}
			state.DCDiffs[ch] = common.DCDifferences(dcs)
		}
	}
}

// TrainTables derives Huffman tables from the frame's own symbol streams
// and installs them
func (e *Encoder) TrainTables(state *FrameState) error {
	var dc, ac [2]*common.HuffmanTable

	for i, chroma := range []bool{false, true} {
		dcTable, err := common.OptimizeTable(common.CountSymbols(state.DCSymbols(chroma)))
		if err != nil {
			return errors.Wrap(err, "train DC table")
		}
		acTable, err := common.OptimizeTable(common.CountSymbols(state.ACSymbols(chroma)))
		if err != nil {
			return errors.Wrap(err, "train AC table")
		}
		dc[i] = dcTable
		ac[i] = acTable
	}

	e.SetTables(dc, ac)
	return nil
}

// EncodeScans entropy-codes the symbol streams of every channel into
// byte-stuffed, 1-padded ECS segments using the installed tables
func (e *Encoder) EncodeScans(state *FrameState) error {
	if !e.opts.entropyEnabled() {
		return nil
	}

	for ch := 0; ch < 3; ch++ {
		scan, err := e.encodeScan(state, ch)
		if err != nil {
			return errors.Wrapf(err, "encode scan %d", ch)
		}
		state.Scans[ch] = scan
	}

	return nil
}

func (e *Encoder) encodeScan(state *FrameState, ch int) (Scan, error) {
	t := tableIndex(ch)
	var buf bytes.Buffer
	bw := common.NewBitWriter(&buf)

	for i := range state.DCDiffs[ch] {
		cat, bits := common.Category(state.DCDiffs[ch][i])

		code := e.dcCodes[t][cat]
		if code.Len == 0 {
			return Scan{}, errors.Errorf("no DC code for category %d", cat)
		}
		if err := bw.WriteCode(code); err != nil {
			return Scan{}, err
		}
		if cat > 0 {
			if err := bw.WriteBits(bits, cat); err != nil {
				return Scan{}, err
			}
		}

		for _, sym := range state.RunLength[ch][i] {
			code := e.acCodes[t][sym.RS]
			if code.Len == 0 {
				return Scan{}, errors.Errorf("no AC code for symbol %#02x", sym.RS)
			}
			if err := bw.WriteCode(code); err != nil {
				return Scan{}, err
			}
			if sym.RS != common.SymbolEOB && sym.RS != common.SymbolZRL {
				cat, bits := common.Category(sym.Amplitude)
				if err := bw.WriteBits(bits, cat); err != nil {
					return Scan{}, err
				}
			}
		}
	}

	bits := bw.BitCount()
	if err := bw.Flush(); err != nil {
		return Scan{}, err
	}

	return Scan{Data: buf.Bytes(), Bits: bits}, nil
}

// EncodeFrame runs the full pipeline on one frame's planes
func (e *Encoder) EncodeFrame(p *common.Planes) (*FrameState, error) {
	state, err := e.Transform(p)
	if err != nil {
		return nil, err
	}

	e.PrepareSymbols(state)

	if e.opts.entropyEnabled() && e.opts.CustomHuffman {
		if err := e.TrainTables(state); err != nil {
			return nil, err
		}
	}

	if err := e.EncodeScans(state); err != nil {
		return nil, err
	}

	return state, nil
}

// WriteDQT writes the two quantisation tables, zig-zag ordered
func (e *Encoder) WriteDQT(w *common.Writer) error {
	for i := 0; i < 2; i++ {
		data := make([]byte, 1+64)
		data[0] = byte(i) // Pq=0 (8-bit), Tq=i

		for j := 0; j < 64; j++ {
			data[1+j] = byte(e.qtables[i][common.ZigZag[j]])
		}

		if err := w.WriteSegment(common.MarkerDQT, data); err != nil {
			return err
		}
	}

	return nil
}

// WriteDHT writes the four installed Huffman tables:
// DC luminance, AC luminance, DC chrominance, AC chrominance
func (e *Encoder) WriteDHT(w *common.Writer) error {
	order := []struct {
		class byte
		id    byte
		table *common.HuffmanTable
	}{
		{0, 0, e.dcTables[0]},
		{1, 0, e.acTables[0]},
		{0, 1, e.dcTables[1]},
		{1, 1, e.acTables[1]},
	}

	for _, t := range order {
		if err := common.WriteHuffmanTable(w, t.class, t.id, t.table); err != nil {
			return err
		}
	}

	return nil
}

// WriteSOF0 writes the baseline frame header for the declared geometry
func WriteSOF0(w *common.Writer, width, height int, mode common.ChromaMode) error {
	h, v := mode.Factors()

	data := make([]byte, 6+3*3)
	data[0] = 8 // precision
	data[1] = byte(height >> 8)
	data[2] = byte(height)
	data[3] = byte(width >> 8)
	data[4] = byte(width)
	data[5] = 3

	// Y
	data[6] = common.ComponentY
	data[7] = byte(h<<4) | byte(v)
	data[8] = 0
	// Cb
	data[9] = common.ComponentCb
	data[10] = 0x11
	data[11] = 1
	// Cr
	data[12] = common.ComponentCr
	data[13] = 0x11
	data[14] = 1

	return w.WriteSegment(common.MarkerSOF0, data)
}

// WriteSOS writes a single-component scan header. Scans are
// non-interleaved: one per channel, Y then Cb then Cr.
func WriteSOS(w *common.Writer, ch int) error {
	data := make([]byte, 6)
	data[0] = 1               // Ns
	data[1] = byte(ch + 1)    // Csi
	if ch == 0 {
		data[2] = 0x00 // Td:Ta
	} else {
		data[2] = 0x11
	}
	data[3] = 0  // Ss
	data[4] = 63 // Se
	data[5] = 0  // Ah:Al

	return w.WriteSegment(common.MarkerSOS, data)
}

// WriteBitstream emits the complete T.81 baseline stream for an encoded
// frame: SOI, DQT, DHT, SOF0, one SOS+ECS per channel, EOI
func (e *Encoder) WriteBitstream(w io.Writer, state *FrameState) error {
	if !e.opts.Bitstream || !e.opts.entropyEnabled() {
		return nil
	}

	writer := common.NewWriter(w)

	if err := writer.WriteMarker(common.MarkerSOI); err != nil {
		return err
	}
	if err := e.WriteDQT(writer); err != nil {
		return err
	}
	if err := e.WriteDHT(writer); err != nil {
		return err
	}
	if err := WriteSOF0(writer, state.Planes.Width, state.Planes.Height, state.Planes.Mode); err != nil {
		return err
	}

	for ch := 0; ch < 3; ch++ {
		if err := WriteSOS(writer, ch); err != nil {
			return err
		}
		if err := writer.WriteBytes(state.Scans[ch].Data); err != nil {
			return err
		}
	}

	return writer.WriteMarker(common.MarkerEOI)
}

// Encode encodes one packed YCbCr frame to a baseline JPEG stream with
// default options at the given quality
func Encode(pixelData []byte, width, height, components, quality int) ([]byte, error) {
	opts := NewOptions()
	opts.Quality = quality
	return EncodeWithOptions(pixelData, width, height, components, opts)
}

// EncodeWithOptions encodes one packed YCbCr frame with explicit options
func EncodeWithOptions(pixelData []byte, width, height, components int, opts *Options) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, common.ErrInvalidDimensions
	}
	if components != 3 {
		return nil, common.ErrInvalidComponents
	}

	enc, err := NewEncoder(opts)
	if err != nil {
		return nil, err
	}

	planes, err := common.Subsample(pixelData, width, height, enc.opts.Subsampling)
	if err != nil {
		return nil, err
	}

	state, err := enc.EncodeFrame(planes)
	if err != nil {
		return nil, errors.Wrap(err, "encode frame")
	}

	var buf bytes.Buffer
	if err := enc.WriteBitstream(&buf, state); err != nil {
		return nil, errors.Wrap(err, "write bitstream")
	}

	return buf.Bytes(), nil
}

func tableIndex(ch int) int {
	if ch == 0 {
		return 0
	}
	return 1
}
