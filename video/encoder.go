package video

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/cocosip/go-video-codec/codec"
	"github.com/cocosip/go-video-codec/jpeg/baseline"
	"github.com/cocosip/go-video-codec/jpeg/common"
)

// Encoder is the GOP driver: it owns the reusable still-image block
// pipeline, the closed-loop reference buffer and the container emission
type Encoder struct {
	cfg   *Config
	still *baseline.Encoder

	defaultDC [2]*common.HuffmanTable
	defaultAC [2]*common.HuffmanTable
}

// NewEncoder creates a video encoder from the configuration
func NewEncoder(cfg *Config) (*Encoder, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stillOpts := &baseline.Options{
		Quality:         cfg.Quality,
		Subsampling:     cfg.Subsampling,
		Reconstruction:  cfg.Reconstruction,
		Reordering:      cfg.Reordering,
		RunLengthCoding: cfg.RunLengthCoding,
		DCDifferentials: cfg.DCDifferentials,
		EntropyCoding:   cfg.EntropyCoding,
		Bitstream:       cfg.Bitstream,
	}
	still, err := baseline.NewEncoder(stillOpts)
	if err != nil {
		return nil, err
	}

	return &Encoder{
		cfg:   cfg,
		still: still,
		defaultDC: [2]*common.HuffmanTable{
			common.DefaultDCTable(false), common.DefaultDCTable(true),
		},
		defaultAC: [2]*common.HuffmanTable{
			common.DefaultACTable(false), common.DefaultACTable(true),
		},
	}, nil
}

// FrameLoader materialises frames for a file-backed Source. It returns
// packed YCbCr frames plus their geometry. Implementations live outside
// this package (image decoding and AVI demuxing are collaborator code).
type FrameLoader func(Source) ([][]byte, int, int, error)

// EncodeSource encodes frames described by a Source. The Frames variant
// encodes directly; file-backed variants go through the loader.
func (e *Encoder) EncodeSource(src Source, load FrameLoader) ([]byte, *Statistics, error) {
	if f, ok := src.(Frames); ok {
		return e.EncodeFrames(f.Data, f.Width, f.Height)
	}
	if src == nil {
		return nil, nil, codec.ErrInvalidSource
	}
	if load == nil {
		return nil, nil, errors.Wrap(codec.ErrInvalidSource, "no frame loader for file-backed source")
	}

	frames, width, height, err := load(src)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load frames")
	}
	return e.EncodeFrames(frames, width, height)
}

// EncodeFrames encodes packed YCbCr frames into the video container and
// returns the bitstream plus per-frame statistics
func (e *Encoder) EncodeFrames(frames [][]byte, width, height int) ([]byte, *Statistics, error) {
	if len(frames) == 0 {
		return nil, nil, ErrNoFrames
	}
	if width <= 0 || height <= 0 {
		return nil, nil, common.ErrInvalidDimensions
	}
	for i, frame := range frames {
		if len(frame) < width*height*3 {
			return nil, nil, errors.Wrapf(common.ErrBufferTooSmall, "frame %d", i)
		}
	}

	planes := make([]*common.Planes, len(frames))
	for i, frame := range frames {
		p, err := common.SubsampleAligned(frame, width, height, e.cfg.Subsampling, e.cfg.MacroblockSize)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "subsample frame %d", i)
		}
		planes[i] = p
	}

	types := e.cfg.gopTypes()
	gopLen := len(types)

	stats := &Statistics{}
	gops := make([]*encodedGOP, 0, (len(planes)+gopLen-1)/gopLen)

	var ref *common.Planes
	for start := 0; start < len(planes); start += gopLen {
		end := start + gopLen
		if end > len(planes) {
			end = len(planes)
		}

		e.logf("encoding GOP %d: frames %d-%d", len(gops), start, end-1)
		gop, err := e.encodeGOP(planes[start:end], types, &ref, stats)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "GOP %d", len(gops))
		}
		gops = append(gops, gop)
	}

	if !e.cfg.Bitstream || !e.cfg.entropyEnabled() {
		return []byte{}, stats, nil
	}

	var buf bytes.Buffer
	if err := writeContainer(&buf, e.still, e.cfg, width, height, gops); err != nil {
		return nil, nil, errors.Wrap(err, "write container")
	}

	e.logf("encoded %d frames, %d bits", len(frames), stats.TotalBits)
	return buf.Bytes(), stats, nil
}

// gopFrame is the intermediate state of one frame inside a GOP
type gopFrame struct {
	intra bool
	state *baseline.FrameState
	field *Field
	psnr  float64
}

// encodeGOP runs the state machine for one GOP: encode the I frame, then
// each P frame against the rolling reference, train the GOP tables, and
// entropy-code every frame's scans and motion vectors
func (e *Encoder) encodeGOP(gopPlanes []*common.Planes, types []byte, ref **common.Planes, stats *Statistics) (*encodedGOP, error) {
	b := e.cfg.MacroblockSize
	frames := make([]gopFrame, 0, len(gopPlanes))

	for j, cur := range gopPlanes {
		if types[j] == 'i' {
			f, err := e.encodeIntra(cur, ref)
			if err != nil {
				return nil, errors.Wrapf(err, "intra frame %d", j)
			}
			frames = append(frames, f)
		} else {
			f, err := e.encodeInter(cur, ref, b)
			if err != nil {
				return nil, errors.Wrapf(err, "inter frame %d", j)
			}
			frames = append(frames, f)
		}
	}

	gop := &encodedGOP{
		dcTables: e.defaultDC,
		acTables: e.defaultAC,
	}

	if e.cfg.CustomHuffman && e.cfg.entropyEnabled() {
		dc, ac, trained, err := e.trainResidualTables(frames)
		if err != nil {
			return nil, errors.Wrap(err, "train residual tables")
		}
		if trained {
			gop.dcTables = dc
			gop.acTables = ac
		}
	}

	mvTable, err := common.OptimizeTable(common.CountSymbols(mvSymbols(frames)))
	if err != nil {
		return nil, errors.Wrap(err, "train MV table")
	}
	gop.mvTable = mvTable
	mvCodes := mvTable.BuildCodes()

	for i := range frames {
		f := &frames[i]

		ef := encodedFrame{intra: f.intra}
		fs := FrameStats{Type: 'p', PSNRY: f.psnr}
		if f.intra {
			fs.Type = 'i'
		}

		if e.cfg.entropyEnabled() {
			if f.intra {
				e.still.SetTables(e.defaultDC, e.defaultAC)
			} else {
				e.still.SetTables(gop.dcTables, gop.acTables)
			}
			if err := e.still.EncodeScans(f.state); err != nil {
				return nil, errors.Wrapf(err, "frame %d scans", i)
			}
			ef.scans = f.state.Scans
			for ch := 0; ch < 3; ch++ {
				fs.FrameBits += f.state.Scans[ch].Bits
			}

			if !f.intra {
				data, bits, err := encodeMVs(f.field, mvCodes)
				if err != nil {
					return nil, errors.Wrapf(err, "frame %d motion vectors", i)
				}
				ef.mvData = data
				fs.MVBits = bits
			}
		}

		fs.TotalBits = fs.FrameBits + fs.MVBits
		e.logf("frame type=%c bits=%d mv=%d psnr=%.2f", fs.Type, fs.FrameBits, fs.MVBits, fs.PSNRY)
		stats.add(fs)
		gop.frames = append(gop.frames, ef)
	}

	return gop, nil
}

// encodeIntra runs the still pipeline on an I frame and replaces the
// reference with its reconstruction
func (e *Encoder) encodeIntra(cur *common.Planes, ref **common.Planes) (gopFrame, error) {
	state, err := e.still.Transform(cur)
	if err != nil {
		return gopFrame{}, err
	}
	e.still.PrepareSymbols(state)

	f := gopFrame{intra: true, state: state}
	if state.Recon != nil {
		f.psnr = psnrY(cur, state.Recon)
		*ref = state.Recon
	} else {
		*ref = cur
	}

	return f, nil
}

// encodeInter motion-estimates a P frame against the reference, codes the
// range-mapped residual through the still pipeline, and replaces the
// reference with the closed-loop reconstruction
func (e *Encoder) encodeInter(cur *common.Planes, ref **common.Planes, b int) (gopFrame, error) {
	field, res, err := Estimate(cur, *ref, e.cfg)
	if err != nil {
		return gopFrame{}, errors.Wrap(err, "motion estimation")
	}

	state, err := e.still.Transform(mapResidual(res, cur))
	if err != nil {
		return gopFrame{}, errors.Wrap(err, "transform residual")
	}
	e.still.PrepareSymbols(state)

	f := gopFrame{intra: false, state: state, field: field}
	if state.Recon != nil {
		recon := Reconstruct(*ref, field, unmapResidual(state.Recon), b)
		f.psnr = psnrY(cur, recon)
		*ref = recon
	} else {
		*ref = cur
	}

	return f, nil
}

// trainResidualTables derives the four GOP Huffman tables from the
// concatenated DC/AC symbols of every P frame. Returns trained=false when
// the GOP has no P frames.
func (e *Encoder) trainResidualTables(frames []gopFrame) (dc, ac [2]*common.HuffmanTable, trained bool, err error) {
	hasP := false
	for _, f := range frames {
		if !f.intra {
			hasP = true
			break
		}
	}
	if !hasP {
		return dc, ac, false, nil
	}

	for i, chroma := range []bool{false, true} {
		dcFreq := make([]int, 256)
		acFreq := make([]int, 256)
		for _, f := range frames {
			if f.intra {
				continue
			}
			for _, s := range f.state.DCSymbols(chroma) {
				dcFreq[s]++
			}
			for _, s := range f.state.ACSymbols(chroma) {
				acFreq[s]++
			}
		}

		if dc[i], err = common.OptimizeTable(dcFreq); err != nil {
			return dc, ac, false, err
		}
		if ac[i], err = common.OptimizeTable(acFreq); err != nil {
			return dc, ac, false, err
		}
	}

	return dc, ac, true, nil
}

// components lists a field's vector components in emission order: all dx
// in column-major macroblock order, then all dy
func (f *Field) components() []int32 {
	out := make([]int32, 0, 2*len(f.Vectors))
	for bx := 0; bx < f.Cols; bx++ {
		for by := 0; by < f.Rows; by++ {
			out = append(out, int32(f.At(bx, by).DX))
		}
	}
	for bx := 0; bx < f.Cols; bx++ {
		for by := 0; by < f.Rows; by++ {
			out = append(out, int32(f.At(bx, by).DY))
		}
	}
	return out
}

// mvSymbols collects the DC-category source symbols of every P frame's
// vector components, the stream the MV table is trained on
func mvSymbols(frames []gopFrame) []byte {
	var symbols []byte
	for _, f := range frames {
		if f.intra {
			continue
		}
		for _, v := range f.field.components() {
			cat, _ := common.Category(v)
			symbols = append(symbols, byte(cat))
		}
	}
	return symbols
}

// encodeMVs entropy-codes a vector field with the category+magnitude
// scheme. The segment is byte-padded with 1s and must fit the one-byte
// length field.
func encodeMVs(f *Field, codes [256]common.HuffmanCode) ([]byte, int, error) {
	var buf bytes.Buffer
	bw := common.NewRawBitWriter(&buf)

	for _, v := range f.components() {
		cat, bits := common.Category(v)
		code := codes[cat]
		if code.Len == 0 {
			return nil, 0, errors.Errorf("no MV code for category %d", cat)
		}
		if err := bw.WriteCode(code); err != nil {
			return nil, 0, err
		}
		if cat > 0 {
			if err := bw.WriteBits(bits, cat); err != nil {
				return nil, 0, err
			}
		}
	}

	n := bw.BitCount()
	if err := bw.Flush(); err != nil {
		return nil, 0, err
	}
	if buf.Len() > 255 {
		return nil, 0, ErrMVSegmentTooLong
	}

	return buf.Bytes(), n, nil
}

// mapResidual maps signed residuals into unsigned samples with
// r' = (r+256)/2, the form the block pipeline codes. The inverse is
// r = 2*r' - 256, so a zero residual survives the round trip exactly.
func mapResidual(res *Residual, like *common.Planes) *common.Planes {
	p := &common.Planes{
		Y:       make([]byte, len(res.Y)),
		Cb:      make([]byte, len(res.Cb)),
		Cr:      make([]byte, len(res.Cr)),
		YWidth:  res.YWidth,
		YHeight: res.YHeight,
		CWidth:  res.CWidth,
		CHeight: res.CHeight,
		Width:   like.Width,
		Height:  like.Height,
		Mode:    like.Mode,
	}
	for i, r := range res.Y {
		p.Y[i] = byte(common.Clamp((int(r)+256)>>1, 0, 255))
	}
	for i := range res.Cb {
		p.Cb[i] = byte(common.Clamp((int(res.Cb[i])+256)>>1, 0, 255))
		p.Cr[i] = byte(common.Clamp((int(res.Cr[i])+256)>>1, 0, 255))
	}
	return p
}

// unmapResidual inverts the range mapping on a reconstructed residual
func unmapResidual(p *common.Planes) *Residual {
	res := &Residual{
		Y:       make([]int16, len(p.Y)),
		Cb:      make([]int16, len(p.Cb)),
		Cr:      make([]int16, len(p.Cr)),
		YWidth:  p.YWidth,
		YHeight: p.YHeight,
		CWidth:  p.CWidth,
		CHeight: p.CHeight,
	}
	for i, v := range p.Y {
		res.Y[i] = int16(common.Clamp(2*int(v)-256, -255, 255))
	}
	for i := range p.Cb {
		res.Cb[i] = int16(common.Clamp(2*int(p.Cb[i])-256, -255, 255))
		res.Cr[i] = int16(common.Clamp(2*int(p.Cr[i])-256, -255, 255))
	}
	return res
}

// entropyEnabled reports whether the entropy stage can run
func (c *Config) entropyEnabled() bool {
	return c.EntropyCoding && c.Reordering && c.RunLengthCoding && c.DCDifferentials
}

func (e *Encoder) logf(format string, args ...interface{}) {
	if e.cfg.Logger != nil {
		e.cfg.Logger.Debugf(format, args...)
	}
}
