package common

// ChromaMode selects the chroma subsampling ratio
type ChromaMode int

// Supported chroma sampling modes
const (
	Chroma444 ChromaMode = iota
	Chroma440
	Chroma422
	Chroma420
	Chroma411
	Chroma410
)

var chromaModeNames = map[ChromaMode]string{
	Chroma444: "4:4:4",
	Chroma440: "4:4:0",
	Chroma422: "4:2:2",
	Chroma420: "4:2:0",
	Chroma411: "4:1:1",
	Chroma410: "4:1:0",
}

// ParseChromaMode parses a mode string such as "4:2:0" or "420"
func ParseChromaMode(s string) (ChromaMode, error) {
	for mode, name := range chromaModeNames {
		if s == name || s == name[:1]+name[2:3]+name[4:5] {
			return mode, nil
		}
	}
	return 0, ErrInvalidChromaMode
}

func (m ChromaMode) String() string {
	if name, ok := chromaModeNames[m]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether m is a known mode
func (m ChromaMode) Valid() bool {
	_, ok := chromaModeNames[m]
	return ok
}

// Factors returns the horizontal and vertical chroma decimation divisors.
// They equal the luma sampling factors declared in SOF0 when chroma uses
// 1x1 sampling.
func (m ChromaMode) Factors() (h, v int) {
	switch m {
	case Chroma444:
		return 1, 1
	case Chroma440:
		return 1, 2
	case Chroma422:
		return 2, 1
	case Chroma420:
		return 2, 2
	case Chroma411:
		return 4, 1
	case Chroma410:
		return 4, 2
	}
	return 1, 1
}

// Planes holds one YCbCr frame as separate planes. Plane dimensions are
// padded so that both are multiples of 8 (or of the requested alignment);
// Width and Height keep the declared frame geometry.
type Planes struct {
	Y, Cb, Cr []byte

	YWidth, YHeight int
	CWidth, CHeight int

	Width, Height int

	Mode ChromaMode
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}

func alignUp(v, align int) int {
	return (v + align - 1) / align * align
}

// NewPlanes allocates zeroed planes for the given geometry. lumaAlign must
// be a multiple of 8; chroma planes align to lcm(8, lumaAlign/divisor).
func NewPlanes(mode ChromaMode, width, height, lumaAlign int) *Planes {
	hd, vd := mode.Factors()

	la := lcm(8, lumaAlign)
	caw := lcm(8, maxInt(1, lumaAlign/hd))
	cah := lcm(8, maxInt(1, lumaAlign/vd))

	p := &Planes{
		Width:  width,
		Height: height,
		Mode:   mode,
	}
	p.YWidth = alignUp(width, la)
	p.YHeight = alignUp(height, la)
	p.CWidth = alignUp((width+hd-1)/hd, caw)
	p.CHeight = alignUp((height+vd-1)/vd, cah)

	p.Y = make([]byte, p.YWidth*p.YHeight)
	p.Cb = make([]byte, p.CWidth*p.CHeight)
	p.Cr = make([]byte, p.CWidth*p.CHeight)
	return p
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Subsample converts a packed YCbCr frame into padded planes with the
// chroma planes decimated by block averaging
func Subsample(packed []byte, width, height int, mode ChromaMode) (*Planes, error) {
	return SubsampleAligned(packed, width, height, mode, 8)
}

// SubsampleAligned is Subsample with an explicit luma alignment, used by
// the video encoder so planes divide evenly into macroblocks
func SubsampleAligned(packed []byte, width, height int, mode ChromaMode, lumaAlign int) (*Planes, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !mode.Valid() {
		return nil, ErrInvalidChromaMode
	}
	if len(packed) < width*height*3 {
		return nil, ErrBufferTooSmall
	}

	p := NewPlanes(mode, width, height, lumaAlign)
	hd, vd := mode.Factors()

	// Luma: copy, replicating the last row/column into the padding
	for y := 0; y < p.YHeight; y++ {
		sy := Clamp(y, 0, height-1)
		for x := 0; x < p.YWidth; x++ {
			sx := Clamp(x, 0, width-1)
			p.Y[y*p.YWidth+x] = packed[(sy*width+sx)*3]
		}
	}

	// Chroma: block average over the decimation window, then replicate
	for cy := 0; cy < p.CHeight; cy++ {
		for cx := 0; cx < p.CWidth; cx++ {
			x0 := Clamp(cx*hd, 0, width-1)
			y0 := Clamp(cy*vd, 0, height-1)

			var sumCb, sumCr, n int
			for y := y0; y < y0+vd && y < height; y++ {
				for x := x0; x < x0+hd && x < width; x++ {
					sumCb += int(packed[(y*width+x)*3+1])
					sumCr += int(packed[(y*width+x)*3+2])
					n++
				}
			}

			idx := cy*p.CWidth + cx
			p.Cb[idx] = byte((sumCb + n/2) / n)
			p.Cr[idx] = byte((sumCr + n/2) / n)
		}
	}

	return p, nil
}

// Upsample converts planes back into a packed YCbCr frame at the declared
// geometry, replicating chroma samples to luma resolution
func (p *Planes) Upsample() []byte {
	hd, vd := p.Mode.Factors()
	packed := make([]byte, p.Width*p.Height*3)

	for y := 0; y < p.Height; y++ {
		cy := Clamp(y/vd, 0, p.CHeight-1)
		for x := 0; x < p.Width; x++ {
			cx := Clamp(x/hd, 0, p.CWidth-1)
			idx := (y*p.Width + x) * 3
			packed[idx] = p.Y[y*p.YWidth+x]
			packed[idx+1] = p.Cb[cy*p.CWidth+cx]
			packed[idx+2] = p.Cr[cy*p.CWidth+cx]
		}
	}

	return packed
}

// Clone deep-copies the planes
func (p *Planes) Clone() *Planes {
	c := *p
	c.Y = append([]byte(nil), p.Y...)
	c.Cb = append([]byte(nil), p.Cb...)
	c.Cr = append([]byte(nil), p.Cr...)
	return &c
}
