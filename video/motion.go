package video

import (
	"github.com/cocosip/go-video-codec/jpeg/common"
)

// Vector is an integer motion vector in luma pixels
type Vector struct {
	DX, DY int
}

func (v Vector) l1() int {
	return absInt(v.DX) + absInt(v.DY)
}

// Field is a per-macroblock motion vector field
type Field struct {
	Cols, Rows int
	Vectors    []Vector
}

// At returns the vector of the macroblock at (bx, by)
func (f *Field) At(bx, by int) Vector {
	return f.Vectors[by*f.Cols+bx]
}

// Residual holds signed per-channel prediction residuals at the planes'
// subsampled resolutions
type Residual struct {
	Y, Cb, Cr []int16

	YWidth, YHeight int
	CWidth, CHeight int
}

// largeDiamond and smallDiamond are the DSA search patterns
var largeDiamond = []Vector{
	{0, 0}, {2, 0}, {-2, 0}, {0, 2}, {0, -2},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

var smallDiamond = []Vector{
	{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1},
}

// Estimate block-matches the current frame against the reference on the
// luma plane and assembles the three-channel residual. Both plane sets
// must share geometry, with luma dimensions divisible by the macroblock
// size.
func Estimate(cur, ref *common.Planes, cfg *Config) (*Field, *Residual, error) {
	b := cfg.MacroblockSize
	if cur.YWidth%b != 0 || cur.YHeight%b != 0 {
		return nil, nil, common.ErrGeometry
	}
	if cur.YWidth != ref.YWidth || cur.YHeight != ref.YHeight {
		return nil, nil, common.ErrGeometry
	}

	field := &Field{
		Cols:    cur.YWidth / b,
		Rows:    cur.YHeight / b,
		Vectors: make([]Vector, (cur.YWidth/b)*(cur.YHeight/b)),
	}

	for by := 0; by < field.Rows; by++ {
		for bx := 0; bx < field.Cols; bx++ {
			var mv Vector
			if cfg.BlockMatching == DiamondSearch {
				mv = diamondSearch(cur, ref, bx*b, by*b, b, cfg)
			} else {
				mv = fullSearch(cur, ref, bx*b, by*b, b, cfg)
			}
			field.Vectors[by*field.Cols+bx] = mv
		}
	}

	pred := Compensate(ref, field, b)
	res := subtractPlanes(cur, pred)

	return field, res, nil
}

// candidateValid reports whether the displaced block reads entirely inside
// the reference plane
func candidateValid(x, y, dx, dy, b, w, h int) bool {
	rx, ry := x+dx, y+dy
	return rx >= 0 && ry >= 0 && rx+b <= w && ry+b <= h
}

// blockCost evaluates the distortion of one candidate displacement
func blockCost(cur, ref *common.Planes, x, y, dx, dy, b int, metric Metric) float64 {
	w := cur.YWidth
	sad := 0
	for row := 0; row < b; row++ {
		curRow := (y + row) * w
		refRow := (y + dy + row) * w
		for col := 0; col < b; col++ {
			d := int(cur.Y[curRow+x+col]) - int(ref.Y[refRow+x+dx+col])
			if d < 0 {
				d = -d
			}
			sad += d
		}
	}
	if metric == MetricMAD {
		return float64(sad) / float64(b*b)
	}
	return float64(sad)
}

// better applies the tie-breaking order: lower cost, then smaller L1
// magnitude, then smaller dx, then smaller dy
func better(cost float64, v Vector, bestCost float64, best Vector) bool {
	if cost != bestCost {
		return cost < bestCost
	}
	if v.l1() != best.l1() {
		return v.l1() < best.l1()
	}
	if v.DX != best.DX {
		return v.DX < best.DX
	}
	return v.DY < best.DY
}

// fullSearch exhaustively tests every displacement within the search square
func fullSearch(cur, ref *common.Planes, x, y, b int, cfg *Config) Vector {
	s := cfg.SearchDistance

	best := Vector{}
	bestCost := blockCost(cur, ref, x, y, 0, 0, b, cfg.Metric)

	for dy := -s; dy <= s; dy++ {
		for dx := -s; dx <= s; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if !candidateValid(x, y, dx, dy, b, cur.YWidth, cur.YHeight) {
				continue
			}
			cost := blockCost(cur, ref, x, y, dx, dy, b, cfg.Metric)
			if better(cost, Vector{dx, dy}, bestCost, best) {
				best = Vector{dx, dy}
				bestCost = cost
			}
		}
	}

	return best
}

// diamondSearch walks the large diamond pattern until the centre wins,
// then refines with the small diamond. Every step stays within the search
// square and the frame.
func diamondSearch(cur, ref *common.Planes, x, y, b int, cfg *Config) Vector {
	s := cfg.SearchDistance

	center := Vector{}
	centerCost := blockCost(cur, ref, x, y, 0, 0, b, cfg.Metric)

	for {
		best, bestCost := center, centerCost
		for _, off := range largeDiamond {
			cand := Vector{center.DX + off.DX, center.DY + off.DY}
			if cand == center {
				continue
			}
			if absInt(cand.DX) > s || absInt(cand.DY) > s {
				continue
			}
			if !candidateValid(x, y, cand.DX, cand.DY, b, cur.YWidth, cur.YHeight) {
				continue
			}
			cost := blockCost(cur, ref, x, y, cand.DX, cand.DY, b, cfg.Metric)
			if better(cost, cand, bestCost, best) {
				best, bestCost = cand, cost
			}
		}

		if best == center {
			break
		}
		center, centerCost = best, bestCost
	}

	best, bestCost := center, centerCost
	for _, off := range smallDiamond {
		cand := Vector{center.DX + off.DX, center.DY + off.DY}
		if cand == center {
			continue
		}
		if absInt(cand.DX) > s || absInt(cand.DY) > s {
			continue
		}
		if !candidateValid(x, y, cand.DX, cand.DY, b, cur.YWidth, cur.YHeight) {
			continue
		}
		cost := blockCost(cur, ref, x, y, cand.DX, cand.DY, b, cfg.Metric)
		if better(cost, cand, bestCost, best) {
			best, bestCost = cand, cost
		}
	}

	return best
}

// Compensate builds the motion-compensated prediction of a frame from the
// reference and a vector field. Plane regions not covered by a macroblock
// (alignment padding) predict with the zero vector. Chroma vectors scale
// by the chroma-to-luma ratio, truncated toward zero.
func Compensate(ref *common.Planes, f *Field, b int) *common.Planes {
	pred := ref.Clone()
	hd, vd := ref.Mode.Factors()

	for by := 0; by < f.Rows; by++ {
		for bx := 0; bx < f.Cols; bx++ {
			mv := f.At(bx, by)

			copyShifted(pred.Y, ref.Y, ref.YWidth, ref.YHeight,
				bx*b, by*b, mv.DX, mv.DY, b, b)

			cb, ch := b/hd, b/vd
			cdx, cdy := mv.DX/hd, mv.DY/vd
			copyShifted(pred.Cb, ref.Cb, ref.CWidth, ref.CHeight,
				bx*cb, by*ch, cdx, cdy, cb, ch)
			copyShifted(pred.Cr, ref.Cr, ref.CWidth, ref.CHeight,
				bx*cb, by*ch, cdx, cdy, cb, ch)
		}
	}

	return pred
}

// copyShifted copies a bw x bh block from src displaced by (dx, dy) into
// dst at (x0, y0), clamping reads to the plane
func copyShifted(dst, src []byte, w, h, x0, y0, dx, dy, bw, bh int) {
	for row := 0; row < bh; row++ {
		sy := common.Clamp(y0+row+dy, 0, h-1)
		for col := 0; col < bw; col++ {
			sx := common.Clamp(x0+col+dx, 0, w-1)
			dst[(y0+row)*w+x0+col] = src[sy*w+sx]
		}
	}
}

// subtractPlanes computes cur - pred per channel
func subtractPlanes(cur, pred *common.Planes) *Residual {
	res := &Residual{
		YWidth:  cur.YWidth,
		YHeight: cur.YHeight,
		CWidth:  cur.CWidth,
		CHeight: cur.CHeight,
		Y:       make([]int16, len(cur.Y)),
		Cb:      make([]int16, len(cur.Cb)),
		Cr:      make([]int16, len(cur.Cr)),
	}
	for i := range cur.Y {
		res.Y[i] = int16(cur.Y[i]) - int16(pred.Y[i])
	}
	for i := range cur.Cb {
		res.Cb[i] = int16(cur.Cb[i]) - int16(pred.Cb[i])
		res.Cr[i] = int16(cur.Cr[i]) - int16(pred.Cr[i])
	}
	return res
}

// Reconstruct rebuilds a frame from the reference, the vector field and a
// decoded residual, clamping to the sample range
func Reconstruct(ref *common.Planes, f *Field, res *Residual, b int) *common.Planes {
	out := Compensate(ref, f, b)

	for i := range out.Y {
		out.Y[i] = byte(common.Clamp(int(out.Y[i])+int(res.Y[i]), 0, 255))
	}
	for i := range out.Cb {
		out.Cb[i] = byte(common.Clamp(int(out.Cb[i])+int(res.Cb[i]), 0, 255))
		out.Cr[i] = byte(common.Clamp(int(out.Cr[i])+int(res.Cr[i]), 0, 255))
	}

	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
