package common

// ZigZag maps zig-zag position to natural (row-major) block index
var ZigZag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// Reorder permutes a block from natural order into zig-zag order
func Reorder(block *[64]int32) [64]int32 {
	var out [64]int32
	for k := 0; k < 64; k++ {
		out[k] = block[ZigZag[k]]
	}
	return out
}

// AC run-length symbols. RS packs the zero run in the high nibble and the
// magnitude category in the low nibble.
const (
	SymbolEOB byte = 0x00 // end of block
	SymbolZRL byte = 0xF0 // run of 16 zeros
)

// ACSymbol is one (run, size) token plus the coefficient amplitude.
// EOB and ZRL carry no amplitude.
type ACSymbol struct {
	RS        byte
	Amplitude int32
}

// RunLength codes the 63 AC coefficients of a zig-zag-ordered block into
// run-length symbols. Runs of 16 or more zeros emit ZRL tokens; trailing
// zeros collapse into a single EOB.
func RunLength(zz *[64]int32) []ACSymbol {
	symbols := make([]ACSymbol, 0, 16)
	zeroRun := 0

	for k := 1; k < 64; k++ {
		val := zz[k]
		if val == 0 {
			zeroRun++
			continue
		}

		for zeroRun >= 16 {
			symbols = append(symbols, ACSymbol{RS: SymbolZRL})
			zeroRun -= 16
		}

		cat, _ := Category(val)
		symbols = append(symbols, ACSymbol{
			RS:        byte(zeroRun<<4) | byte(cat),
			Amplitude: val,
		})
		zeroRun = 0
	}

	if zeroRun > 0 {
		symbols = append(symbols, ACSymbol{RS: SymbolEOB})
	}

	return symbols
}

// DCDifferences converts per-block DC coefficients (raster order) into the
// differential sequence DC[0], DC[1]-DC[0], ...
func DCDifferences(dcs []int32) []int32 {
	diffs := make([]int32, len(dcs))
	pred := int32(0)
	for i, dc := range dcs {
		diffs[i] = dc - pred
		pred = dc
	}
	return diffs
}
