package common

import (
	"testing"
)

// checkCanonical verifies prefix-freedom, uniqueness and the all-ones
// invariant for a table
func checkCanonical(t *testing.T, table *HuffmanTable, name string) {
	t.Helper()

	codes := table.BuildCodes()
	type cw struct {
		code uint16
		len  int
	}
	var assigned []cw

	for _, v := range table.Values {
		c := codes[v]
		if c.Len == 0 {
			t.Fatalf("%s: symbol %#x has no code", name, v)
		}
		if c.Len > 16 {
			t.Fatalf("%s: symbol %#x has code length %d", name, v, c.Len)
		}
		if c.Code == (1<<uint(c.Len))-1 {
			t.Errorf("%s: symbol %#x has the all-ones code of length %d", name, v, c.Len)
		}
		assigned = append(assigned, cw{c.Code, c.Len})
	}

	for i := 0; i < len(assigned); i++ {
		for j := i + 1; j < len(assigned); j++ {
			a, b := assigned[i], assigned[j]
			if a.len > b.len {
				a, b = b, a
			}
			if a.len == b.len {
				if a.code == b.code {
					t.Fatalf("%s: duplicate code %0*b", name, a.len, a.code)
				}
				continue
			}
			if b.code>>(uint(b.len-a.len)) == a.code {
				t.Fatalf("%s: %0*b is a prefix of %0*b", name, a.len, a.code, b.len, b.code)
			}
		}
	}
}

func TestStandardTablesAreCanonical(t *testing.T) {
	checkCanonical(t, DefaultDCTable(false), "DC luminance")
	checkCanonical(t, DefaultDCTable(true), "DC chrominance")
	checkCanonical(t, DefaultACTable(false), "AC luminance")
	checkCanonical(t, DefaultACTable(true), "AC chrominance")
}

func TestOptimizeTableUniform(t *testing.T) {
	freq := make([]int, 256)
	for s := 0; s < 10; s++ {
		freq[s] = 100
	}

	table, err := OptimizeTable(freq)
	if err != nil {
		t.Fatalf("OptimizeTable failed: %v", err)
	}

	if got := table.NumValues(); got != 10 {
		t.Fatalf("table codes %d symbols, want 10", got)
	}
	checkCanonical(t, table, "uniform")
}

func TestOptimizeTableSkewedForcesAdjustment(t *testing.T) {
	// Fibonacci-like frequencies push natural code lengths well past 16
	freq := make([]int, 256)
	a, b := 1, 1
	for s := 0; s < 32; s++ {
		freq[s] = a
		a, b = b, a+b
	}

	table, err := OptimizeTable(freq)
	if err != nil {
		t.Fatalf("OptimizeTable failed: %v", err)
	}

	if got := table.NumValues(); got != 32 {
		t.Fatalf("table codes %d symbols, want 32", got)
	}
	for l := 0; l < 16; l++ {
		if table.Bits[l] < 0 {
			t.Fatalf("negative count at length %d", l+1)
		}
	}
	checkCanonical(t, table, "skewed")
}

func TestOptimizeTableSingleSymbol(t *testing.T) {
	freq := make([]int, 256)
	freq[42] = 7

	table, err := OptimizeTable(freq)
	if err != nil {
		t.Fatalf("OptimizeTable failed: %v", err)
	}

	if table.NumValues() != 1 || table.Values[0] != 42 {
		t.Fatalf("unexpected table: bits=%v values=%v", table.Bits, table.Values)
	}
	codes := table.BuildCodes()
	if codes[42].Len != 1 || codes[42].Code != 0 {
		t.Errorf("single symbol should get the 1-bit code 0, got %+v", codes[42])
	}
}

func TestOptimizeTableEmpty(t *testing.T) {
	table, err := OptimizeTable(make([]int, 256))
	if err != nil {
		t.Fatalf("OptimizeTable failed: %v", err)
	}
	if table.NumValues() != 0 {
		t.Errorf("empty stream should yield an empty table, got %v", table.Bits)
	}
}

func TestOptimizeTableOrdering(t *testing.T) {
	// Equal frequencies: HUFFVAL must order ties by symbol value
	freq := make([]int, 256)
	freq[9] = 5
	freq[3] = 5
	freq[200] = 5
	freq[1] = 5

	table, err := OptimizeTable(freq)
	if err != nil {
		t.Fatalf("OptimizeTable failed: %v", err)
	}

	codes := table.BuildCodes()
	prevLen, prevSym := 0, -1
	for _, v := range table.Values {
		l := codes[v].Len
		if l < prevLen {
			t.Fatalf("HUFFVAL not ordered by length: %v", table.Values)
		}
		if l == prevLen && int(v) < prevSym {
			t.Fatalf("HUFFVAL ties not ordered by symbol value: %v", table.Values)
		}
		prevLen, prevSym = l, int(v)
	}
}

func decodeCategory(cat int, bits uint32) int32 {
	if cat == 0 {
		return 0
	}
	if bits < 1<<uint(cat-1) {
		return int32(bits) - (1 << uint(cat)) + 1
	}
	return int32(bits)
}

func TestCategoryRoundTrip(t *testing.T) {
	for d := int32(-2047); d < 2048; d++ {
		cat, bits := Category(d)
		if got := decodeCategory(cat, bits); got != d {
			t.Fatalf("category round trip failed for %d: cat=%d bits=%b got=%d", d, cat, bits, got)
		}
	}
}

func TestCategoryKnownValues(t *testing.T) {
	cases := []struct {
		val  int32
		cat  int
		bits uint32
	}{
		{0, 0, 0},
		{1, 1, 1},
		{-1, 1, 0},
		{2, 2, 2},
		{3, 2, 3},
		{-2, 2, 1},
		{-3, 2, 0},
		{255, 8, 255},
		{-255, 8, 0},
	}
	for _, c := range cases {
		cat, bits := Category(c.val)
		if cat != c.cat || bits != c.bits {
			t.Errorf("Category(%d) = (%d, %b), want (%d, %b)", c.val, cat, bits, c.cat, c.bits)
		}
	}
}
