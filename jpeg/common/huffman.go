package common

// HuffmanTable represents a Huffman coding table in the (BITS, HUFFVAL)
// form used by DHT segments
type HuffmanTable struct {
	// Number of codes of each length (1-16 bits)
	Bits [16]int
	// Values for each code, in order of code length
	Values []byte
}

// HuffmanCode is one derived canonical code
type HuffmanCode struct {
	Code uint16 // The code value, right-aligned
	Len  int    // Code length in bits, 0 when the symbol has no code
}

// BuildCodes derives the canonical codes for every symbol in the table,
// following the T.81 Annex C procedure: codes of equal length are
// consecutive, and the first code of each length is twice the code that
// follows the previous length.
func (h *HuffmanTable) BuildCodes() [256]HuffmanCode {
	var codes [256]HuffmanCode

	code := uint16(0)
	p := 0
	for l := 0; l < 16; l++ {
		for i := 0; i < h.Bits[l]; i++ {
			if p < len(h.Values) {
				codes[h.Values[p]] = HuffmanCode{Code: code, Len: l + 1}
				code++
				p++
			}
		}
		code <<= 1
	}

	return codes
}

// NumValues returns the total number of coded symbols
func (h *HuffmanTable) NumValues() int {
	n := 0
	for _, c := range h.Bits {
		n += c
	}
	return n
}

// WriteHuffmanTable writes a Huffman table as a DHT segment.
// class: 0 for DC, 1 for AC; id: table ID (0 or 1).
func WriteHuffmanTable(writer *Writer, class byte, id byte, table *HuffmanTable) error {
	totalValues := table.NumValues()

	data := make([]byte, 1+16+totalValues)
	data[0] = (class << 4) | id

	for i := 0; i < 16; i++ {
		data[1+i] = byte(table.Bits[i])
	}

	copy(data[17:], table.Values)

	return writer.WriteSegment(MarkerDHT, data)
}
