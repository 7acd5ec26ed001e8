package common

// JPEG marker constants
const (
	// Start of Image
	MarkerSOI = 0xFFD8

	// End of Image
	MarkerEOI = 0xFFD9

	// Start of Frame (Baseline DCT)
	MarkerSOF0 = 0xFFC0

	// Define Huffman Table
	MarkerDHT = 0xFFC4

	// Define Quantization Table
	MarkerDQT = 0xFFDB

	// Start of Scan
	MarkerSOS = 0xFFDA

	// Comment
	MarkerCOM = 0xFFFE
)

// Component identifiers used by the 3-channel encoder.
// Channel IDs follow the JFIF convention: Y=1, Cb=2, Cr=3.
const (
	ComponentY  = 1
	ComponentCb = 2
	ComponentCr = 3
)
