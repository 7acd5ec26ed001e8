package common

import (
	"bytes"
	"testing"
)

func TestBitWriterPacksMSBFirst(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)

	if err := bw.WriteBits(0b101, 3); err != nil {
		t.Fatal(err)
	}
	if err := bw.WriteBits(0b01100, 5); err != nil {
		t.Fatal(err)
	}

	if got := buf.Bytes(); len(got) != 1 || got[0] != 0b10101100 {
		t.Errorf("got %08b, want 10101100", got)
	}
	if bw.BitCount() != 8 {
		t.Errorf("BitCount = %d, want 8", bw.BitCount())
	}
}

func TestBitWriterFlushPadsWithOnes(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)

	if err := bw.WriteBits(0b00, 2); err != nil {
		t.Fatal(err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}

	if got := buf.Bytes(); len(got) != 1 || got[0] != 0b00111111 {
		t.Errorf("got %08b, want 00111111", got)
	}
}

func TestBitWriterByteStuffing(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)

	if err := bw.WriteBits(0xFF, 8); err != nil {
		t.Fatal(err)
	}

	want := []byte{0xFF, 0x00}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
	if bw.BitCount() != 8 {
		t.Errorf("stuffing must not count as data bits: BitCount = %d", bw.BitCount())
	}
}

func TestRawBitWriterNoStuffing(t *testing.T) {
	var buf bytes.Buffer
	bw := NewRawBitWriter(&buf)

	if err := bw.WriteBits(0xFF, 8); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(buf.Bytes(), []byte{0xFF}) {
		t.Errorf("got % x, want ff", buf.Bytes())
	}
}

func TestBitWriterFlushPadCanStuff(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)

	// 11111111 after 1-padding
	if err := bw.WriteBits(0b1111, 4); err != nil {
		t.Fatal(err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}

	want := []byte{0xFF, 0x00}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("padded 0xFF must be stuffed: got % x", buf.Bytes())
	}
}
