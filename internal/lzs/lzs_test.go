package lzs

import (
	"bytes"
	"errors"
	"testing"

	"github.com/MJE43/goldsaucer/internal/engine"
)

func TestDecompressLiterals(t *testing.T) {
	got, err := Decompress([]byte{0xFF, 'G', 'o', 'l', 'd', 'S', 'a', 'u', 'c', 0x01, 'e'})
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if string(got) != "GoldSauce" {
		t.Errorf("Decompress() = %q", got)
	}
}

func TestDecompressBackReference(t *testing.T) {
	// Three literals at ring 0xFEE.. then a reference to 0xFEE of length 6,
	// which overlaps the bytes it is producing.
	stream := []byte{0x07, 'a', 'b', 'c', 0xEE, 0xF3}
	got, err := Decompress(stream)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if string(got) != "abcabcabc" {
		t.Errorf("Decompress() = %q, want abcabcabc", got)
	}
}

func TestDecompressZeroPrefix(t *testing.T) {
	got, err := Decompress([]byte{0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if !bytes.Equal(got, []byte{0, 0, 0}) {
		t.Errorf("reference into the zero-filled ring = % x", got)
	}
}

func TestDecompressTruncated(t *testing.T) {
	_, err := Decompress([]byte{0x00, 0x12})
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	s := engine.NewStream("lzs", "noise", 0, 0)
	noise := make([]byte, 9000)
	for i := range noise {
		noise[i] = s.Next()
	}

	repetitive := bytes.Repeat([]byte("STITM\x00\x55\x00\x01MESSAGE"), 600)

	mixed := append([]byte{}, noise[:2000]...)
	mixed = append(mixed, repetitive[:5000]...)
	mixed = append(mixed, noise[2000:4000]...)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"single byte", []byte{0x42}},
		{"zeros", make([]byte, 5000)},
		{"noise", noise},
		{"repetitive", repetitive},
		{"mixed", mixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := Compress(tt.data)
			got, err := Decompress(packed)
			if err != nil {
				t.Fatalf("Decompress() error = %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(tt.data))
			}
		})
	}

	if packed := Compress(repetitive); len(packed) >= len(repetitive)/3 {
		t.Errorf("repetitive data compressed to %d of %d bytes", len(packed), len(repetitive))
	}
}

func TestCompressDeterministic(t *testing.T) {
	data := bytes.Repeat([]byte("deterministic output "), 300)
	if !bytes.Equal(Compress(data), Compress(data)) {
		t.Errorf("Compress() is not deterministic")
	}
}

func TestFramed(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4}, 100)
	body := EncodeFramed(data)

	got, err := DecodeFramed(body)
	if err != nil {
		t.Fatalf("DecodeFramed() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("framed round trip mismatch")
	}

	if _, err := DecodeFramed(body[:len(body)-1]); err == nil {
		t.Errorf("expected error for short body")
	}
	if _, err := DecodeFramed([]byte{1, 2}); err == nil {
		t.Errorf("expected error for missing header")
	}
}
