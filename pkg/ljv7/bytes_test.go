// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

import (
	"bytes"
	"errors"
	"testing"
)

func TestReader_Primitives(t *testing.T) {
	r := NewReader([]byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0xFF, 0xFF, 0xFF, 0xFF,
		0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	})

	if v, err := r.U8(); err != nil || v != 0x01 {
		t.Errorf("U8 = %v, %v", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0x0302 {
		t.Errorf("U16 = 0x%04X, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0x07060504 {
		t.Errorf("U32 = 0x%08X, %v", v, err)
	}
	if v, err := r.I32(); err != nil || v != -1 {
		t.Errorf("I32 = %d, %v", v, err)
	}
	if v, err := r.U64(); err != nil || v != 8 {
		t.Errorf("U64 = %d, %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", r.Remaining())
	}
	if _, err := r.U8(); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Expected ErrShortBuffer past end, got %v", err)
	}
}

func TestReader_FixedString(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		n    int
		want string
	}{
		{"nul padded", []byte("LJ-V7080\x00\x00\x00\x00"), 12, "LJ-V7080"},
		{"full width", []byte("ABCD"), 4, "ABCD"},
		{"empty", []byte{0x00, 0x00}, 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewReader(tt.data).FixedString(tt.n)
			if err != nil {
				t.Fatalf("FixedString error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FixedString = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReader_SkipCollectsReserved(t *testing.T) {
	data := []byte{0x01, 0xAA, 0xBB, 0xCC, 0x02}

	r := NewReader(data)
	r.KeepReserved(true)

	if _, err := r.U8(); err != nil {
		t.Fatal(err)
	}
	if err := r.Skip(3); err != nil {
		t.Fatal(err)
	}
	if v, _ := r.U8(); v != 0x02 {
		t.Errorf("post-skip byte = 0x%02X, want 0x02", v)
	}

	spans := r.ReservedSpans()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 reserved span, got %d", len(spans))
	}
	if spans[0].Offset != 1 || !bytes.Equal(spans[0].Bytes, []byte{0xAA, 0xBB, 0xCC}) {
		t.Errorf("span = %+v", spans[0])
	}

	// Without KeepReserved the same skip leaves no trace.
	r2 := NewReader(data)
	_ = r2.Skip(4)
	if r2.ReservedSpans() != nil {
		t.Error("Expected no spans without KeepReserved")
	}
}

func TestPackedPointBytes(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{0, 0},
		{1, 3},
		{2, 5},
		{8, 20}, // ceil(8*20/8)
		{800, 2000},
	}

	for _, tt := range tests {
		if got := PackedPointBytes(tt.points); got != tt.want {
			t.Errorf("PackedPointBytes(%d) = %d, want %d", tt.points, got, tt.want)
		}
	}
}

func TestPacked20_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		points []uint32
	}{
		{"single", []uint32{0x12345}},
		{"pair straddling a byte", []uint32{0xFFFFF, 0x00001}},
		{"eight", []uint32{0, 1, 2, 0xABCDE, 0xFFFFF, 0x80000, 0x7FFFF, 42}},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := PackPoints(tt.points)
			if len(packed) != PackedPointBytes(len(tt.points)) {
				t.Fatalf("packed length = %d, want %d", len(packed), PackedPointBytes(len(tt.points)))
			}

			got, err := NewReader(packed).Packed20(len(tt.points))
			if err != nil {
				t.Fatalf("Packed20 error: %v", err)
			}
			for i := range tt.points {
				if got[i] != tt.points[i] {
					t.Errorf("point %d = 0x%05X, want 0x%05X", i, got[i], tt.points[i])
				}
			}
		})
	}
}

func TestPacked20_KnownBytes(t *testing.T) {
	// Two samples: 0x00001 then 0x00002. Bits are packed LSB first, so the
	// second sample starts mid-byte at bit 20.
	packed := []byte{0x01, 0x00, 0x20, 0x00, 0x00}

	points, err := NewReader(packed).Packed20(2)
	if err != nil {
		t.Fatalf("Packed20 error: %v", err)
	}
	if points[0] != 1 || points[1] != 2 {
		t.Errorf("points = %v, want [1 2]", points)
	}
}

func TestPacked20_ShortBuffer(t *testing.T) {
	if _, err := NewReader(make([]byte, 4)).Packed20(2); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Expected ErrShortBuffer, got %v", err)
	}
}
