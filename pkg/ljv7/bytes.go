// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

import (
	"bytes"
	"encoding/binary"
)

// ReservedSpan records a run of reserved bytes that was consumed to keep
// field offsets aligned. Spans are only collected when the decode context
// asks for reserved fields.
type ReservedSpan struct {
	Offset int
	Bytes  []byte
}

// Reader is a cursor over a byte slice with little-endian primitives.
// All command decoders share it so width and packing arithmetic lives in
// one place.
type Reader struct {
	data         []byte
	off          int
	keepReserved bool
	reserved     []ReservedSpan
}

// NewReader creates a reader over data. The slice is borrowed, not copied.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// KeepReserved enables collection of reserved-byte spans consumed by Skip.
func (r *Reader) KeepReserved(keep bool) {
	r.keepReserved = keep
}

// Offset returns the current cursor position
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unconsumed bytes
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// ReservedSpans returns the reserved spans consumed so far (nil unless
// KeepReserved was enabled).
func (r *Reader) ReservedSpans() []ReservedSpan {
	return r.reserved
}

// U8 reads an unsigned byte
func (r *Reader) U8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, ErrShortBuffer
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

// U16 reads a little-endian uint16
func (r *Reader) U16() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

// U32 reads a little-endian uint32
func (r *Reader) U32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

// I32 reads a little-endian int32
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// U64 reads a little-endian uint64
func (r *Reader) U64() (uint64, error) {
	if r.Remaining() < 8 {
		return 0, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

// Bytes reads n bytes into a fresh slice
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrShortBuffer
	}
	v := make([]byte, n)
	copy(v, r.data[r.off:])
	r.off += n
	return v, nil
}

// Rest reads all remaining bytes into a fresh slice
func (r *Reader) Rest() []byte {
	v, _ := r.Bytes(r.Remaining())
	return v
}

// FixedString reads an n-byte NUL-padded string field
func (r *Reader) FixedString(n int) (string, error) {
	raw, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw), nil
}

// Skip consumes n reserved bytes, recording them when KeepReserved is on
func (r *Reader) Skip(n int) error {
	if n < 0 || r.Remaining() < n {
		return ErrShortBuffer
	}
	if r.keepReserved && n > 0 {
		span := ReservedSpan{Offset: r.off, Bytes: make([]byte, n)}
		copy(span.Bytes, r.data[r.off:])
		r.reserved = append(r.reserved, span)
	}
	r.off += n
	return nil
}

// PackedPointBytes returns the byte length of a packed array of count
// 20-bit point samples: ceil(count*20/8).
func PackedPointBytes(count int) int {
	return (count*PointBits + 7) / 8
}

// Packed20 extracts count 20-bit little-endian packed samples. Successive
// samples are bit-contiguous, so every second sample straddles a nibble
// boundary rather than starting on a byte.
func (r *Reader) Packed20(count int) ([]uint32, error) {
	if count < 0 {
		return nil, ErrShortBuffer
	}
	total := PackedPointBytes(count)
	if r.Remaining() < total {
		return nil, ErrShortBuffer
	}

	points := make([]uint32, count)
	for i := 0; i < count; i++ {
		bitOff := i * PointBits
		byteOff := r.off + bitOff/8
		shift := uint(bitOff % 8) // 0 or 4

		// 20 bits plus at most a 4-bit shift always fit in 3 bytes.
		v := uint32(r.data[byteOff]) |
			uint32(r.data[byteOff+1])<<8 |
			uint32(r.data[byteOff+2])<<16
		points[i] = (v >> shift) & 0xFFFFF
	}

	r.off += total
	return points, nil
}
