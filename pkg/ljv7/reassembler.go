// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

import "encoding/binary"

// Frame is one complete length-prefixed protocol message. Raw holds the
// full wire bytes including the 4-byte prefix; a Frame is immutable once
// extracted from the reassembler.
type Frame struct {
	TotalLength uint32 // includes the prefix itself
	Raw         []byte
}

// HeaderBytes returns the 12 header bytes
func (f Frame) HeaderBytes() []byte {
	return f.Raw[PrefixSize : PrefixSize+HeaderSize]
}

// BodyBytes returns the body following the header
func (f Frame) BodyBytes() []byte {
	return f.Raw[PrefixSize+HeaderSize:]
}

// Reassembler turns an arbitrarily chunked TCP byte stream into complete
// frames. It is the only stateful component of the decoder: it accumulates
// bytes across Feed calls and must produce identical frames regardless of
// how the stream was chunked. One reassembler serves exactly one stream
// direction; it is not safe for concurrent use.
type Reassembler struct {
	buf      []byte
	cursor   int
	needed   int
	maxFrame uint32
	dead     bool
}

// NewReassembler creates a reassembler with the default frame-size ceiling.
func NewReassembler() *Reassembler {
	return &Reassembler{needed: PrefixSize, maxFrame: DefaultMaxFrameSize}
}

// NewReassemblerWithLimit creates a reassembler with a custom frame-size
// ceiling. A limit of 0 selects the default.
func NewReassemblerWithLimit(limit uint32) *Reassembler {
	r := NewReassembler()
	if limit > 0 {
		r.maxFrame = limit
	}
	return r
}

// BytesNeeded returns how many more bytes are required before the next
// frame boundary can be determined.
func (r *Reassembler) BytesNeeded() int {
	return r.needed
}

// Feed appends newly received bytes and extracts every complete frame now
// available. Each returned frame owns a copy of its wire bytes. After a
// FrameTooLargeError the stream is treated as corrupted and further calls
// return the same error until Reset.
func (r *Reassembler) Feed(p []byte) ([]Frame, error) {
	if r.dead {
		return nil, &FrameTooLargeError{Declared: 0, Limit: r.maxFrame}
	}

	r.buf = append(r.buf, p...)

	var frames []Frame
	for {
		avail := len(r.buf) - r.cursor
		if avail < PrefixSize {
			r.needed = PrefixSize - avail
			break
		}

		prefix := binary.LittleEndian.Uint32(r.buf[r.cursor:])
		total := int(prefix) + PrefixSize
		if prefix > r.maxFrame || total < PrefixSize+HeaderSize {
			r.dead = true
			return frames, &FrameTooLargeError{Declared: prefix, Limit: r.maxFrame}
		}

		if avail < total {
			r.needed = total - avail
			break
		}

		raw := make([]byte, total)
		copy(raw, r.buf[r.cursor:r.cursor+total])
		frames = append(frames, Frame{TotalLength: uint32(total), Raw: raw})
		r.cursor += total
	}

	r.compact()
	return frames, nil
}

// Reset discards all buffered bytes and clears a corrupted-stream state.
func (r *Reassembler) Reset() {
	r.buf = r.buf[:0]
	r.cursor = 0
	r.needed = PrefixSize
	r.dead = false
}

// compact drops consumed bytes once the cursor has moved past them
func (r *Reassembler) compact() {
	if r.cursor == 0 {
		return
	}
	n := copy(r.buf, r.buf[r.cursor:])
	r.buf = r.buf[:n]
	r.cursor = 0
}
