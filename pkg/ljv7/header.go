// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

import "encoding/binary"

// FrameHeader is the decoded fixed 12-byte header following the length
// prefix.
type FrameHeader struct {
	Version    uint16
	Marker     uint16 // raw direction marker at offset 2
	Direction  Direction
	ReturnCode uint8 // meaningful on replies only
	BodyLength uint32
}

// DecodeHeader decodes the 12-byte header. It is total over any 12-byte
// input: an unrecognized direction marker yields an
// UnknownDirectionMarkerError alongside a best-effort header whose
// direction falls back to Request, the layout that interprets fewer bytes.
func DecodeHeader(data []byte) (FrameHeader, error) {
	if len(data) < HeaderSize {
		return FrameHeader{}, ErrShortBuffer
	}

	h := FrameHeader{
		Version:    binary.LittleEndian.Uint16(data[0:2]),
		Marker:     binary.LittleEndian.Uint16(data[2:4]),
		ReturnCode: data[4],
		BodyLength: binary.LittleEndian.Uint32(data[8:12]),
	}

	switch h.Marker {
	case MarkerRequest:
		h.Direction = DirectionRequest
		h.ReturnCode = 0 // reserved on requests
	case MarkerReply:
		h.Direction = DirectionReply
	default:
		h.Direction = DirectionRequest
		h.ReturnCode = 0
		return h, &UnknownDirectionMarkerError{Marker: h.Marker}
	}

	return h, nil
}

// EncodeHeader encodes a header to its 12-byte wire form. The marker is
// derived from the direction unless the header carries a raw marker.
func EncodeHeader(h FrameHeader) []byte {
	marker := h.Marker
	if marker == 0 {
		switch h.Direction {
		case DirectionReply:
			marker = MarkerReply
		default:
			marker = MarkerRequest
		}
	}

	out := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(out[0:2], h.Version)
	binary.LittleEndian.PutUint16(out[2:4], marker)
	if h.Direction == DirectionReply {
		out[4] = h.ReturnCode
	}
	binary.LittleEndian.PutUint32(out[8:12], h.BodyLength)
	return out
}
