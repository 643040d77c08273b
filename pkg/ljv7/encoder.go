// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

import "encoding/binary"

// Frame and body builders. The decoder never needs these; they exist for
// synthetic traffic: self-tests, capture replay and decode round-trips.

// EncodeFrame builds a complete wire frame from a header and body. The
// header's body length and the length prefix are computed from the body.
func EncodeFrame(h FrameHeader, body []byte) []byte {
	h.BodyLength = uint32(len(body))

	out := make([]byte, 0, PrefixSize+HeaderSize+len(body))
	out = binary.LittleEndian.AppendUint32(out, uint32(HeaderSize+len(body)))
	out = append(out, EncodeHeader(h)...)
	out = append(out, body...)
	return out
}

// EncodeRequestBody builds a request body: opcode, 3 reserved bytes, fields.
func EncodeRequestBody(op Opcode, fields []byte) []byte {
	out := make([]byte, RequestPrologueSize, RequestPrologueSize+len(fields))
	out[0] = byte(op)
	return append(out, fields...)
}

// EncodeReplyBody builds a reply body with its 12-byte prologue.
func EncodeReplyBody(op Opcode, returnCode, controllerStatus, activeProgram uint8, fields []byte) []byte {
	out := make([]byte, ReplyPrologueSize, ReplyPrologueSize+len(fields))
	out[0] = byte(op)
	out[1] = returnCode
	out[2] = controllerStatus
	out[8] = activeProgram
	return append(out, fields...)
}

// EncodeRequest builds a complete request frame for an opcode.
func EncodeRequest(version uint16, op Opcode, fields []byte) []byte {
	h := FrameHeader{Version: version, Direction: DirectionRequest}
	return EncodeFrame(h, EncodeRequestBody(op, fields))
}

// EncodeReply builds a complete reply frame for an opcode.
func EncodeReply(version uint16, op Opcode, returnCode, controllerStatus, activeProgram uint8, fields []byte) []byte {
	h := FrameHeader{Version: version, Direction: DirectionReply, ReturnCode: returnCode}
	return EncodeFrame(h, EncodeReplyBody(op, returnCode, controllerStatus, activeProgram, fields))
}

// PackPoints packs point samples into the 20-bit wire layout. The inverse
// of Reader.Packed20; values are masked to 20 bits.
func PackPoints(points []uint32) []byte {
	out := make([]byte, PackedPointBytes(len(points)))
	for i, p := range points {
		p &= 0xFFFFF
		bitOff := i * PointBits
		byteOff := bitOff / 8
		shift := uint(bitOff % 8)

		v := uint32(out[byteOff]) | p<<shift
		out[byteOff] = byte(v)
		out[byteOff+1] = byte(v >> 8)
		out[byteOff+2] = byte(v >> 16)
	}
	return out
}

// EncodeProfileInfo encodes one profile info header.
func EncodeProfileInfo(info ProfileInfo) []byte {
	out := make([]byte, 0, ProfileInfoSize)
	out = binary.LittleEndian.AppendUint16(out, info.PointsPerProfile)
	out = binary.LittleEndian.AppendUint16(out, info.UnitScale)
	out = binary.LittleEndian.AppendUint32(out, uint32(info.FirstPointX))
	out = binary.LittleEndian.AppendUint32(out, uint32(info.XIncrement))
	return out
}

// EncodeProfileData encodes an info header and profile records in the
// GET_PROFILES reply layout. Point slices shorter than the declared
// points-per-profile are zero padded.
func EncodeProfileData(info ProfileInfo, records []ProfileRecord) []byte {
	out := EncodeProfileInfo(info)
	for _, rec := range records {
		out = binary.LittleEndian.AppendUint32(out, rec.Flags)
		out = binary.LittleEndian.AppendUint32(out, rec.TriggerCount)
		out = binary.LittleEndian.AppendUint32(out, rec.EncoderCount)
		out = append(out, make([]byte, 12)...)

		points := make([]uint32, info.PointsPerProfile)
		copy(points, rec.Points)
		out = append(out, PackPoints(points)...)
		out = append(out, rec.Trailer[:]...)
	}
	return out
}
