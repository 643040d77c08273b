// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

// Package ljv7 provides a decoder for the Keyence LJ-V7000 laser profilometer
// Ethernet command protocol.
//
// The protocol is a length-prefixed binary framing over TCP: each frame is a
// 4-byte little-endian length prefix, a fixed 12-byte header and a variable
// body. The body starts with a single-byte command code and a direction
// dependent prologue, followed by command-specific fields. High-speed scan
// commands carry profile data with 20-bit packed point samples.
//
// This package covers stream reassembly, header and body decoding, and the
// profile data codec. It surfaces raw field values only; calibrated
// measurement semantics are left to the caller.
package ljv7

// Frame geometry, all integers little-endian on the wire.
const (
	PrefixSize = 4  // length prefix, excludes itself
	HeaderSize = 12 // fixed header following the prefix

	// DefaultMaxFrameSize is the sanity ceiling for a declared frame length.
	// A large bank of high-speed profiles stays well below this; anything
	// beyond it means the stream is desynchronized.
	DefaultMaxFrameSize = 16 << 20
)

// Direction markers at header offset 2.
const (
	MarkerRequest uint16 = 0x00F0 // host -> sensor
	MarkerReply   uint16 = 0xF000 // sensor -> host
)

// Direction identifies which side of the command channel produced a frame.
type Direction uint8

// Direction values
const (
	DirectionUnknown Direction = iota
	DirectionRequest
	DirectionReply
)

// String returns the human-readable direction name
func (d Direction) String() string {
	switch d {
	case DirectionRequest:
		return "REQUEST"
	case DirectionReply:
		return "REPLY"
	default:
		return "UNKNOWN"
	}
}

// Body prologue sizes. Every body starts with the command code; replies carry
// return code, controller status and active program number in theirs.
const (
	RequestPrologueSize = 4
	ReplyPrologueSize   = 12
)

// Opcode is the single-byte command code at body offset 0.
type Opcode uint8

// Command codes
const (
	OpDeviceInfo        Opcode = 0x01
	OpAutoZero          Opcode = 0x24
	OpGetSetting        Opcode = 0x31
	OpSetSetting        Opcode = 0x32
	OpReflectSetting    Opcode = 0x33
	OpCheckMemoryAccess Opcode = 0x34
	OpChangeProgram     Opcode = 0x39
	OpGetProfiles       Opcode = 0x42
	OpPrepareHighSpeed  Opcode = 0x47
	OpStartHighSpeed    Opcode = 0xA0
)

// Known reports whether the opcode has a registered decoder
func (o Opcode) Known() bool {
	switch o {
	case OpDeviceInfo, OpAutoZero, OpGetSetting, OpSetSetting, OpReflectSetting,
		OpCheckMemoryAccess, OpChangeProgram, OpGetProfiles, OpPrepareHighSpeed,
		OpStartHighSpeed:
		return true
	}
	return false
}

// String returns the human-readable command name
func (o Opcode) String() string {
	switch o {
	case OpDeviceInfo:
		return "DEVICE_INFO"
	case OpAutoZero:
		return "AUTO_ZERO"
	case OpGetSetting:
		return "GET_SETTING"
	case OpSetSetting:
		return "SET_SETTING"
	case OpReflectSetting:
		return "REFLECT_SETTING"
	case OpCheckMemoryAccess:
		return "CHECK_MEMORY_ACCESS"
	case OpChangeProgram:
		return "CHANGE_PROGRAM"
	case OpGetProfiles:
		return "GET_PROFILES"
	case OpPrepareHighSpeed:
		return "PREPARE_HS_COMM"
	case OpStartHighSpeed:
		return "START_HS_COMM"
	default:
		return "UNKNOWN"
	}
}

// Profile data geometry (see profile.go).
const (
	ProfileInfoSize        = 12 // points u16, unit scale u16, first X i32, X increment i32
	ProfileRecordFixedSize = 24 // flags u32, trigger u32, encoder u32, 12 reserved
	ProfileTrailerSize     = 4  // opaque, possibly a checksum

	// PointBits is the packed width of one profile point sample.
	PointBits = 20

	// UnitScaleMicrons converts a raw unit-scale step to micrometers.
	UnitScaleMicrons = 0.01
)

// DefaultCommandPort is the TCP port of the sensor's command channel.
// The high-speed streaming channel uses a separate port and protocol.
const DefaultCommandPort = 24691

// MemoryAccessResult is the result field of a CHECK_MEMORY_ACCESS reply.
type MemoryAccessResult uint8

// Memory access results
const (
	MemoryAccess   MemoryAccessResult = 0x00
	MemoryNoAccess MemoryAccessResult = 0x01
)

// String returns the human-readable access result name
func (r MemoryAccessResult) String() string {
	switch r {
	case MemoryAccess:
		return "ACCESS"
	case MemoryNoAccess:
		return "NO_ACCESS"
	default:
		return "UNKNOWN"
	}
}
