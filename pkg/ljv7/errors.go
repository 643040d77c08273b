// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

import (
	"errors"
	"fmt"
)

// ErrShortBuffer is returned by Reader primitives when fewer bytes remain
// than the requested field width.
var ErrShortBuffer = errors.New("short buffer")

// FrameTooLargeError reports a declared frame length that cannot be real:
// beyond the configured ceiling, or too short to hold the fixed header. The
// stream is considered desynchronized from this point on.
type FrameTooLargeError struct {
	Declared uint32
	Limit    uint32
}

// Error implements the error interface
func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("illegal declared frame length %d (limit %d)", e.Declared, e.Limit)
}

// UnknownDirectionMarkerError reports a header whose direction marker matches
// neither MarkerRequest nor MarkerReply. The header is still decoded
// best-effort; the anomaly is recoverable.
type UnknownDirectionMarkerError struct {
	Marker uint16
}

// Error implements the error interface
func (e *UnknownDirectionMarkerError) Error() string {
	return fmt.Sprintf("unknown direction marker 0x%04X", e.Marker)
}

// DecodeInconsistencyError reports a command decoder whose length accounting
// against the declared body length does not balance, e.g. a trailing segment
// length that would be negative. The affected frame's command payload falls
// back to Unparsed; the stream itself stays decodable at the next frame
// boundary.
type DecodeInconsistencyError struct {
	Opcode    Opcode
	Direction Direction
	Expected  int // bytes the layout requires
	Actual    int // bytes the body length provides
}

// Error implements the error interface
func (e *DecodeInconsistencyError) Error() string {
	return fmt.Sprintf("%s %s: layout requires %d bytes, body provides %d",
		e.Opcode, e.Direction, e.Expected, e.Actual)
}
