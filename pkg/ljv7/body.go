// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

import "errors"

// DecodeContext carries the per-frame decode state every command decoder
// needs. It replaces any shared mutable state: decoding the same bytes with
// the same context always yields the same result.
type DecodeContext struct {
	Direction       Direction
	BodyLength      uint32
	IncludeReserved bool
}

// Body is a decoded frame body. ReturnCode, ControllerStatus and
// ActiveProgram are meaningful on replies only; the corresponding request
// bytes are reserved and skipped. Residual holds bytes a specific decoder
// left unconsumed; Reserved holds skipped reserved spans when the context
// asked for them.
type Body struct {
	Opcode           Opcode
	ReturnCode       uint8
	ControllerStatus uint8
	ActiveProgram    uint8
	Payload          CommandPayload
	Residual         []byte
	Reserved         []ReservedSpan
}

// DecodeBody decodes a frame body. Command-specific decode failures are
// recoverable: the returned body falls back to an Unparsed payload for the
// unconsumed remainder and the error describes the inconsistency. Only a
// body too short for its prologue is returned without a payload.
func DecodeBody(ctx DecodeContext, data []byte) (Body, error) {
	r := NewReader(data)
	r.KeepReserved(ctx.IncludeReserved)

	var body Body
	if len(data) == 0 {
		// Header-only frames are legal.
		body.Payload = Unparsed{}
		return body, nil
	}

	op, err := r.U8()
	if err != nil {
		return body, inconsistency(ctx, 0, RequestPrologueSize)
	}
	body.Opcode = Opcode(op)

	if ctx.Direction == DirectionReply {
		err = decodeReplyPrologue(r, &body)
	} else {
		err = r.Skip(RequestPrologueSize - 1)
	}
	if err != nil {
		body.Reserved = r.ReservedSpans()
		return body, inconsistency(ctx, body.Opcode, prologueSize(ctx.Direction))
	}

	mark := r.Offset()
	payload, err := dispatchCommand(ctx, body.Opcode, r)
	if err != nil {
		// Abandon the command-specific portion but keep the frame: the
		// remainder from the prologue onward becomes Unparsed.
		remainder := make([]byte, len(data)-mark)
		copy(remainder, data[mark:])
		body.Payload = Unparsed{Op: body.Opcode, Data: remainder}
		body.Reserved = r.ReservedSpans()
		if errors.Is(err, ErrShortBuffer) {
			// The layout needed at least one byte past where decode stopped.
			err = inconsistency(ctx, body.Opcode, r.Offset()+1)
		}
		return body, err
	}

	body.Payload = payload
	body.Residual = r.Rest()
	body.Reserved = r.ReservedSpans()
	if len(body.Residual) > 0 {
		return body, inconsistency(ctx, body.Opcode, len(data)-len(body.Residual))
	}
	return body, nil
}

// decodeReplyPrologue reads the 12-byte reply prologue after the opcode
func decodeReplyPrologue(r *Reader, body *Body) error {
	var err error
	if body.ReturnCode, err = r.U8(); err != nil {
		return err
	}
	if body.ControllerStatus, err = r.U8(); err != nil {
		return err
	}
	if err = r.Skip(5); err != nil {
		return err
	}
	if body.ActiveProgram, err = r.U8(); err != nil {
		return err
	}
	return r.Skip(3)
}

func prologueSize(d Direction) int {
	if d == DirectionReply {
		return ReplyPrologueSize
	}
	return RequestPrologueSize
}

// dispatchCommand selects the decoder for an opcode and direction. Opcodes
// without a decoder for the given direction, and bodies with nothing left
// after the prologue, decode as Unparsed.
func dispatchCommand(ctx DecodeContext, op Opcode, r *Reader) (CommandPayload, error) {
	if r.Remaining() == 0 {
		return Unparsed{Op: op}, nil
	}

	reply := ctx.Direction == DirectionReply
	switch op {
	case OpDeviceInfo:
		if reply {
			return decodeDeviceInfoReply(ctx, r)
		}
	case OpAutoZero:
		if !reply {
			return decodeAutoZeroRequest(ctx, r)
		}
	case OpGetSetting:
		if reply {
			return decodeGetSettingReply(ctx, r)
		}
		return decodeGetSettingRequest(ctx, r)
	case OpSetSetting:
		if reply {
			return decodeSetSettingReply(ctx, r)
		}
		return decodeSetSettingRequest(ctx, r)
	case OpReflectSetting:
		if reply {
			return decodeReflectSettingReply(ctx, r)
		}
		return decodeReflectSettingRequest(ctx, r)
	case OpCheckMemoryAccess:
		if reply {
			return decodeMemoryAccessReply(ctx, r)
		}
	case OpChangeProgram:
		if !reply {
			return decodeChangeProgramRequest(ctx, r)
		}
	case OpGetProfiles:
		if reply {
			return decodeGetProfilesReply(ctx, r)
		}
		return decodeGetProfilesRequest(ctx, r)
	case OpPrepareHighSpeed:
		if reply {
			return decodePrepareHighSpeedReply(ctx, r)
		}
		return decodePrepareHighSpeedRequest(ctx, r)
	case OpStartHighSpeed:
		if !reply {
			return decodeStartHighSpeedRequest(ctx, r)
		}
	}

	return Unparsed{Op: op, Data: r.Rest()}, nil
}
