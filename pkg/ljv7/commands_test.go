// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

import (
	"bytes"
	"errors"
	"testing"
)

// requestCtx builds a request decode context for a body of the given length
func requestCtx(bodyLength int) DecodeContext {
	return DecodeContext{Direction: DirectionRequest, BodyLength: uint32(bodyLength)}
}

// replyCtx builds a reply decode context for a body of the given length
func replyCtx(bodyLength int) DecodeContext {
	return DecodeContext{Direction: DirectionReply, BodyLength: uint32(bodyLength)}
}

func TestDecodeBody_AutoZeroRequest(t *testing.T) {
	// Eight zero field bytes: designation=0, method=0, reserved=0, target=0.
	body := EncodeRequestBody(OpAutoZero, make([]byte, 8))

	decoded, err := DecodeBody(requestCtx(len(body)), body)
	if err != nil {
		t.Fatalf("DecodeBody error: %v", err)
	}

	p, ok := decoded.Payload.(AutoZeroRequest)
	if !ok {
		t.Fatalf("Payload type = %T, want AutoZeroRequest", decoded.Payload)
	}
	if p.Designation != 0 || p.TargetMethod != 0 || p.Target != 0 {
		t.Errorf("payload = %+v, want zero values", p)
	}
	if len(decoded.Residual) != 0 {
		t.Errorf("Expected exactly 8 field bytes consumed, residual=%d", len(decoded.Residual))
	}
}

func TestDecodeBody_MemoryAccessReply(t *testing.T) {
	tests := []struct {
		name   string
		field  byte
		result MemoryAccessResult
	}{
		{"access", 0x00, MemoryAccess},
		{"no access", 0x01, MemoryNoAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := EncodeReplyBody(OpCheckMemoryAccess, 0, 0, 0, []byte{tt.field, 0, 0, 0})
			decoded, err := DecodeBody(replyCtx(len(body)), body)
			if err != nil {
				t.Fatalf("DecodeBody error: %v", err)
			}
			p, ok := decoded.Payload.(MemoryAccessReply)
			if !ok {
				t.Fatalf("Payload type = %T", decoded.Payload)
			}
			if p.Result != tt.result {
				t.Errorf("Result = %s, want %s", p.Result, tt.result)
			}
		})
	}
}

func TestDecodeBody_GetSettingRequest(t *testing.T) {
	fields := []byte{
		0x02, 0x00, 0x00, 0x00, // level + pad
		0x01,                   // type
		0x03,                   // category
		0x04,                   // item
		0x00,                   // reserved
		0x78, 0x56, 0x34, 0x12, // target
		0xAA, 0xBB, 0xCC, 0xDD, // 4-byte trailing value
	}
	body := EncodeRequestBody(OpGetSetting, fields)
	if len(body) != 20 {
		t.Fatalf("test body should be 20 bytes, got %d", len(body))
	}

	decoded, err := DecodeBody(requestCtx(20), body)
	if err != nil {
		t.Fatalf("DecodeBody error: %v", err)
	}

	p, ok := decoded.Payload.(GetSettingRequest)
	if !ok {
		t.Fatalf("Payload type = %T", decoded.Payload)
	}
	if p.Level != 2 || p.Type != 1 || p.Category != 3 || p.Item != 4 {
		t.Errorf("address fields = %+v", p)
	}
	if p.Target != 0x12345678 {
		t.Errorf("Target = 0x%08X, want 0x12345678", p.Target)
	}
	// bodyLength 20 minus the 16-byte fixed part leaves exactly 4 bytes.
	if !bytes.Equal(p.Value, []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Errorf("Value = % X, want AA BB CC DD", p.Value)
	}
}

func TestDecodeBody_GetSettingRequest_Inconsistent(t *testing.T) {
	// Declared body length shorter than the fixed layout.
	body := EncodeRequestBody(OpGetSetting, make([]byte, 6))

	decoded, err := DecodeBody(requestCtx(len(body)), body)

	var inconsistent *DecodeInconsistencyError
	if !errors.As(err, &inconsistent) {
		t.Fatalf("Expected DecodeInconsistencyError, got %v", err)
	}
	if inconsistent.Opcode != OpGetSetting || inconsistent.Direction != DirectionRequest {
		t.Errorf("error context = %+v", inconsistent)
	}

	// The command portion falls back to Unparsed with the remainder.
	p, ok := decoded.Payload.(Unparsed)
	if !ok {
		t.Fatalf("fallback Payload type = %T, want Unparsed", decoded.Payload)
	}
	if len(p.Data) != 6 {
		t.Errorf("Unparsed remainder = %d bytes, want 6", len(p.Data))
	}
}

func TestDecodeBody_SetSetting(t *testing.T) {
	fields := []byte{
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x05, 0x06, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0x11, 0x22, // 2-byte value blob
	}
	body := EncodeRequestBody(OpSetSetting, fields)

	decoded, err := DecodeBody(requestCtx(len(body)), body)
	if err != nil {
		t.Fatalf("DecodeBody error: %v", err)
	}
	p, ok := decoded.Payload.(SetSettingRequest)
	if !ok {
		t.Fatalf("Payload type = %T", decoded.Payload)
	}
	if !bytes.Equal(p.Value, []byte{0x11, 0x22}) {
		t.Errorf("Value = % X, want 11 22", p.Value)
	}

	reply := EncodeReplyBody(OpSetSetting, 0, 0, 0, []byte{0x40, 0x00, 0x00, 0x80})
	decoded, err = DecodeBody(replyCtx(len(reply)), reply)
	if err != nil {
		t.Fatalf("DecodeBody reply error: %v", err)
	}
	rp, ok := decoded.Payload.(SetSettingReply)
	if !ok {
		t.Fatalf("reply Payload type = %T", decoded.Payload)
	}
	if rp.DetailedError != 0x80000040 {
		t.Errorf("DetailedError = 0x%08X", rp.DetailedError)
	}
}

func TestDecodeBody_GetSettingReply(t *testing.T) {
	fields := append([]byte{0, 0, 0, 0}, 0xCA, 0xFE) // reserved u32 + 2-byte value
	body := EncodeReplyBody(OpGetSetting, 0, 1, 3, fields)

	decoded, err := DecodeBody(replyCtx(len(body)), body)
	if err != nil {
		t.Fatalf("DecodeBody error: %v", err)
	}
	if decoded.ControllerStatus != 1 || decoded.ActiveProgram != 3 {
		t.Errorf("prologue: status=%d program=%d", decoded.ControllerStatus, decoded.ActiveProgram)
	}
	p, ok := decoded.Payload.(GetSettingReply)
	if !ok {
		t.Fatalf("Payload type = %T", decoded.Payload)
	}
	if !bytes.Equal(p.Value, []byte{0xCA, 0xFE}) {
		t.Errorf("Value = % X, want CA FE", p.Value)
	}
}

func TestDecodeBody_UnknownOpcode(t *testing.T) {
	// Opcode 0xEE, bodyLength 5: one residual byte after the prologue.
	body := []byte{0xEE, 0x00, 0x00, 0x00, 0x42}

	decoded, err := DecodeBody(requestCtx(5), body)
	if err != nil {
		t.Fatalf("Unknown opcode must not error, got %v", err)
	}
	p, ok := decoded.Payload.(Unparsed)
	if !ok {
		t.Fatalf("Payload type = %T, want Unparsed", decoded.Payload)
	}
	if !bytes.Equal(p.Data, []byte{0x42}) {
		t.Errorf("Unparsed data = % X, want 42", p.Data)
	}
	if decoded.Opcode.Known() {
		t.Error("0xEE must not be a known opcode")
	}
}

func TestDecodeBody_EmptyAndPrologueOnly(t *testing.T) {
	// Zero-length body: legal, no payload fields.
	decoded, err := DecodeBody(requestCtx(0), nil)
	if err != nil {
		t.Fatalf("empty body: %v", err)
	}
	if p, ok := decoded.Payload.(Unparsed); !ok || len(p.Data) != 0 {
		t.Errorf("empty body payload = %#v", decoded.Payload)
	}

	// Prologue-only request: opcode with nothing after it decodes Unparsed.
	body := EncodeRequestBody(OpCheckMemoryAccess, nil)
	decoded, err = DecodeBody(requestCtx(len(body)), body)
	if err != nil {
		t.Fatalf("prologue-only body: %v", err)
	}
	if _, ok := decoded.Payload.(Unparsed); !ok {
		t.Errorf("Payload type = %T, want Unparsed", decoded.Payload)
	}
}

func TestDecodeBody_ReplyPrologueFields(t *testing.T) {
	body := EncodeReplyBody(OpAutoZero, 0x21, 0x05, 0x09, nil)

	decoded, err := DecodeBody(replyCtx(len(body)), body)
	if err != nil {
		t.Fatalf("DecodeBody error: %v", err)
	}
	if decoded.ReturnCode != 0x21 {
		t.Errorf("ReturnCode = 0x%02X, want 0x21", decoded.ReturnCode)
	}
	if decoded.ControllerStatus != 0x05 {
		t.Errorf("ControllerStatus = 0x%02X, want 0x05", decoded.ControllerStatus)
	}
	if decoded.ActiveProgram != 0x09 {
		t.Errorf("ActiveProgram = 0x%02X, want 0x09", decoded.ActiveProgram)
	}
}

func TestDecodeBody_ReservedSpansWhenRequested(t *testing.T) {
	body := EncodeRequestBody(OpChangeProgram, []byte{0x07, 0xAA, 0xBB, 0xCC})

	ctx := requestCtx(len(body))
	ctx.IncludeReserved = true
	decoded, err := DecodeBody(ctx, body)
	if err != nil {
		t.Fatalf("DecodeBody error: %v", err)
	}

	p := decoded.Payload.(ChangeProgramRequest)
	if p.Program != 7 {
		t.Errorf("Program = %d, want 7", p.Program)
	}
	// Prologue pad plus the 3 pad bytes after the program number.
	if len(decoded.Reserved) != 2 {
		t.Fatalf("Expected 2 reserved spans, got %d", len(decoded.Reserved))
	}
	if !bytes.Equal(decoded.Reserved[1].Bytes, []byte{0xAA, 0xBB, 0xCC}) {
		t.Errorf("pad span = % X", decoded.Reserved[1].Bytes)
	}

	// Off by default.
	decoded, _ = DecodeBody(requestCtx(len(body)), body)
	if decoded.Reserved != nil {
		t.Error("Expected no reserved spans by default")
	}
}

func TestDecodeBody_DeviceInfoReply(t *testing.T) {
	fields := make([]byte, 0, 84)
	fields = append(fields, bytes.Repeat([]byte{0xEE}, 16)...)
	model := make([]byte, 32)
	copy(model, "LJ-V7080")
	fields = append(fields, model...)
	fields = append(fields, 0x01, 0x00, 0x02, 0x00)
	head := make([]byte, 32)
	copy(head, "LJ-V7080(H)")
	fields = append(fields, head...)

	body := EncodeReplyBody(OpDeviceInfo, 0, 0, 0, fields)
	decoded, err := DecodeBody(replyCtx(len(body)), body)
	if err != nil {
		t.Fatalf("DecodeBody error: %v", err)
	}

	p, ok := decoded.Payload.(DeviceInfoReply)
	if !ok {
		t.Fatalf("Payload type = %T", decoded.Payload)
	}
	if p.Model != "LJ-V7080" {
		t.Errorf("Model = %q", p.Model)
	}
	if p.SensorHead != "LJ-V7080(H)" {
		t.Errorf("SensorHead = %q", p.SensorHead)
	}
	if p.Unknown2 != 1 || p.Unknown3 != 2 {
		t.Errorf("Unknown2/3 = %d/%d", p.Unknown2, p.Unknown3)
	}
}

func TestDecodeBody_StartHighSpeedRequest(t *testing.T) {
	body := EncodeRequestBody(OpStartHighSpeed, []byte{0x47, 0, 0, 0, 0x11, 0x22, 0x33, 0x44})

	decoded, err := DecodeBody(requestCtx(len(body)), body)
	if err != nil {
		t.Fatalf("DecodeBody error: %v", err)
	}
	p := decoded.Payload.(StartHighSpeedRequest)
	if p.Marker != 0x47 {
		t.Errorf("Marker = 0x%02X, want 0x47", p.Marker)
	}
	if p.StartCode != 0x44332211 {
		t.Errorf("StartCode = 0x%08X", p.StartCode)
	}
}

func TestDecodeBody_PrepareHighSpeedReply(t *testing.T) {
	fields := make([]byte, 0, 16+2*ProfileInfoSize)
	fields = append(fields, make([]byte, 4)...) // reserved
	fields = append(fields, 0x01, 0x02, 0x03, 0x04)
	fields = append(fields, make([]byte, 8)...) // reserved
	fields = append(fields, EncodeProfileInfo(ProfileInfo{PointsPerProfile: 800, UnitScale: 10, FirstPointX: -1000, XIncrement: 5})...)
	fields = append(fields, EncodeProfileInfo(ProfileInfo{PointsPerProfile: 400, UnitScale: 20, FirstPointX: 0, XIncrement: 7})...)

	body := EncodeReplyBody(OpPrepareHighSpeed, 0, 0, 0, fields)
	decoded, err := DecodeBody(replyCtx(len(body)), body)
	if err != nil {
		t.Fatalf("DecodeBody error: %v", err)
	}

	p := decoded.Payload.(PrepareHighSpeedReply)
	if p.StartCode != 0x04030201 {
		t.Errorf("StartCode = 0x%08X", p.StartCode)
	}
	if len(p.Heads) != 2 {
		t.Fatalf("Heads = %d, want 2", len(p.Heads))
	}
	if p.Heads[0].PointsPerProfile != 800 || p.Heads[0].FirstPointX != -1000 {
		t.Errorf("head 0 = %+v", p.Heads[0])
	}
	if p.Heads[1].PointsPerProfile != 400 || p.Heads[1].XIncrement != 7 {
		t.Errorf("head 1 = %+v", p.Heads[1])
	}
}

func TestDecodeBody_PrepareHighSpeedReplyShortTail(t *testing.T) {
	// A trailing fragment shorter than one head descriptor never becomes
	// a head: it stays in Residual and is flagged as an inconsistency.
	fields := make([]byte, 0, 16+ProfileInfoSize+5)
	fields = append(fields, make([]byte, 4)...) // reserved
	fields = append(fields, 0x01, 0x02, 0x03, 0x04)
	fields = append(fields, make([]byte, 8)...) // reserved
	fields = append(fields, EncodeProfileInfo(ProfileInfo{PointsPerProfile: 800, UnitScale: 10, FirstPointX: 0, XIncrement: 5})...)
	fields = append(fields, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE)

	body := EncodeReplyBody(OpPrepareHighSpeed, 0, 0, 0, fields)
	decoded, err := DecodeBody(replyCtx(len(body)), body)

	var inconsistent *DecodeInconsistencyError
	if !errors.As(err, &inconsistent) {
		t.Fatalf("Expected DecodeInconsistencyError for short tail, got %v", err)
	}
	p := decoded.Payload.(PrepareHighSpeedReply)
	if len(p.Heads) != 1 {
		t.Fatalf("Heads = %d, want 1", len(p.Heads))
	}
	if !bytes.Equal(decoded.Residual, []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}) {
		t.Errorf("Residual = % X", decoded.Residual)
	}
}

func TestDecodeBody_ResidualReported(t *testing.T) {
	// A reply layout wholly consumed plus 3 stray trailing bytes.
	fields := []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x02, 0x03}
	body := EncodeReplyBody(OpReflectSetting, 0, 0, 0, fields)

	decoded, err := DecodeBody(replyCtx(len(body)), body)

	var inconsistent *DecodeInconsistencyError
	if !errors.As(err, &inconsistent) {
		t.Fatalf("Expected DecodeInconsistencyError for residual, got %v", err)
	}
	if _, ok := decoded.Payload.(ReflectSettingReply); !ok {
		t.Fatalf("typed payload must survive residual, got %T", decoded.Payload)
	}
	if !bytes.Equal(decoded.Residual, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("Residual = % X", decoded.Residual)
	}
}
