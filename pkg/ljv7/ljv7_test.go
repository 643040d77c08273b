// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

import (
	"strings"
	"testing"
)

// decodeOne runs one wire frame through the reassembler and frame decoder
func decodeOne(t *testing.T, wire []byte) *Record {
	t.Helper()
	frames, err := NewReassembler().Feed(wire)
	if err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(frames))
	}
	return DecodeFrame(frames[0], false)
}

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		wire []byte
		op   Opcode
		dir  Direction
	}{
		{
			name: "auto-zero request",
			wire: EncodeRequest(1, OpAutoZero, []byte{1, 2, 0, 0, 0x10, 0x00, 0x00, 0x00}),
			op:   OpAutoZero,
			dir:  DirectionRequest,
		},
		{
			name: "memory access reply",
			wire: EncodeReply(1, OpCheckMemoryAccess, 0, 0, 1, []byte{0, 0, 0, 0}),
			op:   OpCheckMemoryAccess,
			dir:  DirectionReply,
		},
		{
			name: "change program request",
			wire: EncodeRequest(1, OpChangeProgram, []byte{9, 0, 0, 0}),
			op:   OpChangeProgram,
			dir:  DirectionRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := decodeOne(t, tt.wire)
			if rec.HasAnomaly() {
				t.Fatalf("anomalies: %v", rec.Anomalies)
			}
			if rec.Header.Direction != tt.dir {
				t.Errorf("Direction = %s, want %s", rec.Header.Direction, tt.dir)
			}
			if rec.Body.Opcode != tt.op {
				t.Errorf("Opcode = %s, want %s", rec.Body.Opcode, tt.op)
			}
			// The length invariant: prefix covers header plus body exactly.
			if int(rec.Frame.TotalLength) != len(tt.wire) {
				t.Errorf("TotalLength = %d, want %d", rec.Frame.TotalLength, len(tt.wire))
			}
			if int(rec.Header.BodyLength) != len(tt.wire)-PrefixSize-HeaderSize {
				t.Errorf("BodyLength = %d, wire = %d", rec.Header.BodyLength, len(tt.wire))
			}
		})
	}
}

func TestFrameRoundTrip_Values(t *testing.T) {
	wire := EncodeRequest(3, OpAutoZero, []byte{0x02, 0x01, 0x00, 0x00, 0x44, 0x33, 0x22, 0x11})
	rec := decodeOne(t, wire)

	if rec.Header.Version != 3 {
		t.Errorf("Version = %d, want 3", rec.Header.Version)
	}
	p, ok := rec.Body.Payload.(AutoZeroRequest)
	if !ok {
		t.Fatalf("Payload type = %T", rec.Body.Payload)
	}
	if p.Designation != 2 || p.TargetMethod != 1 || p.Target != 0x11223344 {
		t.Errorf("payload = %+v", p)
	}
}

func TestDecodeFrame_CollectsAnomalies(t *testing.T) {
	// Valid framing, unknown direction marker.
	body := EncodeRequestBody(OpChangeProgram, []byte{1, 0, 0, 0})
	wire := EncodeFrame(FrameHeader{Version: 1, Marker: 0xBEEF}, body)

	rec := decodeOne(t, wire)
	if !rec.HasAnomaly() {
		t.Fatal("Expected a marker anomaly")
	}
	// Body still decodes under the conservative request layout.
	if _, ok := rec.Body.Payload.(ChangeProgramRequest); !ok {
		t.Errorf("Payload type = %T", rec.Body.Payload)
	}
}

func TestFormatRecord_Smoke(t *testing.T) {
	wire := EncodeReply(1, OpCheckMemoryAccess, 0, 0, 2, []byte{1, 0, 0, 0})
	rec := decodeOne(t, wire)

	out := FormatRecord(rec)
	for _, want := range []string{"REPLY", "CHECK_MEMORY_ACCESS", "NO_ACCESS", "Program: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted output missing %q:\n%s", want, out)
		}
	}
}

func TestStatistics_Update(t *testing.T) {
	stats := NewStatistics()

	stats.Update(decodeOne(t, EncodeRequest(1, OpChangeProgram, []byte{1, 0, 0, 0})))
	stats.Update(decodeOne(t, EncodeReply(1, OpChangeProgram, 0, 0, 1, nil)))
	stats.Update(decodeOne(t, EncodeRequest(1, Opcode(0xEE), []byte{1, 2, 3})))

	if stats.TotalFrames != 3 {
		t.Errorf("TotalFrames = %d, want 3", stats.TotalFrames)
	}
	if stats.Requests != 2 || stats.Replies != 1 {
		t.Errorf("Requests/Replies = %d/%d", stats.Requests, stats.Replies)
	}
	if stats.UnknownOpcodes != 1 {
		t.Errorf("UnknownOpcodes = %d, want 1", stats.UnknownOpcodes)
	}

	stats.RecordStreamError(&FrameTooLargeError{Declared: 99, Limit: 1})
	if stats.OversizeFrames != 1 {
		t.Errorf("OversizeFrames = %d, want 1", stats.OversizeFrames)
	}
	if stats.Anomalies() != 1 {
		t.Errorf("Anomalies = %d, want 1", stats.Anomalies())
	}
	if !strings.Contains(stats.Summary(), "frames=3") {
		t.Errorf("Summary = %q", stats.Summary())
	}
}
