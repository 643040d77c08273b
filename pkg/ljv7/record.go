// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

import "time"

// Record is one fully decoded frame: the raw frame, its header and body,
// plus every anomaly met while decoding. Records are transient; nothing in
// this package retains them after handing one to the caller.
type Record struct {
	Time      time.Time
	Frame     Frame
	Header    FrameHeader
	Body      Body
	Anomalies []error
}

// Direction returns the frame's direction as decoded from the header
func (rec *Record) Direction() Direction {
	return rec.Header.Direction
}

// HasAnomaly reports whether any anomaly was recorded while decoding
func (rec *Record) HasAnomaly() bool {
	return len(rec.Anomalies) > 0
}

// DecodeFrame decodes a complete frame into a Record. Header and body
// anomalies are collected rather than aborting: the record always carries
// a best-effort decode of every byte.
func DecodeFrame(f Frame, includeReserved bool) *Record {
	rec := &Record{Time: time.Now(), Frame: f}

	var err error
	rec.Header, err = DecodeHeader(f.HeaderBytes())
	if err != nil {
		rec.Anomalies = append(rec.Anomalies, err)
	}

	bodyBytes := f.BodyBytes()
	if rec.Header.BodyLength != uint32(len(bodyBytes)) {
		rec.Anomalies = append(rec.Anomalies, &DecodeInconsistencyError{
			Direction: rec.Header.Direction,
			Expected:  int(rec.Header.BodyLength),
			Actual:    len(bodyBytes),
		})
	}

	ctx := DecodeContext{
		Direction: rec.Header.Direction,
		// The framing is authoritative for where the body ends.
		BodyLength:      uint32(len(bodyBytes)),
		IncludeReserved: includeReserved,
	}

	rec.Body, err = DecodeBody(ctx, bodyBytes)
	if err != nil {
		rec.Anomalies = append(rec.Anomalies, err)
	}
	return rec
}
