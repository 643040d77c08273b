// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks stream decode counters and rates. One instance per
// decoded stream pair; callers own any locking.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames     uint64
	Requests        uint64
	Replies         uint64
	UnknownOpcodes  uint64
	MarkerAnomalies uint64
	Inconsistencies uint64
	OversizeFrames  uint64
	ProfilesDecoded uint64
	PointsDecoded   uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // anomalies/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update updates counters from a decoded record
func (s *Statistics) Update(rec *Record) {
	s.TotalFrames++
	switch rec.Header.Direction {
	case DirectionRequest:
		s.Requests++
	case DirectionReply:
		s.Replies++
	}

	if !rec.Body.Opcode.Known() {
		s.UnknownOpcodes++
	}
	if reply, ok := rec.Body.Payload.(GetProfilesReply); ok {
		s.ProfilesDecoded += uint64(len(reply.Set.Profiles))
		for _, p := range reply.Set.Profiles {
			s.PointsDecoded += uint64(len(p.Points))
		}
	}

	for _, anomaly := range rec.Anomalies {
		var marker *UnknownDirectionMarkerError
		var inconsistent *DecodeInconsistencyError
		switch {
		case errors.As(anomaly, &marker):
			s.MarkerAnomalies++
		case errors.As(anomaly, &inconsistent):
			s.Inconsistencies++
		}
	}

	s.LastUpdateTime = time.Now()
}

// RecordStreamError counts a per-stream failure such as an oversize frame
func (s *Statistics) RecordStreamError(err error) {
	var tooLarge *FrameTooLargeError
	if errors.As(err, &tooLarge) {
		s.OversizeFrames++
	}
	s.LastUpdateTime = time.Now()
}

// Anomalies returns the total anomaly count across all kinds
func (s *Statistics) Anomalies() uint64 {
	return s.MarkerAnomalies + s.Inconsistencies + s.OversizeFrames
}

// CalculateRates recalculates the frame and anomaly rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed <= 0 {
		return
	}
	s.FrameRate = float64(s.TotalFrames) / elapsed
	s.ErrorRate = float64(s.Anomalies()) / elapsed
}

// Summary returns a one-line counter summary
func (s *Statistics) Summary() string {
	s.CalculateRates()
	return fmt.Sprintf("frames=%d (req=%d rep=%d) unknown=%d anomalies=%d profiles=%d points=%d rate=%.1f/s",
		s.TotalFrames, s.Requests, s.Replies, s.UnknownOpcodes,
		s.Anomalies(), s.ProfilesDecoded, s.PointsDecoded, s.FrameRate)
}
