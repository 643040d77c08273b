// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

// Package tap intercepts the TCP command channel between a client and an
// LJ-V7000 controller. It proxies bytes unchanged in both directions while
// reassembling and decoding every frame that passes through, handing the
// decoded records to a set of sinks.
package tap

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/optiline/ljscope/internal/capture"
	"github.com/optiline/ljscope/pkg/ljv7"
)

// Event is one decoded frame seen on the wire.
type Event struct {
	Time   time.Time
	Origin capture.Origin
	Record *ljv7.Record
}

// Sink consumes decoded traffic. HandleEvent is called once per frame in
// wire order within a direction; HandleStreamError is called when a
// direction's byte stream becomes undecodable and will produce no further
// events.
type Sink interface {
	HandleEvent(Event)
	HandleStreamError(origin capture.Origin, err error)
}

// Fanout delivers every event to each sink in order.
type Fanout []Sink

// HandleEvent implements Sink.
func (f Fanout) HandleEvent(ev Event) {
	for _, s := range f {
		s.HandleEvent(ev)
	}
}

// HandleStreamError implements Sink.
func (f Fanout) HandleStreamError(origin capture.Origin, err error) {
	for _, s := range f {
		s.HandleStreamError(origin, err)
	}
}

// LogSink writes one structured log line per frame.
type LogSink struct {
	Log zerolog.Logger
}

// HandleEvent implements Sink.
func (s *LogSink) HandleEvent(ev Event) {
	var evt *zerolog.Event
	if ev.Record.HasAnomaly() {
		evt = s.Log.Warn()
	} else {
		evt = s.Log.Info()
	}
	evt = evt.
		Str("origin", ev.Origin.String()).
		Str("dir", ev.Record.Direction().String()).
		Str("opcode", ev.Record.Body.Opcode.String()).
		Uint32("body_len", uint32(len(ev.Record.Frame.BodyBytes())))
	if ev.Record.Direction() == ljv7.DirectionReply {
		evt = evt.Uint8("return_code", ev.Record.Body.ReturnCode)
	}
	for _, a := range ev.Record.Anomalies {
		evt = evt.AnErr("anomaly", a)
	}
	evt.Msg("frame")
}

// HandleStreamError implements Sink.
func (s *LogSink) HandleStreamError(origin capture.Origin, err error) {
	s.Log.Error().Str("origin", origin.String()).Err(err).Msg("stream dead")
}

// StatsSink folds traffic into protocol statistics.
type StatsSink struct {
	Stats *ljv7.Statistics
}

// HandleEvent implements Sink.
func (s *StatsSink) HandleEvent(ev Event) {
	s.Stats.Update(ev.Record)
}

// HandleStreamError implements Sink.
func (s *StatsSink) HandleStreamError(_ capture.Origin, err error) {
	s.Stats.RecordStreamError(err)
}

// CaptureSink appends the raw bytes of every frame to a capture file.
type CaptureSink struct {
	Writer *capture.Writer
	Log    zerolog.Logger
}

// HandleEvent implements Sink.
func (s *CaptureSink) HandleEvent(ev Event) {
	err := s.Writer.Append(capture.Entry{
		Time:   ev.Time,
		Origin: ev.Origin,
		Raw:    ev.Record.Frame.Raw,
	})
	if err != nil {
		s.Log.Error().Err(err).Msg("capture append failed")
	}
}

// HandleStreamError implements Sink.
func (s *CaptureSink) HandleStreamError(capture.Origin, error) {}
