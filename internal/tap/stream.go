// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package tap

import (
	"time"

	"github.com/optiline/ljscope/internal/capture"
	"github.com/optiline/ljscope/pkg/ljv7"
)

// Stream decodes one direction of a tapped connection. It owns a
// reassembler and turns each extracted frame into an Event.
type Stream struct {
	origin          capture.Origin
	re              *ljv7.Reassembler
	includeReserved bool
	dead            bool
}

// NewStream builds a decoder for one direction. maxFrame of zero keeps the
// default frame-size ceiling.
func NewStream(origin capture.Origin, maxFrame uint32, includeReserved bool) *Stream {
	re := ljv7.NewReassembler()
	if maxFrame != 0 {
		re = ljv7.NewReassemblerWithLimit(maxFrame)
	}
	return &Stream{origin: origin, re: re, includeReserved: includeReserved}
}

// Origin returns the side of the tap this stream decodes.
func (s *Stream) Origin() capture.Origin {
	return s.origin
}

// Dead reports whether the stream hit an unrecoverable framing error.
func (s *Stream) Dead() bool {
	return s.dead
}

// Feed consumes the next chunk of wire bytes and returns the events for
// every frame completed by it. A non-nil error means the byte stream can
// no longer be trusted; events already extracted are still returned, and
// further feeds are ignored.
func (s *Stream) Feed(p []byte, now time.Time) ([]Event, error) {
	if s.dead {
		return nil, nil
	}
	frames, err := s.re.Feed(p)
	events := make([]Event, 0, len(frames))
	for _, f := range frames {
		rec := ljv7.DecodeFrame(f, s.includeReserved)
		rec.Time = now
		events = append(events, Event{Time: now, Origin: s.origin, Record: rec})
	}
	if err != nil {
		s.dead = true
	}
	return events, err
}
