// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

// Package capture reads and writes ljscope capture files: a CBOR stream of
// timestamped raw frames, one header record followed by one record per frame.
// Frames are stored exactly as they crossed the wire, so a capture can be
// re-decoded later with different options or replayed against the decoder.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// FileMagic identifies a capture file in its header record.
const FileMagic = "LJSCOPE"

// FileVersion is bumped when the record layout changes.
const FileVersion = 1

// Origin tells which side of the tap produced a frame.
type Origin uint8

const (
	// OriginClient marks frames sent by the client toward the sensor.
	OriginClient Origin = 0
	// OriginSensor marks frames sent by the sensor toward the client.
	OriginSensor Origin = 1
)

// String returns a short label for the origin.
func (o Origin) String() string {
	switch o {
	case OriginClient:
		return "client"
	case OriginSensor:
		return "sensor"
	default:
		return fmt.Sprintf("origin(%d)", uint8(o))
	}
}

// Header is the first record of every capture file.
type Header struct {
	Magic   string    `cbor:"1,keyasint"`
	Version int       `cbor:"2,keyasint"`
	Created time.Time `cbor:"3,keyasint"`
	// Sensor is the controller address the capture was taken against,
	// empty when unknown.
	Sensor string `cbor:"4,keyasint,omitempty"`
}

// Entry is one captured frame.
type Entry struct {
	Time   time.Time `cbor:"1,keyasint"`
	Origin Origin    `cbor:"2,keyasint"`
	// Raw is the complete frame including its 4-byte length prefix.
	Raw []byte `cbor:"3,keyasint"`
}

// ErrBadMagic reports a file that is not an ljscope capture.
var ErrBadMagic = errors.New("capture: not an ljscope capture file")

// OpenWriter creates (or truncates) a capture file at path and writes the
// header record.
func OpenWriter(path, sensor string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("capture: create %s: %w", path, err)
	}
	w, err := NewWriter(f, sensor)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// OpenReader opens the capture file at path and validates its header.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", path, err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// ReadAll loads every entry of the capture at path into memory.
func ReadAll(path string) (Header, []Entry, error) {
	r, err := OpenReader(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer r.Close()

	var entries []Entry
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return r.Header(), entries, nil
		}
		if err != nil {
			return r.Header(), entries, err
		}
		entries = append(entries, e)
	}
}
