// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package capture

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Writer appends capture entries to an underlying stream. It is safe for
// use from multiple goroutines, which matters because the tap records both
// directions of a connection concurrently.
type Writer struct {
	mu     sync.Mutex
	enc    *cbor.Encoder
	closer io.Closer
	count  int
}

// NewWriter wraps w and immediately writes the capture header.
func NewWriter(w io.Writer, sensor string) (*Writer, error) {
	enc := captureEncMode.NewEncoder(w)
	hdr := Header{
		Magic:   FileMagic,
		Version: FileVersion,
		Created: time.Now().UTC(),
		Sensor:  sensor,
	}
	if err := enc.Encode(hdr); err != nil {
		return nil, fmt.Errorf("capture: write header: %w", err)
	}
	return &Writer{enc: enc}, nil
}

// Append writes one frame to the capture.
func (w *Writer) Append(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(e); err != nil {
		return fmt.Errorf("capture: write entry: %w", err)
	}
	w.count++
	return nil
}

// Count reports how many entries have been written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close closes the underlying file when the writer owns one.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

var captureEncMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	var err error
	captureEncMode, err = opts.EncMode()
	if err != nil {
		panic(err)
	}
}
