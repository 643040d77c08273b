// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package capture

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Reader iterates over the entries of a capture stream.
type Reader struct {
	dec    *cbor.Decoder
	hdr    Header
	closer io.Closer
}

// NewReader wraps r and reads the capture header.
func NewReader(r io.Reader) (*Reader, error) {
	dec := cbor.NewDecoder(r)
	var hdr Header
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("capture: read header: %w", err)
	}
	if hdr.Magic != FileMagic {
		return nil, ErrBadMagic
	}
	if hdr.Version != FileVersion {
		return nil, fmt.Errorf("capture: unsupported file version %d", hdr.Version)
	}
	return &Reader{dec: dec, hdr: hdr}, nil
}

// Header returns the capture header.
func (r *Reader) Header() Header {
	return r.hdr
}

// Next returns the next entry, or io.EOF after the last one.
func (r *Reader) Next() (Entry, error) {
	var e Entry
	if err := r.dec.Decode(&e); err != nil {
		if err == io.EOF {
			return Entry{}, io.EOF
		}
		return Entry{}, fmt.Errorf("capture: read entry: %w", err)
	}
	return e, nil
}

// Close closes the underlying file when the reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
