// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package capture

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/optiline/ljscope/pkg/ljv7"
)

func sampleFrame(op ljv7.Opcode) []byte {
	return ljv7.EncodeRequest(3, op, nil)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.ljcap")
	w, err := OpenWriter(path, "192.168.0.10:24691")
	if err != nil {
		t.Fatal(err)
	}
	want := []Entry{
		{Time: time.Unix(100, 0).UTC(), Origin: OriginClient, Raw: sampleFrame(ljv7.OpGetProfiles)},
		{Time: time.Unix(101, 500).UTC(), Origin: OriginSensor, Raw: sampleFrame(ljv7.OpDeviceInfo)},
		{Time: time.Unix(102, 0).UTC(), Origin: OriginClient, Raw: sampleFrame(ljv7.OpChangeProgram)},
	}
	for _, e := range want {
		if err := w.Append(e); err != nil {
			t.Fatal(err)
		}
	}
	if w.Count() != len(want) {
		t.Errorf("Count() = %d, want %d", w.Count(), len(want))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	hdr, got, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Magic != FileMagic || hdr.Version != FileVersion {
		t.Errorf("header = %+v", hdr)
	}
	if hdr.Sensor != "192.168.0.10:24691" {
		t.Errorf("header sensor = %q", hdr.Sensor)
	}
	if len(got) != len(want) {
		t.Fatalf("read %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Origin != want[i].Origin {
			t.Errorf("entry %d origin = %v, want %v", i, got[i].Origin, want[i].Origin)
		}
		if !bytes.Equal(got[i].Raw, want[i].Raw) {
			t.Errorf("entry %d raw bytes differ", i)
		}
		if !got[i].Time.Equal(want[i].Time) {
			t.Errorf("entry %d time = %v, want %v", i, got[i].Time, want[i].Time)
		}
	}
}

func TestEmptyCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.ljcap")
	w, err := OpenWriter(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() on empty capture = %v, want io.EOF", err)
	}
}

func TestRejectsWrongMagic(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "")
	if err != nil {
		t.Fatal(err)
	}
	_ = w
	data := buf.Bytes()
	// Corrupt the magic string in place.
	idx := bytes.Index(data, []byte(FileMagic))
	if idx < 0 {
		t.Fatal("magic not found in encoded header")
	}
	data[idx] = 'X'
	if _, err := NewReader(bytes.NewReader(data)); !errors.Is(err, ErrBadMagic) {
		t.Errorf("NewReader = %v, want ErrBadMagic", err)
	}
}

func TestRejectsTruncatedHeader(t *testing.T) {
	if _, err := NewReader(bytes.NewReader(nil)); err == nil {
		t.Error("expected error on empty stream")
	}
}

func TestWriterUsesConfiguredEncoding(t *testing.T) {
	// The writer must encode through the capture EncMode, not the package
	// defaults: times are RFC3339Nano strings and survive with full
	// precision.
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "")
	if err != nil {
		t.Fatal(err)
	}
	stamp := time.Date(2026, 8, 31, 12, 30, 15, 123456789, time.UTC)
	if err := w.Append(Entry{Time: stamp, Origin: OriginSensor, Raw: sampleFrame(ljv7.OpAutoZero)}); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	e, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if !e.Time.Equal(stamp) {
		t.Errorf("entry time = %v, want %v", e.Time, stamp)
	}
	if !bytes.Contains(buf.Bytes(), []byte("2026-08-31T12:30:15.123456789Z")) {
		t.Error("entry time not encoded as an RFC3339Nano string")
	}
}

func TestOriginString(t *testing.T) {
	if OriginClient.String() != "client" || OriginSensor.String() != "sensor" {
		t.Error("origin labels wrong")
	}
	if Origin(7).String() != "origin(7)" {
		t.Errorf("unknown origin = %q", Origin(7).String())
	}
}
