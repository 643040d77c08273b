// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

// ProfileInfo is the fixed header preceding a run of profile records. The
// unit scale is in steps of 0.01 µm and applies to FirstPointX, XIncrement
// and every point sample.
type ProfileInfo struct {
	PointsPerProfile uint16
	UnitScale        uint16
	FirstPointX      int32
	XIncrement       int32
}

// FirstPointMicrons returns the X position of the first point in µm
func (i ProfileInfo) FirstPointMicrons() float64 {
	return float64(i.FirstPointX) * float64(i.UnitScale) * UnitScaleMicrons
}

// XIncrementMicrons returns the X step between points in µm
func (i ProfileInfo) XIncrementMicrons() float64 {
	return float64(i.XIncrement) * float64(i.UnitScale) * UnitScaleMicrons
}

// PointMicrons converts a raw point sample to µm
func (i ProfileInfo) PointMicrons(raw uint32) float64 {
	return float64(raw) * float64(i.UnitScale) * UnitScaleMicrons
}

// ProfileRecord is one scan line: status counters plus the packed point
// array. Trailer holds the 4 undocumented bytes closing each record; they
// are preserved opaque rather than interpreted.
type ProfileRecord struct {
	Flags        uint32
	TriggerCount uint32
	EncoderCount uint32
	Points       []uint32
	Trailer      [4]byte
}

// ProfileSet is the profile payload embedded in a GET_PROFILES reply.
type ProfileSet struct {
	Current      uint32 // current profile number
	OldestUnread uint32 // oldest profile not yet read
	OldestRead   uint32 // oldest profile read this time
	Count        uint8
	Info         ProfileInfo
	Profiles     []ProfileRecord
}

// decodeProfileInfo decodes one fixed profile info header
func decodeProfileInfo(r *Reader) (ProfileInfo, error) {
	var info ProfileInfo
	var err error
	if info.PointsPerProfile, err = r.U16(); err != nil {
		return info, err
	}
	if info.UnitScale, err = r.U16(); err != nil {
		return info, err
	}
	if info.FirstPointX, err = r.I32(); err != nil {
		return info, err
	}
	info.XIncrement, err = r.I32()
	return info, err
}

// DecodeProfileData decodes a profile info header followed by count
// records. Each record is the 24-byte fixed part, ceil(points*20/8) packed
// point bytes and the opaque 4-byte trailer.
func DecodeProfileData(r *Reader, count int) (ProfileInfo, []ProfileRecord, error) {
	info, err := decodeProfileInfo(r)
	if err != nil {
		return info, nil, err
	}

	records := make([]ProfileRecord, 0, count)
	for n := 0; n < count; n++ {
		rec, err := decodeProfileRecord(r, int(info.PointsPerProfile))
		if err != nil {
			return info, records, err
		}
		records = append(records, rec)
	}
	return info, records, nil
}

// decodeProfileRecord decodes one profile record with the given point count
func decodeProfileRecord(r *Reader, points int) (ProfileRecord, error) {
	var rec ProfileRecord
	var err error

	if rec.Flags, err = r.U32(); err != nil {
		return rec, err
	}
	if rec.TriggerCount, err = r.U32(); err != nil {
		return rec, err
	}
	if rec.EncoderCount, err = r.U32(); err != nil {
		return rec, err
	}
	if err = r.Skip(12); err != nil {
		return rec, err
	}
	if rec.Points, err = r.Packed20(points); err != nil {
		return rec, err
	}

	trailer, err := r.Bytes(ProfileTrailerSize)
	if err != nil {
		return rec, err
	}
	copy(rec.Trailer[:], trailer)
	return rec, nil
}
