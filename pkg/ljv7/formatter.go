// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

import (
	"fmt"
	"strings"
)

// FormatRecord formats a decoded record into a human-readable block.
// Rendering is a pure function of the record; decoding never formats.
func FormatRecord(rec *Record) string {
	var b strings.Builder

	timestamp := rec.Time.Format("15:04:05.000")
	fmt.Fprintf(&b, "[%s] %s %s (0x%02X) ver=%d bodyLen=%d\n",
		timestamp, rec.Header.Direction, rec.Body.Opcode, uint8(rec.Body.Opcode),
		rec.Header.Version, rec.Header.BodyLength)

	if rec.Header.Direction == DirectionReply {
		fmt.Fprintf(&b, "  Return: 0x%02X, Status: 0x%02X, Program: %d\n",
			rec.Body.ReturnCode, rec.Body.ControllerStatus, rec.Body.ActiveProgram)
	}

	b.WriteString(FormatPayload(rec.Body.Payload))

	if len(rec.Body.Residual) > 0 {
		fmt.Fprintf(&b, "  Residual: %d bytes % X\n", len(rec.Body.Residual), truncateBytes(rec.Body.Residual, 16))
	}
	for _, span := range rec.Body.Reserved {
		fmt.Fprintf(&b, "  Reserved @%d: % X\n", span.Offset, span.Bytes)
	}
	for _, anomaly := range rec.Anomalies {
		fmt.Fprintf(&b, "  ANOMALY: %v\n", anomaly)
	}

	return b.String()
}

// FormatPayload formats one command payload
func FormatPayload(payload CommandPayload) string {
	switch p := payload.(type) {
	case Unparsed:
		if len(p.Data) == 0 {
			return "  (no fields)\n"
		}
		return fmt.Sprintf("  Unparsed: %d bytes % X\n", len(p.Data), truncateBytes(p.Data, 16))

	case DeviceInfoReply:
		return fmt.Sprintf("  Model: %q, Sensor Head: %q\n", p.Model, p.SensorHead)

	case AutoZeroRequest:
		return fmt.Sprintf("  Designation: %d, Method: %d, Target: 0x%08X\n",
			p.Designation, p.TargetMethod, p.Target)

	case GetSettingRequest:
		return fmt.Sprintf("  Level: %d, Type: %d, Category: %d, Item: %d, Target: 0x%08X\n",
			p.Level, p.Type, p.Category, p.Item, p.Target)

	case GetSettingReply:
		return fmt.Sprintf("  Value: %d bytes % X\n", len(p.Value), truncateBytes(p.Value, 16))

	case SetSettingRequest:
		return fmt.Sprintf("  Level: %d, Type: %d, Category: %d, Item: %d, Target: 0x%08X, Value: %d bytes\n",
			p.Level, p.Type, p.Category, p.Item, p.Target, len(p.Value))

	case SetSettingReply:
		return fmt.Sprintf("  Detailed Error: 0x%08X\n", p.DetailedError)

	case ReflectSettingRequest:
		return fmt.Sprintf("  Destination: %d\n", p.Destination)

	case ReflectSettingReply:
		return fmt.Sprintf("  Detailed Error: 0x%08X\n", p.DetailedError)

	case MemoryAccessReply:
		return fmt.Sprintf("  Result: %s (%d)\n", p.Result, uint8(p.Result))

	case ChangeProgramRequest:
		return fmt.Sprintf("  Program: %d\n", p.Program)

	case GetProfilesRequest:
		return fmt.Sprintf("  Bank: %d, Mode: %d, Profile: %d, Demanded: %d, Erase: %d\n",
			p.Bank, p.GetMode, p.ProfileCount, p.DemandedCount, p.EraseFlag)

	case GetProfilesReply:
		return formatProfileSet(p.Set)

	case PrepareHighSpeedRequest:
		return fmt.Sprintf("  Start Position: %d\n", p.StartPosition)

	case PrepareHighSpeedReply:
		var b strings.Builder
		fmt.Fprintf(&b, "  Start Code: 0x%08X, Heads: %d\n", p.StartCode, len(p.Heads))
		for i, info := range p.Heads {
			fmt.Fprintf(&b, "    Head %d: %s\n", i, formatProfileInfo(info))
		}
		return b.String()

	case StartHighSpeedRequest:
		return fmt.Sprintf("  Marker: 0x%02X, Start Code: 0x%08X\n", p.Marker, p.StartCode)

	default:
		return fmt.Sprintf("  Payload: %v\n", payload)
	}
}

// formatProfileSet summarizes a profile set without dumping every sample
func formatProfileSet(set ProfileSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Profiles: current=%d oldestUnread=%d oldestRead=%d count=%d\n",
		set.Current, set.OldestUnread, set.OldestRead, set.Count)
	if set.Count == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "  Info: %s\n", formatProfileInfo(set.Info))
	for i, rec := range set.Profiles {
		fmt.Fprintf(&b, "    Profile %d: flags=0x%08X trigger=%d encoder=%d points=%d",
			i, rec.Flags, rec.TriggerCount, rec.EncoderCount, len(rec.Points))
		if len(rec.Points) > 0 {
			fmt.Fprintf(&b, " first=%.2fµm", set.Info.PointMicrons(rec.Points[0]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatProfileInfo renders an info header with unit conversion applied
func formatProfileInfo(info ProfileInfo) string {
	return fmt.Sprintf("points=%d scale=%d firstX=%.2fµm incX=%.2fµm",
		info.PointsPerProfile, info.UnitScale,
		info.FirstPointMicrons(), info.XIncrementMicrons())
}

// truncateBytes limits hex dumps of opaque blobs
func truncateBytes(data []byte, n int) []byte {
	if len(data) <= n {
		return data
	}
	return data[:n]
}
