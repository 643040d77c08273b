// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package ljv7

// CommandPayload is the closed variant set of decoded command bodies. The
// shape differs by direction within the same opcode, so request and reply
// payloads are distinct types.
type CommandPayload interface {
	CommandOpcode() Opcode
}

// Unparsed covers opcodes with no specific decoder, empty bodies, and the
// remainder of a body whose specific decode was abandoned.
type Unparsed struct {
	Op   Opcode
	Data []byte
}

// CommandOpcode returns the opcode this payload belongs to
func (p Unparsed) CommandOpcode() Opcode { return p.Op }

// DeviceInfoReply is the undocumented 0x01 reply: model strings surrounded
// by blobs whose meaning is unknown.
type DeviceInfoReply struct {
	Unknown    []byte // 16 bytes
	Model      string // 32 bytes, NUL padded
	Unknown2   uint16
	Unknown3   uint16
	SensorHead string // 32 bytes, NUL padded
}

// CommandOpcode returns the opcode this payload belongs to
func (p DeviceInfoReply) CommandOpcode() Opcode { return OpDeviceInfo }

// AutoZeroRequest is the 0x24 request
type AutoZeroRequest struct {
	Designation  uint8
	TargetMethod uint8
	Target       uint32
}

// CommandOpcode returns the opcode this payload belongs to
func (p AutoZeroRequest) CommandOpcode() Opcode { return OpAutoZero }

// GetSettingRequest is the 0x31 request. Value carries any trailing bytes
// beyond the fixed fields; it is normally empty.
type GetSettingRequest struct {
	Level    uint8
	Type     uint8
	Category uint8
	Item     uint8
	Target   uint32
	Value    []byte
}

// CommandOpcode returns the opcode this payload belongs to
func (p GetSettingRequest) CommandOpcode() Opcode { return OpGetSetting }

// GetSettingReply is the 0x31 reply. The value blob is opaque: delimiting
// it needs only the declared body length, not the settings taxonomy.
type GetSettingReply struct {
	Value []byte
}

// CommandOpcode returns the opcode this payload belongs to
func (p GetSettingReply) CommandOpcode() Opcode { return OpGetSetting }

// SetSettingRequest is the 0x32 request with its trailing opaque value blob
type SetSettingRequest struct {
	Level    uint8
	Type     uint8
	Category uint8
	Item     uint8
	Target   uint32
	Value    []byte
}

// CommandOpcode returns the opcode this payload belongs to
func (p SetSettingRequest) CommandOpcode() Opcode { return OpSetSetting }

// SetSettingReply is the 0x32 reply
type SetSettingReply struct {
	DetailedError uint32
}

// CommandOpcode returns the opcode this payload belongs to
func (p SetSettingReply) CommandOpcode() Opcode { return OpSetSetting }

// ReflectSettingRequest is the 0x33 request
type ReflectSettingRequest struct {
	Destination uint8
}

// CommandOpcode returns the opcode this payload belongs to
func (p ReflectSettingRequest) CommandOpcode() Opcode { return OpReflectSetting }

// ReflectSettingReply is the 0x33 reply
type ReflectSettingReply struct {
	DetailedError uint32
}

// CommandOpcode returns the opcode this payload belongs to
func (p ReflectSettingReply) CommandOpcode() Opcode { return OpReflectSetting }

// MemoryAccessReply is the 0x34 reply
type MemoryAccessReply struct {
	Result MemoryAccessResult
}

// CommandOpcode returns the opcode this payload belongs to
func (p MemoryAccessReply) CommandOpcode() Opcode { return OpCheckMemoryAccess }

// ChangeProgramRequest is the 0x39 request
type ChangeProgramRequest struct {
	Program uint8
}

// CommandOpcode returns the opcode this payload belongs to
func (p ChangeProgramRequest) CommandOpcode() Opcode { return OpChangeProgram }

// GetProfilesRequest is the 0x42 request
type GetProfilesRequest struct {
	Bank          uint8
	GetMode       uint8
	ProfileCount  uint32
	DemandedCount uint8
	EraseFlag     uint8
}

// CommandOpcode returns the opcode this payload belongs to
func (p GetProfilesRequest) CommandOpcode() Opcode { return OpGetProfiles }

// GetProfilesReply is the 0x42 reply carrying the profile set
type GetProfilesReply struct {
	Set ProfileSet
}

// CommandOpcode returns the opcode this payload belongs to
func (p GetProfilesReply) CommandOpcode() Opcode { return OpGetProfiles }

// PrepareHighSpeedRequest is the 0x47 request
type PrepareHighSpeedRequest struct {
	StartPosition uint8
}

// CommandOpcode returns the opcode this payload belongs to
func (p PrepareHighSpeedRequest) CommandOpcode() Opcode { return OpPrepareHighSpeed }

// PrepareHighSpeedReply is the 0x47 reply. Heads holds one profile info
// header per sensor head, repeated until the declared body length is
// exhausted; the wire format carries no explicit count.
type PrepareHighSpeedReply struct {
	StartCode uint32
	Heads     []ProfileInfo
}

// CommandOpcode returns the opcode this payload belongs to
func (p PrepareHighSpeedReply) CommandOpcode() Opcode { return OpPrepareHighSpeed }

// StartHighSpeedRequest is the 0xA0 request. Marker echoes the prepare
// opcode (0x47) as a fixed byte.
type StartHighSpeedRequest struct {
	Marker    uint8
	StartCode uint32
}

// CommandOpcode returns the opcode this payload belongs to
func (p StartHighSpeedRequest) CommandOpcode() Opcode { return OpStartHighSpeed }

// inconsistency builds the error for length accounting that does not
// balance against the declared body length.
func inconsistency(ctx DecodeContext, op Opcode, required int) *DecodeInconsistencyError {
	return &DecodeInconsistencyError{
		Opcode:    op,
		Direction: ctx.Direction,
		Expected:  required,
		Actual:    int(ctx.BodyLength),
	}
}

// trailing computes the length of a variable trailing segment from the
// declared body length minus the bytes every fixed field accounts for.
func trailing(ctx DecodeContext, op Opcode, fixed int, r *Reader) (int, error) {
	n := int(ctx.BodyLength) - fixed
	if n < 0 || n > r.Remaining() {
		return 0, inconsistency(ctx, op, fixed+max(n, 0))
	}
	return n, nil
}

func decodeDeviceInfoReply(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	var p DeviceInfoReply
	var err error
	if p.Unknown, err = r.Bytes(16); err != nil {
		return nil, err
	}
	if p.Model, err = r.FixedString(32); err != nil {
		return nil, err
	}
	if p.Unknown2, err = r.U16(); err != nil {
		return nil, err
	}
	if p.Unknown3, err = r.U16(); err != nil {
		return nil, err
	}
	if p.SensorHead, err = r.FixedString(32); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeAutoZeroRequest(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	var p AutoZeroRequest
	var err error
	if p.Designation, err = r.U8(); err != nil {
		return nil, err
	}
	if p.TargetMethod, err = r.U8(); err != nil {
		return nil, err
	}
	if err = r.Skip(2); err != nil {
		return nil, err
	}
	if p.Target, err = r.U32(); err != nil {
		return nil, err
	}
	return p, nil
}

// decodeSettingAddress decodes the level/type/category/item/target tuple
// shared by the setting commands.
func decodeSettingAddress(r *Reader) (level, typ, category, item uint8, target uint32, err error) {
	if level, err = r.U8(); err != nil {
		return
	}
	if err = r.Skip(3); err != nil {
		return
	}
	if typ, err = r.U8(); err != nil {
		return
	}
	if category, err = r.U8(); err != nil {
		return
	}
	if item, err = r.U8(); err != nil {
		return
	}
	if err = r.Skip(1); err != nil {
		return
	}
	target, err = r.U32()
	return
}

func decodeGetSettingRequest(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	var p GetSettingRequest
	var err error
	if p.Level, p.Type, p.Category, p.Item, p.Target, err = decodeSettingAddress(r); err != nil {
		return nil, err
	}
	// Fixed part: 4-byte prologue + 12 bytes of address fields.
	n, err := trailing(ctx, OpGetSetting, RequestPrologueSize+12, r)
	if err != nil {
		return nil, err
	}
	if p.Value, err = r.Bytes(n); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeGetSettingReply(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	var p GetSettingReply
	if err := r.Skip(4); err != nil {
		return nil, err
	}
	n, err := trailing(ctx, OpGetSetting, ReplyPrologueSize+4, r)
	if err != nil {
		return nil, err
	}
	if p.Value, err = r.Bytes(n); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeSetSettingRequest(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	var p SetSettingRequest
	var err error
	if p.Level, p.Type, p.Category, p.Item, p.Target, err = decodeSettingAddress(r); err != nil {
		return nil, err
	}
	n, err := trailing(ctx, OpSetSetting, RequestPrologueSize+12, r)
	if err != nil {
		return nil, err
	}
	if p.Value, err = r.Bytes(n); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeSetSettingReply(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	code, err := r.U32()
	if err != nil {
		return nil, err
	}
	return SetSettingReply{DetailedError: code}, nil
}

func decodeReflectSettingRequest(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	dest, err := r.U8()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(3); err != nil {
		return nil, err
	}
	return ReflectSettingRequest{Destination: dest}, nil
}

func decodeReflectSettingReply(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	code, err := r.U32()
	if err != nil {
		return nil, err
	}
	return ReflectSettingReply{DetailedError: code}, nil
}

func decodeMemoryAccessReply(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	result, err := r.U8()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(3); err != nil {
		return nil, err
	}
	return MemoryAccessReply{Result: MemoryAccessResult(result)}, nil
}

func decodeChangeProgramRequest(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	program, err := r.U8()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(3); err != nil {
		return nil, err
	}
	return ChangeProgramRequest{Program: program}, nil
}

func decodeGetProfilesRequest(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	var p GetProfilesRequest
	var err error
	if p.Bank, err = r.U8(); err != nil {
		return nil, err
	}
	if p.GetMode, err = r.U8(); err != nil {
		return nil, err
	}
	if err = r.Skip(2); err != nil {
		return nil, err
	}
	if p.ProfileCount, err = r.U32(); err != nil {
		return nil, err
	}
	if p.DemandedCount, err = r.U8(); err != nil {
		return nil, err
	}
	if p.EraseFlag, err = r.U8(); err != nil {
		return nil, err
	}
	if err = r.Skip(2); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeGetProfilesReply(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	var p GetProfilesReply
	var err error
	if p.Set.Current, err = r.U32(); err != nil {
		return nil, err
	}
	if p.Set.OldestUnread, err = r.U32(); err != nil {
		return nil, err
	}
	if p.Set.OldestRead, err = r.U32(); err != nil {
		return nil, err
	}
	if p.Set.Count, err = r.U8(); err != nil {
		return nil, err
	}
	if err = r.Skip(11); err != nil {
		return nil, err
	}
	if p.Set.Count == 0 {
		return p, nil
	}
	p.Set.Info, p.Set.Profiles, err = DecodeProfileData(r, int(p.Set.Count))
	if err != nil {
		return nil, err
	}
	return p, nil
}

func decodePrepareHighSpeedRequest(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	pos, err := r.U8()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(3); err != nil {
		return nil, err
	}
	return PrepareHighSpeedRequest{StartPosition: pos}, nil
}

func decodePrepareHighSpeedReply(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	var p PrepareHighSpeedReply
	if err := r.Skip(4); err != nil {
		return nil, err
	}
	var err error
	if p.StartCode, err = r.U32(); err != nil {
		return nil, err
	}
	if err = r.Skip(8); err != nil {
		return nil, err
	}
	// One info header per sensor head until the body is exhausted; the
	// layout carries no head count.
	for r.Remaining() >= ProfileInfoSize {
		info, err := decodeProfileInfo(r)
		if err != nil {
			return nil, err
		}
		p.Heads = append(p.Heads, info)
	}
	return p, nil
}

func decodeStartHighSpeedRequest(ctx DecodeContext, r *Reader) (CommandPayload, error) {
	var p StartHighSpeedRequest
	var err error
	if p.Marker, err = r.U8(); err != nil {
		return nil, err
	}
	if err = r.Skip(3); err != nil {
		return nil, err
	}
	if p.StartCode, err = r.U32(); err != nil {
		return nil, err
	}
	return p, nil
}
