// internal/etatherm/codec.go
package etatherm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// Codec functions are pure: no IO, no side effects.

// ZoneParams is the static configuration of one slot.
type ZoneParams struct {
	Used  bool
	Name  string
	Shift int // calibration offset, -32..31
	Step  int // resolution multiplier, 1..4
}

// MinTemp is the lowest temperature the zone accepts.
func (p ZoneParams) MinTemp() int { return (1 + p.Shift) * p.Step }

// MaxTemp is the highest temperature the zone accepts.
func (p ZoneParams) MaxTemp() int { return (30 + p.Shift) * p.Step }

// Flag is the operating state reported with a required temperature.
type Flag uint8

const (
	FlagSummer    Flag = 0 // summer / off
	FlagHDO       Flag = 1 // schedule driven by the ripple-control tariff signal
	FlagTemporary Flag = 2 // temporary override
	FlagPermanent Flag = 3 // permanent manual
	FlagScheduled Flag = 4
)

func (f Flag) String() string {
	switch f {
	case FlagSummer:
		return "summer"
	case FlagHDO:
		return "hdo"
	case FlagTemporary:
		return "temporary"
	case FlagPermanent:
		return "permanent"
	case FlagScheduled:
		return "scheduled"
	default:
		return fmt.Sprintf("flag(%d)", uint8(f))
	}
}

// Requirement is the required temperature of a zone and why it applies.
type Requirement struct {
	Temp int
	Flag Flag
}

// TimeOfYear packs quarter-hour, hour, day and month into one comparable
// value. The device keeps no year.
type TimeOfYear uint16

// ToY stamps t. Seconds and the minutes within a quarter hour are dropped.
func ToY(t time.Time) TimeOfYear {
	return TimeOfYear(t.Minute()/15 +
		t.Hour()*4 +
		t.Day()*32*4 +
		int(t.Month())*32*32*4)
}

// ---- register payloads ----

// RegisterBytes takes the low byte of every register. The payload must hold
// exactly want registers.
func RegisterBytes(regs []uint16, want int) ([]byte, error) {
	if len(regs) != want {
		return nil, fmt.Errorf("%w: got %d registers, want %d", ErrDecodeInconsistency, len(regs), want)
	}
	out := make([]byte, len(regs))
	for i, r := range regs {
		out[i] = byte(r)
	}
	return out, nil
}

// ByteRegisters spreads b over registers, one byte per register.
func ByteRegisters(b []byte) []uint16 {
	out := make([]uint16, len(b))
	for i, v := range b {
		out[i] = uint16(v)
	}
	return out
}

// ---- decoders ----

// DecodeZoneParams decodes a 4-byte config block. Name is left empty.
func DecodeZoneParams(b []byte) (ZoneParams, error) {
	if len(b) != ConfigRegs {
		return ZoneParams{}, fmt.Errorf("%w: config block has %d bytes, want %d", ErrDecodeInconsistency, len(b), ConfigRegs)
	}

	shift := int(b[2] & shiftMask)
	shift -= 64 * (shift / 32)

	return ZoneParams{
		Used:  b[0]&usedMask != 0,
		Shift: shift,
		Step:  int((b[2]&stepMask)>>6) + 1,
	}, nil
}

// DecodeName decodes an 8-byte name block in the Windows-1250 code page,
// cut at the first NUL.
func DecodeName(b []byte) (string, error) {
	if len(b) != NameRegs {
		return "", fmt.Errorf("%w: name block has %d bytes, want %d", ErrDecodeInconsistency, len(b), NameRegs)
	}
	if i := bytes.IndexByte(b, 0x00); i >= 0 {
		b = b[:i]
	}
	out, err := charmap.Windows1250.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("etatherm: decode name: %w", err)
	}
	return string(out), nil
}

// DecodeCurrentTemp scales a measured temperature byte.
func DecodeCurrentTemp(b byte, shift, step int) int {
	return (int(b) + shift) * step
}

// DecodeRequirement splits a required-temperature byte into the 3-bit flag
// and the 5-bit level.
func DecodeRequirement(b byte, shift, step int) Requirement {
	return Requirement{
		Temp: (int(b&levelMask) + shift) * step,
		Flag: Flag(b >> 5),
	}
}

// ---- encoders ----

// TargetLevel converts a temperature to the zone's 5-bit level.
// Temperatures outside MinTemp..MaxTemp wrap silently; callers range-check.
func TargetLevel(temp float64, shift, step int) byte {
	level := int(math.Floor(temp/float64(step))) - shift
	return byte(level) & levelMask
}

// EncodeTemporaryOverride builds the 5-byte override field: the preserved top
// bits of the existing mode byte with the level, then start and end stamps.
func EncodeTemporaryOverride(existing, level byte, start, end TimeOfYear) []byte {
	out := make([]byte, ModeWriteRegs)
	out[0] = existing&overrideKeepMask | level&levelMask
	binary.BigEndian.PutUint16(out[1:3], uint16(start))
	binary.BigEndian.PutUint16(out[3:5], uint16(end))
	return out
}

// ToggleModeBytes builds the 5-byte mode field from the current one.
// Automatic clears the manual bit and resets the override window to the
// schedule marker; manual sets the bit and keeps the window.
func ToggleModeBytes(existing []byte, auto bool) ([]byte, error) {
	if len(existing) < ModeWriteRegs {
		return nil, fmt.Errorf("%w: mode field has %d bytes, want at least %d", ErrDecodeInconsistency, len(existing), ModeWriteRegs)
	}

	out := make([]byte, ModeWriteRegs)
	if auto {
		out[0] = existing[0] &^ manualBit
		copy(out[1:], scheduleWindow[:])
		return out, nil
	}

	out[0] = existing[0] | manualBit
	copy(out[1:], existing[1:ModeWriteRegs])
	return out, nil
}
