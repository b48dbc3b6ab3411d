// internal/etatherm/codec_test.go
package etatherm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAddresses(t *testing.T) {
	assert.Equal(t, uint16(0x1100), ConfigAddr(1))
	assert.Equal(t, uint16(0x1120), ConfigAddr(3))
	assert.Equal(t, uint16(0x11F0), ConfigAddr(16))

	assert.Equal(t, uint16(0x1103), ModeAddr(1))
	assert.Equal(t, uint16(0x11F3), ModeAddr(16))

	assert.Equal(t, uint16(0x1030), NameAddr(1))
	assert.Equal(t, uint16(0x1040), NameAddr(3))
	assert.Equal(t, uint16(0x10A8), NameAddr(16))
}

func TestDecodeZoneParams_Scenario(t *testing.T) {
	p, err := DecodeZoneParams([]byte{0x01, 0x00, 0x41, 0x00})
	require.NoError(t, err)

	assert.True(t, p.Used)
	assert.Equal(t, 1, p.Shift)
	assert.Equal(t, 2, p.Step)
	assert.Equal(t, 4, p.MinTemp())
	assert.Equal(t, 62, p.MaxTemp())
}

func TestDecodeZoneParams_ShiftSignCorrection(t *testing.T) {
	for raw := 0; raw < 64; raw++ {
		p, err := DecodeZoneParams([]byte{0x01, 0x00, byte(raw), 0x00})
		require.NoError(t, err)

		want := raw
		if raw >= 32 {
			want = raw - 64
		}
		assert.Equal(t, want, p.Shift, "raw %d", raw)
	}

	cases := map[byte]int{0: 0, 32: -32, 63: -1, 31: 31}
	for raw, want := range cases {
		p, _ := DecodeZoneParams([]byte{0x01, 0x00, raw, 0x00})
		assert.Equal(t, want, p.Shift, "raw %d", raw)
	}
}

func TestDecodeZoneParams_Step(t *testing.T) {
	for field, want := range []int{1, 2, 3, 4} {
		p, err := DecodeZoneParams([]byte{0x01, 0x00, byte(field << 6), 0x00})
		require.NoError(t, err)
		assert.Equal(t, want, p.Step)
		assert.Equal(t, 0, p.Shift)
	}
}

func TestDecodeZoneParams_UsedBits(t *testing.T) {
	for b0 := 0; b0 < 256; b0++ {
		p, err := DecodeZoneParams([]byte{byte(b0), 0xFF, 0x00, 0xFF})
		require.NoError(t, err)
		assert.Equal(t, b0&0x07 != 0, p.Used, "byte0 0x%02x", b0)
	}
}

// Rebuilding the config byte from the decoded fields lands in the same bucket.
func TestDecodeZoneParams_SemanticRoundTrip(t *testing.T) {
	for b0 := 0; b0 < 8; b0++ {
		for b2 := 0; b2 < 256; b2++ {
			p, err := DecodeZoneParams([]byte{byte(b0), 0x5A, byte(b2), 0xA5})
			require.NoError(t, err)

			var used byte
			if p.Used {
				used = 1
			}
			rebuilt := byte((p.Step-1)<<6) | byte(p.Shift)&shiftMask

			again, err := DecodeZoneParams([]byte{used, 0, rebuilt, 0})
			require.NoError(t, err)
			assert.Equal(t, p, again)
		}
	}
}

func TestDecodeZoneParams_WrongLength(t *testing.T) {
	_, err := DecodeZoneParams([]byte{0x01, 0x00, 0x41})
	require.ErrorIs(t, err, ErrDecodeInconsistency)

	_, err = DecodeZoneParams(nil)
	require.ErrorIs(t, err, ErrDecodeInconsistency)
}

func TestDecodeName(t *testing.T) {
	name, err := DecodeName([]byte{'K', 'u', 'c', 'h', 'y', 0x8A, 0x00, 'x'})
	require.NoError(t, err)
	assert.Equal(t, "KuchyŠ", name)

	// no terminator: all eight bytes
	name, err = DecodeName([]byte("Obyvak12"))
	require.NoError(t, err)
	assert.Equal(t, "Obyvak12", name)

	// Windows-1250 specific letters
	name, err = DecodeName([]byte{0xE8, 0xED, 0xF8, 0x00, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, "číř", name)

	name, err = DecodeName(make([]byte, 8))
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestDecodeName_WrongLength(t *testing.T) {
	_, err := DecodeName([]byte("short"))
	require.ErrorIs(t, err, ErrDecodeInconsistency)
}

func TestDecodeCurrentTemp(t *testing.T) {
	assert.Equal(t, 42, DecodeCurrentTemp(20, 1, 2))

	for b := 0; b < 256; b++ {
		assert.Equal(t, b, DecodeCurrentTemp(byte(b), 0, 1))
	}
}

func TestDecodeRequirement(t *testing.T) {
	r := DecodeRequirement(0x45, 1, 2)
	assert.Equal(t, FlagTemporary, r.Flag)
	assert.Equal(t, 12, r.Temp)

	r = DecodeRequirement(0x94, 0, 1) // 100 10100
	assert.Equal(t, FlagScheduled, r.Flag)
	assert.Equal(t, 20, r.Temp)
}

func TestFlagString(t *testing.T) {
	assert.Equal(t, "temporary", FlagTemporary.String())
	assert.Equal(t, "flag(7)", Flag(7).String())
}

func TestToY(t *testing.T) {
	at := time.Date(2024, time.March, 10, 14, 32, 59, 0, time.UTC)
	assert.Equal(t, TimeOfYear(13626), ToY(at))

	// midnight, 1 January
	assert.Equal(t, TimeOfYear(1*128+1*4096), ToY(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	// 31 December 23:59 is the largest stamp and still fits 16 bits
	assert.Equal(t, TimeOfYear(53215), ToY(time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)))
	assert.Less(t, uint16(ToY(at)), uint16(ToY(at.Add(15*time.Minute))))
}

func TestTargetLevel_InverseOfDecode(t *testing.T) {
	for _, zone := range []ZoneParams{
		{Shift: 0, Step: 1},
		{Shift: 1, Step: 2},
		{Shift: 5, Step: 1},
		{Shift: -3, Step: 3},
		{Shift: 2, Step: 4},
	} {
		for temp := zone.MinTemp(); temp <= zone.MaxTemp(); temp += zone.Step {
			level := TargetLevel(float64(temp), zone.Shift, zone.Step)
			assert.Equal(t, temp, DecodeCurrentTemp(level, zone.Shift, zone.Step),
				"shift=%d step=%d temp=%d", zone.Shift, zone.Step, temp)
		}
	}
}

func TestTargetLevel_Floors(t *testing.T) {
	assert.Equal(t, byte(21), TargetLevel(21.7, 0, 1))
	assert.Equal(t, byte(20), TargetLevel(43, 1, 2)) // floor(21.5) - 1
}

// Out-of-range temperatures wrap inside the 5-bit mask; they are not clamped.
func TestTargetLevel_OutOfRangeWraps(t *testing.T) {
	// zone shift=0 step=1 accepts 1..30
	assert.Equal(t, byte(0), TargetLevel(32, 0, 1))
	assert.Equal(t, byte(1), TargetLevel(33, 0, 1))
	assert.Equal(t, byte(31), TargetLevel(-1, 0, 1))
	// shift 5: temp 4 -> level -1 -> 31
	assert.Equal(t, byte(31), TargetLevel(4, 5, 1))
}

func TestEncodeTemporaryOverride(t *testing.T) {
	out := EncodeTemporaryOverride(0xFF, 0x0A, 13626, 13634)
	require.Len(t, out, 5)

	assert.Equal(t, byte(0xC0|0x0A), out[0])
	assert.Equal(t, []byte{0x35, 0x3A}, out[1:3])
	assert.Equal(t, []byte{0x35, 0x42}, out[3:5])

	// level bits of the existing byte never leak through
	out = EncodeTemporaryOverride(0x3F, 0x01, 0, 0)
	assert.Equal(t, byte(0x01), out[0])
}

func TestToggleModeBytes_Auto(t *testing.T) {
	for _, existing := range [][]byte{
		{0x00, 0, 0, 0, 0, 0},
		{0xFF, 0x12, 0x34, 0x56, 0x78, 0x9A},
		{0x25, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE},
	} {
		out, err := ToggleModeBytes(existing, true)
		require.NoError(t, err)
		require.Len(t, out, 5)

		assert.Equal(t, []byte{0x10, 0x80, 0x10, 0x80}, out[1:])
		assert.Zero(t, out[0]&0x20)
		assert.Equal(t, existing[0]&^0x20, out[0])
	}
}

func TestToggleModeBytes_Manual(t *testing.T) {
	existing := []byte{0x05, 0x12, 0x34, 0x56, 0x78, 0x9A}

	out, err := ToggleModeBytes(existing, false)
	require.NoError(t, err)

	assert.Equal(t, []byte{0x25, 0x12, 0x34, 0x56, 0x78}, out)
	assert.Equal(t, byte(0x05), existing[0], "input not mutated")
}

func TestToggleModeBytes_Short(t *testing.T) {
	_, err := ToggleModeBytes([]byte{0x05, 0x12}, true)
	require.ErrorIs(t, err, ErrDecodeInconsistency)
}

func TestRegisterBytes(t *testing.T) {
	b, err := RegisterBytes([]uint16{0x0014, 0x0145, 0x00FF}, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x14, 0x45, 0xFF}, b)

	_, err = RegisterBytes([]uint16{1, 2}, 16)
	require.ErrorIs(t, err, ErrDecodeInconsistency)

	assert.Equal(t, []uint16{0x45, 0x35, 0x3A}, ByteRegisters([]byte{0x45, 0x35, 0x3A}))
}
