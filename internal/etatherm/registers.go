// internal/etatherm/registers.go
package etatherm

// Register map of the Etatherm controller.
// These values are fixed by the device and MUST NOT be configurable.
// Every register carries one byte of payload in its low half.

// ---- ZONE SLOTS ----

// Slots is the fixed number of zone slots per device (1-based positions).
const Slots = 16

// ---- PER-ZONE CONFIG BLOCK ----

// ConfigBase is the config block of slot 1; each further slot is ConfigStride higher.
const ConfigBase uint16 = 0x1100

// ConfigStride is the distance between two slots' config blocks.
const ConfigStride uint16 = 0x10

// ConfigRegs is the size of the used/shift/step config field.
const ConfigRegs = 4

// ModeOffset is the offset of the mode/override field inside a config block.
const ModeOffset uint16 = 0x03

// ModeReadRegs is the size of the mode field read before toggling the mode.
const ModeReadRegs = 6

// ModeWriteRegs is the size written back for a mode toggle or an override.
const ModeWriteRegs = 5

// ---- PER-ZONE NAME BLOCK ----

// NameBase is the name block of slot 1.
const NameBase uint16 = 0x1030

// NameRegs is the size of one name block (one character per register).
const NameRegs = 8

// ---- BULK READINGS ----

// CurrentTempBase holds one measured temperature per slot.
const CurrentTempBase uint16 = 0x60

// RequiredTempBase holds one required temperature + flag per slot.
const RequiredTempBase uint16 = 0x70

// ---- BIT FIELDS ----

const (
	usedMask  byte = 0x07
	shiftMask byte = 0x3F
	stepMask  byte = 0xC0
	levelMask byte = 0x1F

	// overrideKeepMask selects the bits of the mode byte an override preserves.
	overrideKeepMask byte = 0xC0

	// manualBit set in the mode byte means permanent manual temperature.
	manualBit byte = 0x20
)

// scheduleWindow is written into the override window to return a zone to its schedule.
var scheduleWindow = [4]byte{0x10, 0x80, 0x10, 0x80}

// ConfigAddr returns the config block address of slot pos.
func ConfigAddr(pos int) uint16 {
	return ConfigBase + uint16(pos-1)*ConfigStride
}

// ModeAddr returns the mode/override address of slot pos.
func ModeAddr(pos int) uint16 {
	return ConfigAddr(pos) + ModeOffset
}

// NameAddr returns the name block address of slot pos.
func NameAddr(pos int) uint16 {
	return NameBase + uint16(pos-1)*NameRegs
}
