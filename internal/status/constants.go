// internal/status/constants.go
package status

// Device status vocabulary.
// These values are published to consumers and MUST NOT be configurable.

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a device answering polls.
const HealthOK uint16 = 1

// HealthError represents a device whose last poll failed.
const HealthError uint16 = 2

// ---- LIMITS ----

// MaxSecondsInError is where seconds_in_error saturates. It never wraps.
const MaxSecondsInError uint16 = 65535

// ---- ERROR CODES ----
// Codes 1..255 are Modbus exception codes passed through from the device.

const (
	CodeNone                 uint16 = 0
	CodeTransportUnavailable uint16 = 0x0100
	CodeTransportTimeout     uint16 = 0x0101
	CodeDecodeInconsistency  uint16 = 0x0102
	CodeNoZones              uint16 = 0x0103
	CodeGeneric              uint16 = 0xFFFF
)
