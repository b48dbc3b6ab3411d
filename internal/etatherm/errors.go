// internal/etatherm/errors.go
package etatherm

import "errors"

var (
	// ErrDecodeInconsistency is returned when a payload does not have the
	// fixed size its register block requires.
	ErrDecodeInconsistency = errors.New("etatherm: payload size mismatch")

	// ErrPartialConfig marks a parameter pass where some slots could not be read.
	ErrPartialConfig = errors.New("etatherm: zone parameters partially read")

	// ErrNoZones is returned when no slot parameters could be read at all.
	ErrNoZones = errors.New("etatherm: no zone parameters available")

	// ErrUnknownZone is returned for a position outside 1..16 or an unused slot.
	ErrUnknownZone = errors.New("etatherm: unknown zone")
)
