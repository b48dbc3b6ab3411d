// internal/transport/errors.go
package transport

import "errors"

// Error taxonomy for register transactions.
// Use errors.Is to classify; concrete causes are wrapped.
var (
	// ErrTransportUnavailable means the connection could not be established.
	ErrTransportUnavailable = errors.New("transport: unavailable")

	// ErrTransportTimeout means the operation did not succeed within the
	// retry budget or the caller's deadline.
	ErrTransportTimeout = errors.New("transport: retry budget exhausted")

	// ErrDeviceError means the device answered with a protocol-level
	// exception that retrying cannot fix (illegal function/address/value).
	ErrDeviceError = errors.New("transport: device error")
)
