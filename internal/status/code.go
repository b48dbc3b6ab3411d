// internal/status/code.go
package status

import (
	"errors"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/etatherm-modbus/internal/etatherm"
	"github.com/tamzrod/etatherm-modbus/internal/transport"
)

// ErrorCode extracts a best-effort uint16 code from a poll error.
// An empty parameter pass wins over its cause; device exception codes win
// over the transport classification.
func ErrorCode(err error) uint16 {
	if err == nil {
		return CodeNone
	}
	if errors.Is(err, etatherm.ErrNoZones) {
		return CodeNoZones
	}

	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return uint16(mbErr.ExceptionCode)
	}

	switch {
	case errors.Is(err, transport.ErrTransportUnavailable):
		return CodeTransportUnavailable
	case errors.Is(err, transport.ErrTransportTimeout):
		return CodeTransportTimeout
	case errors.Is(err, etatherm.ErrDecodeInconsistency):
		return CodeDecodeInconsistency
	}

	return CodeGeneric
}
