// internal/writer/types.go
package writer

import (
	"github.com/tamzrod/etatherm-modbus/internal/poller"
	"github.com/tamzrod/etatherm-modbus/internal/status"
)

// Writer delivers poll snapshots to one sink.
type Writer interface {
	Write(res poller.PollResult) error
}

// StatusWriter is the delivery-only contract for device status.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}
