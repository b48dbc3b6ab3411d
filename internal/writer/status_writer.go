// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/etatherm-modbus/internal/status"
)

// statusFanout delivers device status to every status sink.
// Unchanged snapshots are skipped per sink; a sink that failed gets the
// next snapshot even if it did not change.
type statusFanout struct {
	names []string
	sinks []*statusSink
}

type statusSink struct {
	w        StatusWriter
	needFull bool
	last     status.Snapshot
}

// NewStatus combines named status sinks into one StatusWriter.
func NewStatus(sinks map[string]StatusWriter) StatusWriter {
	f := &statusFanout{}
	for _, name := range sortedNames(sinks) {
		f.names = append(f.names, name)
		f.sinks = append(f.sinks, &statusSink{w: sinks[name], needFull: true})
	}
	return f
}

// WriteStatus is driven by one goroutine only.
func (f *statusFanout) WriteStatus(s status.Snapshot) error {
	// HARD INVARIANT: seconds_in_error MUST NOT wrap
	if s.SecondsInError > status.MaxSecondsInError {
		s.SecondsInError = status.MaxSecondsInError
	}

	var errs []string

	for i, sk := range f.sinks {
		if !sk.needFull && sk.last == s {
			continue
		}
		if err := sk.w.WriteStatus(s); err != nil {
			// Any failure introduces doubt: re-assert on the next call.
			sk.needFull = true
			errs = append(errs, fmt.Sprintf("status writer: sink=%s err=%v", f.names[i], err))
			continue
		}
		sk.needFull = false
		sk.last = s
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
