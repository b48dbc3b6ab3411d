// internal/writer/log.go
package writer

import (
	"github.com/rs/zerolog/log"

	"github.com/tamzrod/etatherm-modbus/internal/poller"
	"github.com/tamzrod/etatherm-modbus/internal/status"
)

// logWriter is the always-on sink: zone readings at debug, status
// transitions at info and seconds-in-error ticks at debug.
type logWriter struct {
	last *status.Snapshot
}

func (*logWriter) Write(res poller.PollResult) error {
	if res.Err != nil {
		return nil
	}
	for _, z := range res.Zones {
		log.Debug().
			Str("unit", res.UnitID).
			Int("zone", z.Pos).
			Str("name", z.Name).
			Int("current", z.Current).
			Int("required", z.Required).
			Str("flag", z.Flag.String()).
			Str("action", string(z.Action)).
			Msg("zone state")
	}
	return nil
}

func (w *logWriter) WriteStatus(s status.Snapshot) error {
	ev := log.Debug()
	if w.last == nil || w.last.Health != s.Health || w.last.LastErrorCode != s.LastErrorCode {
		ev = log.Info()
	}
	w.last = &s

	ev.
		Str("health", status.HealthName(s.Health)).
		Uint16("last_error_code", s.LastErrorCode).
		Uint16("seconds_in_error", s.SecondsInError).
		Msg("device status")
	return nil
}
