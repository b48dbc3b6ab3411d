// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/etatherm-modbus/internal/poller"
)

// fanout delivers one poll result to every sink.
// A failing sink does not stop the others.
type fanout struct {
	names []string
	sinks []Writer
}

// New combines named sinks into one Writer.
func New(sinks map[string]Writer) Writer {
	f := &fanout{}
	for _, name := range sortedNames(sinks) {
		f.names = append(f.names, name)
		f.sinks = append(f.sinks, sinks[name])
	}
	return f
}

func (f *fanout) Write(res poller.PollResult) error {
	var errs []string

	for i, s := range f.sinks {
		if err := s.Write(res); err != nil {
			errs = append(errs, fmt.Sprintf("writer: sink=%s unit=%s err=%v", f.names[i], res.UnitID, err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
