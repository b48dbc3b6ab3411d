// internal/writer/statsd/writer.go
package statsd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	dogstatsd "github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"

	"github.com/tamzrod/etatherm-modbus/internal/config"
	"github.com/tamzrod/etatherm-modbus/internal/poller"
	"github.com/tamzrod/etatherm-modbus/internal/status"
	"github.com/tamzrod/etatherm-modbus/internal/transport"
)

// Gauger is the DogStatsD surface this sink uses.
type Gauger interface {
	Gauge(name string, value float64, tags []string, rate float64) error
}

// StatsSource exposes transaction counters, normally *transport.Executor.
type StatsSource interface {
	Stats() transport.Stats
}

// Writer emits zone gauges per poll, executor counters and device health.
type Writer struct {
	g     Gauger
	stats StatsSource
}

func New(g Gauger, stats StatsSource) *Writer {
	return &Writer{g: g, stats: stats}
}

// Connect creates a DogStatsD client with namespace and global tags applied.
func Connect(cfg config.DatadogConfig) (*dogstatsd.Client, error) {
	c, err := dogstatsd.New(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("statsd: %w", err)
	}
	c.Namespace = cfg.Namespace
	c.Tags = cfg.Tags

	log.Info().
		Str("addr", cfg.Addr).
		Str("namespace", cfg.Namespace).
		Strs("tags", cfg.Tags).
		Msg("Datadog metrics initialized")

	return c, nil
}

func (w *Writer) Write(res poller.PollResult) error {
	g := &gauges{g: w.g}

	if res.Err == nil {
		for _, z := range res.Zones {
			tags := []string{"zone:" + strconv.Itoa(z.Pos), "zone_name:" + z.Name}
			g.gauge("zone.current", float64(z.Current), tags)
			g.gauge("zone.required", float64(z.Required), tags)
		}
		g.gauge("zones.unreadable", float64(len(res.Unreadable)), nil)
	}

	if w.stats != nil {
		st := w.stats.Stats()
		g.gauge("transport.attempts", float64(st.Attempts), nil)
		g.gauge("transport.retries", float64(st.Retries), nil)
		g.gauge("transport.failures", float64(st.Failures), nil)
	}

	return g.err()
}

func (w *Writer) WriteStatus(s status.Snapshot) error {
	g := &gauges{g: w.g}
	g.gauge("health", float64(s.Health), nil)
	g.gauge("seconds_in_error", float64(s.SecondsInError), nil)
	return g.err()
}

// gauges collects per-metric failures.
type gauges struct {
	g    Gauger
	errs []string
}

func (g *gauges) gauge(name string, v float64, tags []string) {
	if err := g.g.Gauge(name, v, tags, 1); err != nil {
		g.errs = append(g.errs, fmt.Sprintf("%s: %v", name, err))
	}
}

func (g *gauges) err() error {
	if len(g.errs) == 0 {
		return nil
	}
	return errors.New("statsd writer: " + strings.Join(g.errs, " | "))
}
