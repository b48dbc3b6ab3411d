// internal/writer/builder.go
package writer

import (
	"context"
	"sort"

	cfg "github.com/tamzrod/etatherm-modbus/internal/config"
	"github.com/tamzrod/etatherm-modbus/internal/mqtt"
	winflux "github.com/tamzrod/etatherm-modbus/internal/writer/influx"
	wmqtt "github.com/tamzrod/etatherm-modbus/internal/writer/mqtt"
	wstatsd "github.com/tamzrod/etatherm-modbus/internal/writer/statsd"
)

// Sinks is the built delivery plan for one device.
type Sinks struct {
	Data   Writer
	Status StatusWriter

	// MQTT is non-nil when the MQTT sink is enabled; Reset it on reconnect.
	MQTT *wmqtt.Writer

	Close func() error
}

// Build creates every enabled sink. mq may be nil when MQTT is disabled;
// stats feeds the transport counters to statsd.
func Build(ctx context.Context, c *cfg.Config, mq *mqtt.Client, stats wstatsd.StatsSource) (*Sinks, error) {
	lw := &logWriter{}
	data := map[string]Writer{"log": lw}
	stat := map[string]StatusWriter{"log": lw}
	var closers []func() error

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	out := &Sinks{}

	if mq != nil {
		w := wmqtt.New(mq, mq.Topics())
		data["mqtt"] = w
		stat["mqtt"] = w
		out.MQTT = w
	}

	if c.InfluxDB.Enabled {
		w, closeFn, err := winflux.Connect(ctx, c.InfluxDB, c.Device.ID)
		if err != nil {
			_ = closeAll()
			return nil, err
		}
		data["influxdb"] = w
		closers = append(closers, closeFn)
	}

	if c.Datadog.Enabled {
		client, err := wstatsd.Connect(c.Datadog)
		if err != nil {
			_ = closeAll()
			return nil, err
		}
		w := wstatsd.New(client, stats)
		data["statsd"] = w
		stat["statsd"] = w
		closers = append(closers, client.Close)
	}

	out.Data = New(data)
	out.Status = NewStatus(stat)
	out.Close = closeAll
	return out, nil
}

func sortedNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
