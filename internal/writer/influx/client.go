// internal/writer/influx/client.go
package influx

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/rs/zerolog/log"

	"github.com/tamzrod/etatherm-modbus/internal/config"
)

const defaultPingTimeout = 5 * time.Second

// ErrConnectionFailed is returned when the server does not answer the ping.
var ErrConnectionFailed = errors.New("influxdb: connection failed")

// Connect pings the server and returns a sink writing through the
// batching write API, plus a closer that flushes pending points.
func Connect(ctx context.Context, cfg config.InfluxDBConfig, device string) (*Writer, func() error, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	go func() {
		for err := range writeAPI.Errors() {
			log.Warn().Err(err).Str("bucket", cfg.Bucket).Msg("InfluxDB write failed")
		}
	}()

	log.Info().Str("url", cfg.URL).Str("bucket", cfg.Bucket).Msg("InfluxDB connected")

	closer := func() error {
		writeAPI.Flush()
		client.Close()
		return nil
	}

	return New(writeAPI, cfg.Measurement, device), closer, nil
}
