// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/etatherm-modbus/internal/config"
	"github.com/tamzrod/etatherm-modbus/internal/etatherm"
	"github.com/tamzrod/etatherm-modbus/internal/transport"
	tmodbus "github.com/tamzrod/etatherm-modbus/internal/transport/modbus"
)

// Device is the wired stack for one thermostat: connection, executor,
// facade and poller. The facade is shared with the command handler so
// both go through the same executor gate and parameter cache.
type Device struct {
	Poller   *Poller
	Client   *etatherm.Client
	Executor *transport.Executor
}

// Close closes the device connection.
func (d *Device) Close() error {
	return d.Executor.Close()
}

// Build constructs the device stack from config.
// Nothing is dialed here; the executor connects on the first transaction.
func Build(c *cfg.Config) (*Device, error) {
	dc := c.Device

	conn, err := tmodbus.New(tmodbus.Config{
		Transport: dc.Transport,
		Endpoint:  dc.Endpoint,
		UnitID:    dc.UnitID,
		Timeout:   time.Duration(dc.TimeoutMs) * time.Millisecond,
		BaudRate:  dc.Serial.BaudRate,
		DataBits:  dc.Serial.DataBits,
		StopBits:  dc.Serial.StopBits,
		Parity:    dc.Serial.Parity,
	})
	if err != nil {
		return nil, err
	}

	exec := transport.NewExecutor(conn, transport.Config{
		MaxAttempts: c.Retry.Attempts,
		RetryDelay:  time.Duration(c.Retry.DelayMs) * time.Millisecond,
	})

	client := etatherm.New(exec)

	p, err := New(
		Config{
			UnitID:   dc.ID,
			Interval: time.Duration(c.Poll.IntervalMs) * time.Millisecond,
			Timeout:  time.Duration(c.Poll.TimeoutMs) * time.Millisecond,
		},
		client,
	)
	if err != nil {
		_ = exec.Close()
		return nil, err
	}

	return &Device{Poller: p, Client: client, Executor: exec}, nil
}
