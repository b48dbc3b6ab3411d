// internal/transport/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/rs/zerolog/log"

	"github.com/tamzrod/etatherm-modbus/internal/transport"
)

const (
	TransportTCP = "tcp"
	TransportRTU = "rtu"
)

// Config is minimal transport config.
type Config struct {
	Transport string // tcp (default) or rtu
	Endpoint  string // host:port for tcp, serial device for rtu
	UnitID    uint8
	Timeout   time.Duration

	// rtu only
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
}

// connector is the lifecycle half of a goburrow handler.
type connector interface {
	Connect() error
	Close() error
}

// Client owns the single stream connection to one device.
// Connect, IsConnected and Close are idempotent.
// Register calls are NOT serialized here; transport.Executor owns the gate.
type Client struct {
	mu        sync.Mutex
	endpoint  string
	conn      connector
	client    modbus.Client
	connected bool
}

// New builds a client without dialing. The first register call (through the
// executor) connects on demand.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus client: endpoint required")
	}

	switch cfg.Transport {
	case "", TransportTCP:
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		return &Client{endpoint: cfg.Endpoint, conn: h, client: modbus.NewClient(h)}, nil

	case TransportRTU:
		h := modbus.NewRTUClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		if cfg.BaudRate > 0 {
			h.BaudRate = cfg.BaudRate
		}
		if cfg.DataBits > 0 {
			h.DataBits = cfg.DataBits
		}
		if cfg.StopBits > 0 {
			h.StopBits = cfg.StopBits
		}
		if cfg.Parity != "" {
			h.Parity = cfg.Parity
		}
		return &Client{endpoint: cfg.Endpoint, conn: h, client: modbus.NewClient(h)}, nil

	default:
		return nil, fmt.Errorf("modbus client: unsupported transport %q", cfg.Transport)
	}
}

// Connect opens the connection unless it is already open.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	log.Debug().Str("endpoint", c.endpoint).Msg("connecting to etatherm")

	if err := c.conn.Connect(); err != nil {
		log.Warn().Err(err).Str("endpoint", c.endpoint).Msg("unable to connect to etatherm")
		return err
	}

	c.connected = true
	log.Info().Str("endpoint", c.endpoint).Msg("etatherm connected")
	return nil
}

// IsConnected reports the last known connection state.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close closes the connection. Closing a closed client is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false
	return c.conn.Close()
}

// ReadHoldingRegisters reads qty registers (FC 3) starting at addr.
func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	raw, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, c.fail(err)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("modbus: read-registers byte count %d not even", len(raw))
	}
	return unpackRegisters(raw), nil
}

// WriteRegisters writes regs (FC 16) starting at addr.
func (c *Client) WriteRegisters(addr uint16, regs []uint16) error {
	_, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs))
	if err != nil {
		return c.fail(err)
	}
	return nil
}

// fail classifies err. Exception responses leave the stream intact; anything
// else drops the connection so the next attempt redials.
func (c *Client) fail(err error) error {
	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		if permanentException(mbErr.ExceptionCode) {
			return fmt.Errorf("%w: %w", transport.ErrDeviceError, err)
		}
		return err
	}

	c.mu.Lock()
	if c.connected {
		c.connected = false
		if cerr := c.conn.Close(); cerr != nil {
			log.Debug().Err(cerr).Str("endpoint", c.endpoint).Msg("close after transport error")
		}
	}
	c.mu.Unlock()

	return err
}

func permanentException(code byte) bool {
	switch code {
	case modbus.ExceptionCodeIllegalFunction,
		modbus.ExceptionCodeIllegalDataAddress,
		modbus.ExceptionCodeIllegalDataValue:
		return true
	}
	return false
}

// ---- helpers (pure geometry) ----

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
