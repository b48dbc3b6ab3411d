// internal/transport/executor.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxAttempts = 10
	DefaultRetryDelay  = time.Second
)

// Conn is the raw register transport the executor drives.
// transport/modbus.Client is the production implementation.
type Conn interface {
	Connect() error
	IsConnected() bool
	Close() error
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error)
	WriteRegisters(addr uint16, regs []uint16) error
}

// Config is the retry policy. A zero MaxAttempts or a negative RetryDelay
// falls back to the default; a zero RetryDelay retries immediately.
type Config struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// Stats counts executor activity since construction.
type Stats struct {
	Attempts uint64
	Retries  uint64
	Failures uint64
}

// Executor serializes every register operation on one device through a
// single gate, connects on demand and retries failed attempts with a fixed
// delay. A read-modify-write done as two calls is serialized against other
// callers of the same executor only.
type Executor struct {
	conn        Conn
	maxAttempts int
	retryDelay  time.Duration

	// gate holds one token; taking it grants exclusive device access.
	gate chan struct{}

	// sleep waits d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error

	attempts atomic.Uint64
	retries  atomic.Uint64
	failures atomic.Uint64
}

// NewExecutor wraps conn with the given retry policy.
func NewExecutor(conn Conn, cfg Config) *Executor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &Executor{
		conn:        conn,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		gate:        make(chan struct{}, 1),
		sleep:       sleepCtx,
	}
}

// ReadRegisters reads qty holding registers at addr.
func (e *Executor) ReadRegisters(ctx context.Context, addr, qty uint16) ([]uint16, error) {
	var out []uint16
	err := e.do(ctx, "read", addr, func() error {
		regs, err := e.conn.ReadHoldingRegisters(addr, qty)
		if err != nil {
			return err
		}
		out = regs
		return nil
	})
	return out, err
}

// WriteRegisters writes regs starting at addr as one transport call.
func (e *Executor) WriteRegisters(ctx context.Context, addr uint16, regs []uint16) error {
	return e.do(ctx, "write", addr, func() error {
		return e.conn.WriteRegisters(addr, regs)
	})
}

// Close releases the connection once no operation is in flight.
func (e *Executor) Close() error {
	e.gate <- struct{}{}
	defer func() { <-e.gate }()
	return e.conn.Close()
}

// Stats returns a copy of the counters.
func (e *Executor) Stats() Stats {
	return Stats{
		Attempts: e.attempts.Load(),
		Retries:  e.retries.Load(),
		Failures: e.failures.Load(),
	}
}

func (e *Executor) do(ctx context.Context, op string, addr uint16, fn func() error) error {
	select {
	case e.gate <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: %s 0x%04x: %w", ErrTransportTimeout, op, addr, ctx.Err())
	}
	defer func() { <-e.gate }()

	var last error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			e.retries.Add(1)
			log.Debug().
				Str("op", op).
				Uint16("addr", addr).
				Int("attempt", attempt).
				Dur("delay", e.retryDelay).
				Err(last).
				Msg("retrying register operation")

			if err := e.sleep(ctx, e.retryDelay); err != nil {
				e.failures.Add(1)
				return fmt.Errorf("%w: %s 0x%04x: %w", ErrTransportTimeout, op, addr, err)
			}
		}

		e.attempts.Add(1)
		last = e.attempt(fn)
		if last == nil {
			return nil
		}
		if errors.Is(last, ErrDeviceError) {
			e.failures.Add(1)
			return fmt.Errorf("%s 0x%04x: %w", op, addr, last)
		}
	}

	e.failures.Add(1)
	log.Warn().
		Str("op", op).
		Uint16("addr", addr).
		Int("attempts", e.maxAttempts).
		Err(last).
		Msg("register operation failed")

	return fmt.Errorf("%w: %s 0x%04x after %d attempts: %w", ErrTransportTimeout, op, addr, e.maxAttempts, last)
}

func (e *Executor) attempt(fn func() error) error {
	if !e.conn.IsConnected() {
		log.Info().Msg("etatherm is not connected, trying to connect")
		if err := e.conn.Connect(); err != nil {
			return fmt.Errorf("%w: %w", ErrTransportUnavailable, err)
		}
	}
	return fn()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
