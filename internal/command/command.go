// internal/command/command.go

// Package command maps MQTT zone commands onto thermostat writes.
package command

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tamzrod/etatherm-modbus/internal/etatherm"
	"github.com/tamzrod/etatherm-modbus/internal/mqtt"
)

// DefaultTimeout bounds one command including transport retries.
const DefaultTimeout = 30 * time.Second

var (
	ErrUnknownCommand = errors.New("command: unknown command")
	ErrInvalidPayload = errors.New("command: invalid payload")
	ErrOutOfRange     = errors.New("command: temperature out of range")
)

// Device is the part of the thermostat facade commands need.
type Device interface {
	Zones(ctx context.Context) (map[int]etatherm.Zone, error)
	SetTemporaryOverride(ctx context.Context, pos int, temp float64, d time.Duration) error
	SetMode(ctx context.Context, pos int, auto bool) error
}

type Config struct {
	OverrideDuration time.Duration
	Timeout          time.Duration
}

// Handler executes commands arriving on .../zone/<pos>/set/<cmd>.
// Handle may run concurrently; the transport executor serializes bus access.
type Handler struct {
	ctx     context.Context
	dev     Device
	topics  mqtt.Topics
	cfg     Config
	refresh func()
}

// New builds a handler. ctx bounds every command; refresh, when set, is
// called after a successful write so the new state is polled promptly.
func New(ctx context.Context, dev Device, topics mqtt.Topics, cfg Config, refresh func()) *Handler {
	if cfg.OverrideDuration <= 0 {
		cfg.OverrideDuration = etatherm.DefaultOverrideDuration
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Handler{ctx: ctx, dev: dev, topics: topics, cfg: cfg, refresh: refresh}
}

// Handle satisfies mqtt.MessageHandler.
func (h *Handler) Handle(topic string, payload []byte) error {
	pos, cmd, ok := h.topics.ParseCommand(topic)
	if !ok {
		return fmt.Errorf("%w: topic %s", ErrUnknownCommand, topic)
	}

	ctx, cancel := context.WithTimeout(h.ctx, h.cfg.Timeout)
	defer cancel()

	value := strings.TrimSpace(string(payload))

	var err error
	switch cmd {
	case mqtt.CommandTemperature:
		err = h.setTemperature(ctx, pos, value)
	case mqtt.CommandMode:
		err = h.setMode(ctx, pos, value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	if err != nil {
		return fmt.Errorf("zone %d %s: %w", pos, cmd, err)
	}

	if h.refresh != nil {
		h.refresh()
	}
	return nil
}

func (h *Handler) setTemperature(ctx context.Context, pos int, value string) error {
	temp, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(temp) || math.IsInf(temp, 0) {
		return fmt.Errorf("%w: %q is not a number", ErrInvalidPayload, value)
	}

	zones, err := h.dev.Zones(ctx)
	if err != nil {
		return err
	}
	z, ok := zones[pos]
	if !ok {
		return fmt.Errorf("%w: %d", etatherm.ErrUnknownZone, pos)
	}
	if temp < float64(z.Min) || temp > float64(z.Max) {
		return fmt.Errorf("%w: %g not in [%d, %d]", ErrOutOfRange, temp, z.Min, z.Max)
	}

	log.Info().Int("zone", pos).Float64("temp", temp).Dur("duration", h.cfg.OverrideDuration).Msg("set temperature")
	return h.dev.SetTemporaryOverride(ctx, pos, temp, h.cfg.OverrideDuration)
}

func (h *Handler) setMode(ctx context.Context, pos int, value string) error {
	var auto bool
	switch strings.ToLower(value) {
	case "auto":
		auto = true
	case "heat":
		auto = false
	default:
		return fmt.Errorf("%w: mode %q (want auto or heat)", ErrInvalidPayload, value)
	}

	log.Info().Int("zone", pos).Bool("auto", auto).Msg("set mode")
	return h.dev.SetMode(ctx, pos, auto)
}
