// internal/etatherm/client.go
package etatherm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultOverrideDuration is how long a temporary override lasts when the
// caller gives no duration.
const DefaultOverrideDuration = 120 * time.Minute

// Registers is the serialized register access the client needs.
// transport.Executor implements it.
type Registers interface {
	ReadRegisters(ctx context.Context, addr, qty uint16) ([]uint16, error)
	WriteRegisters(ctx context.Context, addr uint16, regs []uint16) error
}

// Zone is a used slot as presented to the host.
type Zone struct {
	Pos  int
	Name string
	Min  int
	Max  int
}

// Client exposes zone-level operations of one Etatherm device.
type Client struct {
	regs  Registers
	cache *ParamCache
	now   func() time.Time
}

type Option func(*Client)

// WithCache shares a parameter cache with the client.
func WithCache(cache *ParamCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithClock replaces time.Now for override windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New builds a client on top of regs.
func New(regs Registers, opts ...Option) *Client {
	c := &Client{
		regs:  regs,
		cache: NewParamCache(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Params returns the zone parameters, reading them on first use.
func (c *Client) Params(ctx context.Context) (Params, error) {
	return c.cache.Get(ctx, c.readParams)
}

// Zones lists the used zones with their temperature bounds.
func (c *Client) Zones(ctx context.Context) (map[int]Zone, error) {
	params, err := c.Params(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[int]Zone)
	for i, p := range params.Slots {
		if !p.Used {
			continue
		}
		pos := i + 1
		out[pos] = Zone{Pos: pos, Name: p.Name, Min: p.MinTemp(), Max: p.MaxTemp()}
	}
	return out, nil
}

// CurrentTemperatures reads the measured temperature of every used zone.
func (c *Client) CurrentTemperatures(ctx context.Context) (map[int]int, error) {
	params, data, err := c.readBulk(ctx, CurrentTempBase)
	if err != nil {
		return nil, err
	}

	out := make(map[int]int)
	for i, p := range params.Slots {
		if p.Used {
			out[i+1] = DecodeCurrentTemp(data[i], p.Shift, p.Step)
		}
	}
	return out, nil
}

// RequiredTemperatures reads the required temperature and flag of every used zone.
func (c *Client) RequiredTemperatures(ctx context.Context) (map[int]Requirement, error) {
	params, data, err := c.readBulk(ctx, RequiredTempBase)
	if err != nil {
		return nil, err
	}

	out := make(map[int]Requirement)
	for i, p := range params.Slots {
		if p.Used {
			out[i+1] = DecodeRequirement(data[i], p.Shift, p.Step)
		}
	}
	return out, nil
}

// SetTemporaryOverride sets temp on zone pos from now for d (plus one
// minute). The mode byte is read and written back as two separate
// transactions; another master writing the same field in between is not
// detected. temp must lie within the zone's Min..Max.
func (c *Client) SetTemporaryOverride(ctx context.Context, pos int, temp float64, d time.Duration) error {
	zone, err := c.usedZone(ctx, pos)
	if err != nil {
		return err
	}
	if d <= 0 {
		d = DefaultOverrideDuration
	}

	level := TargetLevel(temp, zone.Shift, zone.Step)

	addr := ModeAddr(pos)
	regs, err := c.regs.ReadRegisters(ctx, addr, 1)
	if err != nil {
		return fmt.Errorf("etatherm: read mode of zone %d: %w", pos, err)
	}
	current, err := RegisterBytes(regs, 1)
	if err != nil {
		return fmt.Errorf("etatherm: read mode of zone %d: %w", pos, err)
	}

	now := c.now()
	payload := EncodeTemporaryOverride(current[0], level, ToY(now), ToY(now.Add(d+time.Minute)))

	if err := c.regs.WriteRegisters(ctx, addr, ByteRegisters(payload)); err != nil {
		return fmt.Errorf("etatherm: write override of zone %d: %w", pos, err)
	}

	log.Info().
		Int("zone", pos).
		Float64("temperature", temp).
		Dur("duration", d).
		Msg("temporary override set")
	return nil
}

// SetMode switches zone pos between its schedule (auto) and permanent
// manual temperature. Read-modify-write like SetTemporaryOverride.
func (c *Client) SetMode(ctx context.Context, pos int, auto bool) error {
	if _, err := c.usedZone(ctx, pos); err != nil {
		return err
	}

	addr := ModeAddr(pos)
	regs, err := c.regs.ReadRegisters(ctx, addr, ModeReadRegs)
	if err != nil {
		return fmt.Errorf("etatherm: read mode of zone %d: %w", pos, err)
	}
	current, err := RegisterBytes(regs, ModeReadRegs)
	if err != nil {
		return fmt.Errorf("etatherm: read mode of zone %d: %w", pos, err)
	}

	payload, err := ToggleModeBytes(current, auto)
	if err != nil {
		return fmt.Errorf("etatherm: zone %d: %w", pos, err)
	}

	if err := c.regs.WriteRegisters(ctx, addr, ByteRegisters(payload)); err != nil {
		return fmt.Errorf("etatherm: write mode of zone %d: %w", pos, err)
	}

	log.Info().Int("zone", pos).Bool("auto", auto).Msg("zone mode set")
	return nil
}

// ---- internal ----

func (c *Client) usedZone(ctx context.Context, pos int) (ZoneParams, error) {
	params, err := c.Params(ctx)
	if err != nil {
		return ZoneParams{}, err
	}
	zone, ok := params.Zone(pos)
	if !ok || !zone.Used {
		return ZoneParams{}, fmt.Errorf("%w: %d", ErrUnknownZone, pos)
	}
	return zone, nil
}

// readBulk ensures parameters are cached, then reads one byte per slot at base.
func (c *Client) readBulk(ctx context.Context, base uint16) (Params, []byte, error) {
	params, err := c.Params(ctx)
	if err != nil {
		return Params{}, nil, err
	}

	regs, err := c.regs.ReadRegisters(ctx, base, Slots)
	if err != nil {
		return Params{}, nil, fmt.Errorf("etatherm: read 0x%04x: %w", base, err)
	}
	data, err := RegisterBytes(regs, Slots)
	if err != nil {
		return Params{}, nil, fmt.Errorf("etatherm: read 0x%04x: %w", base, err)
	}
	return params, data, nil
}

// readParams reads every slot's config block and, for used slots, its name.
// A slot that cannot be read is recorded as unused; the pass fails only when
// no slot could be read or ctx ends.
func (c *Client) readParams(ctx context.Context) (Params, error) {
	var (
		out  Params
		last error
	)

	for pos := 1; pos <= Slots; pos++ {
		p, err := c.readSlot(ctx, pos)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Params{}, fmt.Errorf("etatherm: read zone parameters: %w", err)
			}
			log.Warn().Err(err).Int("zone", pos).Msg("zone parameters unavailable")
			last = err
			out.Failed = append(out.Failed, pos)
			p = ZoneParams{Name: timeoutName, Shift: timeoutShift, Step: timeoutStep}
		}
		out.Slots[pos-1] = p
	}

	if len(out.Failed) == Slots {
		return Params{}, fmt.Errorf("%w: %w", ErrNoZones, last)
	}
	if err := out.Err(); err != nil {
		log.Warn().
			Err(err).
			Ints("failed", out.Failed).
			Msg("zone parameters cached with unreadable slots")
	}

	log.Debug().Int("failed", len(out.Failed)).Msg("zone parameters loaded")
	return out, nil
}

func (c *Client) readSlot(ctx context.Context, pos int) (ZoneParams, error) {
	regs, err := c.regs.ReadRegisters(ctx, ConfigAddr(pos), ConfigRegs)
	if err != nil {
		return ZoneParams{}, err
	}
	raw, err := RegisterBytes(regs, ConfigRegs)
	if err != nil {
		return ZoneParams{}, err
	}
	p, err := DecodeZoneParams(raw)
	if err != nil {
		return ZoneParams{}, err
	}
	if !p.Used {
		return p, nil
	}

	name, err := c.readName(ctx, pos)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ZoneParams{}, err
		}
		log.Warn().Err(err).Int("zone", pos).Msg("zone name unavailable")
	}
	p.Name = name
	return p, nil
}

func (c *Client) readName(ctx context.Context, pos int) (string, error) {
	regs, err := c.regs.ReadRegisters(ctx, NameAddr(pos), NameRegs)
	if err != nil {
		return "", err
	}
	raw, err := RegisterBytes(regs, NameRegs)
	if err != nil {
		return "", err
	}
	return DecodeName(raw)
}
