// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tamzrod/etatherm-modbus/internal/etatherm"
)

// Client abstracts the device operations needed by the poller.
type Client interface {
	Zones(ctx context.Context) (map[int]etatherm.Zone, error)
	Params(ctx context.Context) (etatherm.Params, error)
	CurrentTemperatures(ctx context.Context) (map[int]int, error)
	RequiredTemperatures(ctx context.Context) (map[int]etatherm.Requirement, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	UnitID   string
	Interval time.Duration
	Timeout  time.Duration // temperature reads per poll; zero means no extra deadline
}

// Poller is a clock-driven reader of one device.
type Poller struct {
	cfg     Config
	client  Client
	refresh chan struct{}
	now     func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, client Client) (*Poller, error) {
	if cfg.UnitID == "" {
		return nil, errors.New("poller: unit id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.Timeout < 0 {
		return nil, errors.New("poller: timeout must be >= 0")
	}
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	return &Poller{
		cfg:     cfg,
		client:  client,
		refresh: make(chan struct{}, 1),
		now:     time.Now,
	}, nil
}

// Refresh requests an out-of-band poll. Requests coalesce while one is pending.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	res := PollResult{
		UnitID: p.cfg.UnitID,
		At:     p.now(),
	}

	// The zone list comes from the parameter cache. Its one-time fill may
	// outlast a poll (each unreadable slot spends a full retry budget), so
	// it only answers to the caller's ctx.
	zones, err := p.client.Zones(ctx)
	if err != nil {
		res.Err = fmt.Errorf("poller: zones: %w", err)
		return res
	}
	params, err := p.client.Params(ctx)
	if err != nil {
		res.Err = fmt.Errorf("poller: zone params: %w", err)
		return res
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}
	current, err := p.client.CurrentTemperatures(ctx)
	if err != nil {
		res.Err = fmt.Errorf("poller: current temperatures: %w", err)
		return res
	}
	required, err := p.client.RequiredTemperatures(ctx)
	if err != nil {
		res.Err = fmt.Errorf("poller: required temperatures: %w", err)
		return res
	}

	states := make([]ZoneState, 0, len(zones))
	for pos, z := range zones {
		cur, ok := current[pos]
		if !ok {
			continue
		}
		req, ok := required[pos]
		if !ok {
			continue
		}
		states = append(states, ZoneState{
			Pos:      pos,
			Name:     z.Name,
			Min:      z.Min,
			Max:      z.Max,
			Current:  cur,
			Required: req.Temp,
			Flag:     req.Flag,
			Mode:     ModeFromFlag(req.Flag),
			Action:   ActionFor(cur, req.Temp),
		})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Pos < states[j].Pos })

	// Commit only if all reads succeeded
	res.Zones = states
	res.Unreadable = params.Failed
	return res
}
