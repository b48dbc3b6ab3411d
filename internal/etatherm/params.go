// internal/etatherm/params.go
package etatherm

import (
	"context"
	"fmt"
	"sync"
)

// Placeholder parameters of a slot whose config block could not be read.
const (
	timeoutName  = "<timeout>"
	timeoutShift = 5
	timeoutStep  = 1
)

// Params is the configuration of all slots of one device.
type Params struct {
	Slots [Slots]ZoneParams

	// Failed lists the positions whose config block could not be read.
	Failed []int
}

// Zone returns the parameters of slot pos.
func (p Params) Zone(pos int) (ZoneParams, bool) {
	if pos < 1 || pos > Slots {
		return ZoneParams{}, false
	}
	return p.Slots[pos-1], true
}

// Err reports unreadable slots as ErrPartialConfig, or nil when every slot
// was read.
func (p Params) Err() error {
	if len(p.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: slots %v", ErrPartialConfig, p.Failed)
}

// ParamCache holds zone parameters for the lifetime of the process.
// It is filled once by the first successful pass and never refreshed.
type ParamCache struct {
	mu     sync.Mutex
	params *Params
}

// NewParamCache returns an empty cache.
func NewParamCache() *ParamCache {
	return &ParamCache{}
}

// Get returns the cached parameters, running load first if the cache is
// empty. A failed load leaves the cache empty. Concurrent callers wait for
// one load.
func (c *ParamCache) Get(ctx context.Context, load func(context.Context) (Params, error)) (Params, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.params != nil {
		return *c.params, nil
	}

	p, err := load(ctx)
	if err != nil {
		return Params{}, err
	}
	c.params = &p
	return p, nil
}

func (c *ParamCache) loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params != nil
}
