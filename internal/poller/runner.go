// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run polls immediately, then on every tick or Refresh, and emits PollResult
// on the provided channel. One goroutine per device. No overlap.
func (p *Poller) Run(ctx context.Context, out chan<- PollResult) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	emit := func() bool {
		res := p.PollOnce(ctx)
		select {
		case out <- res:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !emit() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.refresh:
		}
		if !emit() {
			return
		}
	}
}
