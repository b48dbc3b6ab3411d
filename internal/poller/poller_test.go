// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/etatherm-modbus/internal/config"
	"github.com/tamzrod/etatherm-modbus/internal/etatherm"
	"github.com/tamzrod/etatherm-modbus/internal/transport"
)

type fakeClient struct {
	mu       sync.Mutex
	calls    int
	failStep string
	blockFor time.Duration
	failed   []int

	zonesDeadline   bool
	currentDeadline bool
}

func (f *fakeClient) Zones(ctx context.Context) (map[int]etatherm.Zone, error) {
	f.mu.Lock()
	f.calls++
	_, f.zonesDeadline = ctx.Deadline()
	f.mu.Unlock()

	if f.failStep == "zones" {
		return nil, errors.New("fail zones")
	}
	return map[int]etatherm.Zone{
		3: {Pos: 3, Name: "Kuchyn", Min: 4, Max: 62},
		1: {Pos: 1, Name: "Obyvak", Min: 1, Max: 30},
		7: {Pos: 7, Name: "Dilna", Min: 1, Max: 30},
	}, nil
}

func (f *fakeClient) Params(ctx context.Context) (etatherm.Params, error) {
	return etatherm.Params{Failed: f.failed}, nil
}

func (f *fakeClient) CurrentTemperatures(ctx context.Context) (map[int]int, error) {
	f.mu.Lock()
	_, f.currentDeadline = ctx.Deadline()
	f.mu.Unlock()

	if f.blockFor > 0 {
		select {
		case <-time.After(f.blockFor):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failStep == "current" {
		return nil, errors.New("fail current")
	}
	return map[int]int{1: 21, 3: 24, 7: 10}, nil
}

func (f *fakeClient) RequiredTemperatures(ctx context.Context) (map[int]etatherm.Requirement, error) {
	if f.failStep == "required" {
		return nil, errors.New("fail required")
	}
	return map[int]etatherm.Requirement{
		1: {Temp: 22, Flag: etatherm.FlagScheduled},
		3: {Temp: 20, Flag: etatherm.FlagTemporary},
		7: {Temp: 5, Flag: etatherm.FlagSummer},
	}, nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestPoller(t *testing.T, c Client, timeout time.Duration) *Poller {
	t.Helper()
	p, err := New(Config{UnitID: "house", Interval: time.Hour, Timeout: timeout}, c)
	require.NoError(t, err)
	return p
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Interval: time.Second}, &fakeClient{})
	assert.Error(t, err)

	_, err = New(Config{UnitID: "u", Interval: 0}, &fakeClient{})
	assert.Error(t, err)

	_, err = New(Config{UnitID: "u", Interval: time.Second, Timeout: -1}, &fakeClient{})
	assert.Error(t, err)

	_, err = New(Config{UnitID: "u", Interval: time.Second}, nil)
	assert.Error(t, err)
}

func TestPollOnce_MergesZones(t *testing.T) {
	p := newTestPoller(t, &fakeClient{}, 0)

	res := p.PollOnce(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, "house", res.UnitID)
	require.Len(t, res.Zones, 3)

	assert.Equal(t, ZoneState{
		Pos: 1, Name: "Obyvak", Min: 1, Max: 30,
		Current: 21, Required: 22, Flag: etatherm.FlagScheduled,
		Mode: ModeAuto, Action: ActionHeating,
	}, res.Zones[0])

	assert.Equal(t, 3, res.Zones[1].Pos)
	assert.Equal(t, ModeHeat, res.Zones[1].Mode)
	assert.Equal(t, ActionIdle, res.Zones[1].Action)

	assert.Equal(t, 7, res.Zones[2].Pos)
	assert.Equal(t, ModeOff, res.Zones[2].Mode)
	assert.Empty(t, res.Unreadable)
}

func TestPollOnce_ReportsUnreadableSlots(t *testing.T) {
	p := newTestPoller(t, &fakeClient{failed: []int{4, 9}}, 0)

	res := p.PollOnce(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, []int{4, 9}, res.Unreadable)
}

func TestPollOnce_AllOrNothing(t *testing.T) {
	for _, step := range []string{"zones", "current", "required"} {
		t.Run(step, func(t *testing.T) {
			p := newTestPoller(t, &fakeClient{failStep: step}, 0)

			res := p.PollOnce(context.Background())
			assert.Error(t, res.Err)
			assert.Nil(t, res.Zones)
		})
	}
}

func TestPollOnce_AppliesTimeout(t *testing.T) {
	fc := &fakeClient{blockFor: time.Hour}
	p := newTestPoller(t, fc, 20*time.Millisecond)

	res := p.PollOnce(context.Background())
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.True(t, fc.currentDeadline)

	// the zone list is not bound by the poll deadline
	assert.False(t, fc.zonesDeadline)
}

// ---- real client over the executor ----

// slotConn serves a byte-per-register memory map. Reads of failAddr stall
// for failAfter and then fail, every time.
type slotConn struct {
	mem       map[uint16]byte
	failAddr  uint16
	failAfter time.Duration
	connected bool
}

func (c *slotConn) Connect() error    { c.connected = true; return nil }
func (c *slotConn) IsConnected() bool { return c.connected }
func (c *slotConn) Close() error      { c.connected = false; return nil }

func (c *slotConn) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	if addr == c.failAddr {
		time.Sleep(c.failAfter)
		return nil, errors.New("no response")
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = uint16(c.mem[addr+uint16(i)])
	}
	return out, nil
}

func (c *slotConn) WriteRegisters(addr uint16, regs []uint16) error { return nil }

func TestPollOnce_UnreadableSlotDoesNotBlockZones(t *testing.T) {
	conn := &slotConn{
		mem:       map[uint16]byte{},
		failAddr:  etatherm.ConfigAddr(2),
		failAfter: 20 * time.Millisecond,
	}
	conn.mem[etatherm.ConfigAddr(1)] = 0x01
	conn.mem[etatherm.CurrentTempBase] = 20
	conn.mem[etatherm.RequiredTempBase] = 0x80 | 21 // scheduled, level 21

	exec := transport.NewExecutor(conn, transport.Config{MaxAttempts: 10, RetryDelay: 10 * time.Millisecond})
	client := etatherm.New(exec)

	// Slot 2 alone spends ~290ms of retries, well past the poll deadline.
	p := newTestPoller(t, client, 100*time.Millisecond)

	for i := 0; i < 2; i++ {
		res := p.PollOnce(context.Background())
		require.NoError(t, res.Err, "poll %d", i)
		require.Len(t, res.Zones, 1, "poll %d", i)
		assert.Equal(t, 1, res.Zones[0].Pos)
		assert.Equal(t, 20, res.Zones[0].Current)
		assert.Equal(t, 21, res.Zones[0].Required)
		assert.Equal(t, []int{2}, res.Unreadable, "poll %d", i)
	}

	params, err := client.Params(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2}, params.Failed)
}

func TestModeFromFlag(t *testing.T) {
	assert.Equal(t, ModeOff, ModeFromFlag(etatherm.FlagSummer))
	assert.Equal(t, ModeAuto, ModeFromFlag(etatherm.FlagHDO))
	assert.Equal(t, ModeHeat, ModeFromFlag(etatherm.FlagTemporary))
	assert.Equal(t, ModeHeat, ModeFromFlag(etatherm.FlagPermanent))
	assert.Equal(t, ModeAuto, ModeFromFlag(etatherm.FlagScheduled))
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, ActionHeating, ActionFor(19, 20))
	assert.Equal(t, ActionIdle, ActionFor(20, 20))
	assert.Equal(t, ActionIdle, ActionFor(23, 20))
}

func TestRun_PollsImmediatelyAndOnRefresh(t *testing.T) {
	fc := &fakeClient{}
	p := newTestPoller(t, fc, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan PollResult)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, out)
		close(done)
	}()

	select {
	case res := <-out:
		require.NoError(t, res.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial poll")
	}

	p.Refresh()
	select {
	case res := <-out:
		require.NoError(t, res.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not trigger a poll")
	}
	assert.Equal(t, 2, fc.callCount())

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRefresh_Coalesces(t *testing.T) {
	p := newTestPoller(t, &fakeClient{}, 0)

	p.Refresh()
	p.Refresh()
	p.Refresh()
	assert.Len(t, p.refresh, 1)
}

func TestBuild(t *testing.T) {
	c := &config.Config{
		Device: config.DeviceConfig{ID: "house", Transport: "tcp", Endpoint: "127.0.0.1:50001", TimeoutMs: 1000},
		Retry:  config.RetryConfig{Attempts: 2, DelayMs: 10},
		Poll:   config.PollConfig{IntervalMs: 15000, TimeoutMs: 10000},
	}

	d, err := Build(c)
	require.NoError(t, err)
	require.NotNil(t, d.Poller)
	require.NotNil(t, d.Client)
	assert.Equal(t, 15*time.Second, d.Poller.cfg.Interval)
	assert.Equal(t, 10*time.Second, d.Poller.cfg.Timeout)
	assert.NoError(t, d.Close())

	c.Device.Transport = "udp"
	_, err = Build(c)
	assert.Error(t, err)
}
