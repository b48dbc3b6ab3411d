// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/etatherm-modbus/internal/etatherm"
)

// Mode is the heating mode reported for a zone.
type Mode string

const (
	ModeOff  Mode = "off"
	ModeAuto Mode = "auto"
	ModeHeat Mode = "heat"
)

// ModeFromFlag derives the zone mode from its requirement flag.
// Summer (0) is off, scheduled or HDO is auto, any override is heat.
func ModeFromFlag(f etatherm.Flag) Mode {
	switch f {
	case etatherm.FlagSummer:
		return ModeOff
	case etatherm.FlagTemporary, etatherm.FlagPermanent:
		return ModeHeat
	default:
		return ModeAuto
	}
}

// Action is what the zone is currently doing.
type Action string

const (
	ActionHeating Action = "heating"
	ActionIdle    Action = "idle"
)

// ActionFor reports heating while the zone is below its required temperature.
func ActionFor(current, required int) Action {
	if current < required {
		return ActionHeating
	}
	return ActionIdle
}

// ZoneState is one zone's merged view after a poll.
type ZoneState struct {
	Pos      int
	Name     string
	Min      int
	Max      int
	Current  int
	Required int
	Flag     etatherm.Flag
	Mode     Mode
	Action   Action
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	UnitID string
	At     time.Time

	Zones      []ZoneState // sorted by position
	Unreadable []int       // parameter slots cached with placeholder values
	Err        error       // non-nil means the poll cycle failed
}
