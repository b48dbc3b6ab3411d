// internal/status/tracker.go
package status

// Tracker is the runner-owned device status state.
// It is not safe for concurrent use; one goroutine drives it.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in the unknown state.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	return t.snap
}

// Observe folds one poll outcome into the state and reports whether it changed.
// Recovery resets the error code and seconds_in_error.
func (t *Tracker) Observe(err error) bool {
	prev := t.snap

	if err == nil {
		t.snap.Health = HealthOK
		t.snap.LastErrorCode = CodeNone
		t.snap.SecondsInError = 0
	} else {
		t.snap.Health = HealthError
		t.snap.LastErrorCode = ErrorCode(err)
		// seconds_in_error increments on Tick only.
	}

	return t.snap != prev
}

// Tick advances seconds_in_error while the device is not OK.
// It reports whether the state changed; the counter saturates.
func (t *Tracker) Tick() bool {
	if t.snap.Health == HealthOK {
		return false
	}
	if t.snap.SecondsInError >= MaxSecondsInError {
		return false
	}
	t.snap.SecondsInError++
	return true
}
