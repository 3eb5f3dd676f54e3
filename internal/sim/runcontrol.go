package sim

import "sync/atomic"

// Phase is the stepper's run state.
type Phase int32

const (
	Idle Phase = iota
	Stepping
	Paused
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Stepping:
		return "stepping"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// RunControl is the Idle/Stepping/Paused state machine. Every transition
// is a single compare-and-swap, so requests may come from any goroutine;
// the loop observes them at tick boundaries.
type RunControl struct {
	phase        atomic.Int32
	resetPending atomic.Bool
	stopPending  atomic.Bool
}

func (rc *RunControl) Phase() Phase { return Phase(rc.phase.Load()) }

func (rc *RunControl) transition(from, to Phase) bool {
	return rc.phase.CompareAndSwap(int32(from), int32(to))
}

// Start moves Idle to Stepping.
func (rc *RunControl) Start() bool { return rc.transition(Idle, Stepping) }

// Pause moves Stepping to Paused.
func (rc *RunControl) Pause() bool { return rc.transition(Stepping, Paused) }

// Resume moves Paused to Stepping.
func (rc *RunControl) Resume() bool { return rc.transition(Paused, Stepping) }

// Reset moves Paused to Idle and leaves a restore request for the loop.
// Only one reset is accepted per pause.
func (rc *RunControl) Reset() bool {
	if !rc.transition(Paused, Idle) {
		return false
	}
	rc.resetPending.Store(true)
	return true
}

// RequestStop asks the loop to exit at the next tick boundary.
func (rc *RunControl) RequestStop() { rc.stopPending.Store(true) }

func (rc *RunControl) takeReset() bool { return rc.resetPending.Swap(false) }

func (rc *RunControl) stopRequested() bool { return rc.stopPending.Load() }

// finish returns the machine to Idle once the loop has exited.
func (rc *RunControl) finish() {
	rc.phase.Store(int32(Idle))
	rc.stopPending.Store(false)
}
