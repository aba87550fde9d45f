package assistant

import (
	"sync/atomic"
	"time"
)

// State is the assistant's session phase. Transitions follow
// Listening -> Active -> Responding -> Active -> ... -> Listening; only the
// orchestrator's control paths move it, the watchdog may force
// Active -> Listening, and the inbound pipeline moves Active <-> Responding.
type State int32

const (
	// StateListening means no live session is open; audio stays on-device
	// and is fed to the wake detector only.
	StateListening State = iota

	// StateActive means a live session is open and mic audio is streaming
	// to the remote model.
	StateActive

	// StateResponding means the remote model is currently producing audio
	// that is being played back. The inactivity watchdog never fires in
	// this state.
	StateResponding
)

// String implements [fmt.Stringer].
func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateActive:
		return "active"
	case StateResponding:
		return "responding"
	default:
		return "unknown"
	}
}

// stateCell holds the current State behind an atomic so the pipelines, the
// watchdog and the orchestrator can read and write it without a lock.
type stateCell struct {
	v atomic.Int32
}

func (c *stateCell) get() State  { return State(c.v.Load()) }
func (c *stateCell) set(s State) { c.v.Store(int32(s)) }

// activityClock records the monotonic time of the last meaningful session
// activity (a successful outbound send or a completed model turn) as atomic
// nanoseconds. The watchdog reads it concurrently; stale reads are harmless
// because they only delay a timeout by one poll.
type activityClock struct {
	nanos atomic.Int64
}

func (c *activityClock) touch() {
	c.nanos.Store(time.Now().UnixNano())
}

func (c *activityClock) elapsed() time.Duration {
	return time.Duration(time.Now().UnixNano() - c.nanos.Load())
}
