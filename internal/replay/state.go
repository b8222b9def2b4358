// internal/replay/state.go
package replay

import "sync"

// Status models the replay lifecycle as an explicit enum. Illegal
// transitions are rejected by canTransition, so a Resume on an idle engine
// is a no-op by construction rather than by convention.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
	StatusComplete
	StatusStopped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusComplete:
		return "complete"
	case StatusStopped:
		return "stopped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends a job.
func (s Status) Terminal() bool {
	switch s {
	case StatusComplete, StatusStopped, StatusFailed:
		return true
	}
	return false
}

// canTransition validates a status change. Idle is both the initial state
// and the reset state a finished job returns to.
func canTransition(from, to Status) bool {
	switch from {
	case StatusIdle:
		return to == StatusRunning
	case StatusRunning:
		return to == StatusPaused || to.Terminal()
	case StatusPaused:
		return to == StatusRunning || to == StatusStopped || to == StatusFailed
	case StatusComplete, StatusStopped, StatusFailed:
		return to == StatusIdle
	}
	return false
}

// token is the shared cancellation flag object handed to the execution
// loop. Stop and pause are cooperative: the loop checks the token at
// well-defined suspension points (the top of the per-action loop and before
// resolver calls), never mid-dispatch.
type token struct {
	mu     sync.Mutex
	stop   bool
	paused bool
}

func (t *token) requestStop() {
	t.mu.Lock()
	t.stop = true
	t.paused = false
	t.mu.Unlock()
}

func (t *token) stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop
}

func (t *token) setPaused(p bool) {
	t.mu.Lock()
	t.paused = p
	t.mu.Unlock()
}

func (t *token) isPaused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}
