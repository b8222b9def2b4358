// internal/recorder/recorder.go
// The interaction recorder distills raw capture events into a clean,
// replayable action sequence: duplicate suppression, input coalescing, and
// scroll throttling all happen here so the stored sequence reproduces what
// the user meant, not every event the page dispatched.
package recorder

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/webloop/webloop/api/schemas"
	"github.com/webloop/webloop/internal/config"
	"github.com/webloop/webloop/internal/events"
)

// State is the recorder's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

// Recorder observes raw interaction events and buffers a deduplicated,
// throttled action sequence. One session may be active at a time.
type Recorder struct {
	cfg    config.RecorderConfig
	bus    *events.Bus
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	actions []schemas.Action
	session *session
	full    bool
}

// session holds per-recording bookkeeping. Created on Start, dropped on
// Stop.
type session struct {
	startedAt time.Time
	lastTs    int64

	// scrollLimiter gates scroll recording by time; fed with event
	// timestamps so offline normalization behaves like live capture.
	scrollLimiter *rate.Limiter
	lastScrollX   int64
	lastScrollY   int64
}

// New builds an idle recorder. Events are emitted on the given bus.
func New(cfg config.RecorderConfig, bus *events.Bus, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewBus(logger)
	}
	return &Recorder{
		cfg:    cfg,
		bus:    bus,
		logger: logger.Named("recorder"),
	}
}

// Bus exposes the recorder's event bus for subscription.
func (r *Recorder) Bus() *events.Bus { return r.bus }

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start begins a recording session, discarding any previously buffered
// sequence. Starting while already recording is an error.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.state == StateRecording {
		r.mu.Unlock()
		return fmt.Errorf("recorder is already recording")
	}
	r.state = StateRecording
	r.actions = nil
	r.full = false
	interval := r.cfg.ScrollMinInterval
	if interval <= 0 {
		interval = time.Nanosecond
	}
	r.session = &session{
		startedAt:     time.Now(),
		scrollLimiter: rate.NewLimiter(rate.Every(interval), 1),
	}
	r.mu.Unlock()

	r.logger.Info("Recording started")
	r.bus.Emit(schemas.EventRecordingStarted, nil)
	return nil
}

// Stop ends the session and returns the recorded sequence. The buffer
// survives in the recorder until Clear or the next Start.
func (r *Recorder) Stop() ([]schemas.Action, error) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return nil, fmt.Errorf("recorder is not recording")
	}
	r.state = StateIdle
	r.session = nil
	out := make([]schemas.Action, len(r.actions))
	copy(out, r.actions)
	r.mu.Unlock()

	r.logger.Info("Recording stopped", zap.Int("actions", len(out)))
	r.bus.Emit(schemas.EventRecordingStopped, schemas.RecordingStoppedPayload{Actions: out})
	return out, nil
}

// Clear empties the buffered sequence. Valid only while idle.
func (r *Recorder) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateIdle {
		return fmt.Errorf("cannot clear while recording")
	}
	r.actions = nil
	return nil
}

// Actions returns a copy of the buffered sequence.
func (r *Recorder) Actions() []schemas.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schemas.Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Record feeds one raw event into the session. Events arriving while idle
// are dropped. The returned bool reports whether the event produced (or
// updated) a recorded action.
func (r *Recorder) Record(raw schemas.RawEvent) bool {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return false
	}
	// The tool's own interface and non-visual nodes are never recorded.
	if raw.Target.ToolOwned || (!raw.Target.Visible && raw.Kind != schemas.RawScroll) {
		r.mu.Unlock()
		return false
	}

	action, overwrite, ok := r.distill(raw)
	if !ok {
		r.mu.Unlock()
		return false
	}

	if overwrite {
		r.actions[len(r.actions)-1] = action
	} else {
		if len(r.actions) >= r.maxActions() {
			if !r.full {
				r.full = true
				r.logger.Warn("Recording reached the action cap; further events are dropped",
					zap.Int("max_actions", r.maxActions()))
			}
			r.mu.Unlock()
			return false
		}
		r.actions = append(r.actions, action)
	}
	count := len(r.actions)
	r.mu.Unlock()

	r.bus.Emit(schemas.EventActionRecorded, schemas.ActionRecordedPayload{Action: action, Count: count})
	return true
}

func (r *Recorder) maxActions() int {
	if r.cfg.MaxActions > 0 {
		return r.cfg.MaxActions
	}
	return schemas.DefaultMaxSequenceLength
}

// distill converts a raw event into an action, applying the capture rules.
// Caller holds the lock.
func (r *Recorder) distill(raw schemas.RawEvent) (schemas.Action, bool, bool) {
	// Timestamps are clamped monotonically non-decreasing within a session.
	ts := raw.Timestamp
	if ts < r.session.lastTs {
		ts = r.session.lastTs
	}

	var action schemas.Action
	switch raw.Kind {
	case schemas.RawClick, schemas.RawDoubleClick, schemas.RawContextMenu:
		action = schemas.Action{
			Type:      clickType(raw.Kind),
			Target:    displayDescriptor(raw.Target, false),
			Timestamp: ts,
		}
	case schemas.RawInput:
		if !raw.Target.TextEntry {
			return schemas.Action{}, false, false
		}
		action = schemas.Action{
			Type:      schemas.ActionInput,
			Target:    displayDescriptor(raw.Target, true),
			Value:     raw.Value,
			Timestamp: ts,
		}
		// A contiguous edit session keeps one action: later keystrokes
		// overwrite the previous value so replay reproduces the final text.
		if last, ok := r.lastAction(); ok && last.Type == schemas.ActionInput && last.Target == action.Target {
			r.session.lastTs = ts
			return action, true, true
		}
	case schemas.RawChange:
		action = schemas.Action{
			Type:      schemas.ActionSelect,
			Target:    displayDescriptor(raw.Target, true),
			Value:     raw.Value,
			Timestamp: ts,
		}
	case schemas.RawScroll:
		var ok bool
		action, ok = r.distillScroll(raw, ts)
		if !ok {
			return schemas.Action{}, false, false
		}
	default:
		// Hover and anything else the capture layer sends are not part of
		// the capture rules; hover actions remain authorable by hand.
		return schemas.Action{}, false, false
	}

	if action.Target == "" && action.Type.Known() && action.Type != schemas.ActionScroll && action.Type != schemas.ActionWait {
		return schemas.Action{}, false, false
	}

	// Identical action within the dedup window is a synthetic re-dispatch.
	if last, ok := r.lastAction(); ok &&
		last.Type == action.Type &&
		last.Target == action.Target &&
		last.ValueText() == action.ValueText() &&
		ts-last.Timestamp < r.cfg.DedupWindow.Milliseconds() {
		return schemas.Action{}, false, false
	}

	r.session.lastTs = ts
	return action, false, true
}

// distillScroll applies both throttle gates: minimum displacement and
// minimum interval. Direction comes from the dominant axis of movement.
func (r *Recorder) distillScroll(raw schemas.RawEvent, ts int64) (schemas.Action, bool) {
	dx := raw.ScrollX - r.session.lastScrollX
	dy := raw.ScrollY - r.session.lastScrollY
	adx, ady := abs(dx), abs(dy)
	if adx < r.cfg.ScrollMinDelta && ady < r.cfg.ScrollMinDelta {
		return schemas.Action{}, false
	}
	if !r.session.scrollLimiter.AllowN(time.UnixMilli(raw.Timestamp), 1) {
		return schemas.Action{}, false
	}

	direction := schemas.ScrollDown
	delta := ady
	if adx > ady {
		delta = adx
		if dx < 0 {
			direction = schemas.ScrollLeft
		} else {
			direction = schemas.ScrollRight
		}
	} else if dy < 0 {
		direction = schemas.ScrollUp
	}

	r.session.lastScrollX = raw.ScrollX
	r.session.lastScrollY = raw.ScrollY

	return schemas.Action{
		Type:      schemas.ActionScroll,
		Value:     delta,
		Direction: direction,
		Timestamp: ts,
	}, true
}

func (r *Recorder) lastAction() (schemas.Action, bool) {
	if len(r.actions) == 0 {
		return schemas.Action{}, false
	}
	return r.actions[len(r.actions)-1], true
}

func clickType(kind schemas.RawEventKind) schemas.ActionType {
	switch kind {
	case schemas.RawDoubleClick:
		return schemas.ActionDoubleClick
	case schemas.RawContextMenu:
		return schemas.ActionRightClick
	default:
		return schemas.ActionClick
	}
}

// displayDescriptor picks the best-effort descriptor for a target: visible
// text, then current value, then placeholder, then the structural path.
// Text-entry and selection targets skip the value step because it changes
// with every keystroke.
func displayDescriptor(t schemas.RawTarget, skipValue bool) string {
	if t.Text != "" {
		return t.Text
	}
	if !skipValue && t.Value != "" {
		return t.Value
	}
	if t.Placeholder != "" {
		return t.Placeholder
	}
	return t.Path
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
