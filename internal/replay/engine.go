// internal/replay/engine.go
// The replay engine executes a validated action sequence against a page.
// Actions run strictly sequentially on one logical thread of control;
// pause, resume, and stop are cooperative and take effect between actions.
package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webloop/webloop/api/schemas"
	"github.com/webloop/webloop/internal/config"
	"github.com/webloop/webloop/internal/dom"
	"github.com/webloop/webloop/internal/events"
	"github.com/webloop/webloop/internal/resolver"
)

// defaultScrollDelta is used when a scroll action carries no pixel value.
const defaultScrollDelta = 300

// Engine replays action sequences. One job at a time per engine; separate
// engine instances share nothing, not even the resolution cache.
type Engine struct {
	page     dom.Page
	resolver *resolver.Resolver
	bus      *events.Bus
	cfg      config.ReplayConfig
	logger   *zap.Logger

	mu     sync.Mutex
	status Status
	job    *job
	tok    *token
}

// job is the per-replay bookkeeping. Terminal on completion, explicit stop,
// or an engine-level error.
type job struct {
	id      string
	actions []schemas.Action
	opts    schemas.ReplayOptions

	current   int
	completed int
	failed    int
	errs      []schemas.ActionError
	status    Status
	startedAt time.Time
}

// New builds an idle engine over the given page and resolver.
func New(page dom.Page, res *resolver.Resolver, cfg config.ReplayConfig, bus *events.Bus, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewBus(logger)
	}
	return &Engine{
		page:     page,
		resolver: res,
		bus:      bus,
		cfg:      cfg,
		logger:   logger.Named("replay"),
		status:   StatusIdle,
	}
}

// Bus exposes the engine's event bus for subscription.
func (e *Engine) Bus() *events.Bus { return e.bus }

// Status returns the engine's current lifecycle state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Progress reports the current job snapshot. Callable at any time,
// including mid-flight; with no job it reports an empty idle snapshot.
func (e *Engine) Progress() schemas.Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.job == nil {
		return schemas.Progress{Status: StatusIdle.String()}
	}
	return e.progressLocked()
}

func (e *Engine) progressLocked() schemas.Progress {
	j := e.job
	// After the engine resets to idle the snapshot keeps reporting the
	// job's terminal status.
	status := e.status
	if j.status.Terminal() {
		status = j.status
	}
	p := schemas.Progress{
		Current:   j.current,
		Total:     len(j.actions),
		Status:    status.String(),
		Completed: j.completed,
		Failed:    j.failed,
	}
	if p.Total > 0 {
		p.Percentage = float64(p.Current) / float64(p.Total) * 100
	}
	return p
}

// Pause suspends execution between actions. A no-op unless running.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !canTransition(e.status, StatusPaused) {
		return
	}
	e.status = StatusPaused
	e.tok.setPaused(true)
	e.logger.Info("Replay paused", zap.Int("current", e.job.current))
}

// Resume continues a paused job. A no-op unless paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusPaused || !canTransition(e.status, StatusRunning) {
		return
	}
	e.status = StatusRunning
	e.tok.setPaused(false)
	e.logger.Info("Replay resumed", zap.Int("current", e.job.current))
}

// Stop requests cooperative cancellation. The in-flight action finishes;
// the sequence does not advance further. A no-op unless running or paused.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusRunning && e.status != StatusPaused {
		return
	}
	e.tok.requestStop()
	e.logger.Info("Replay stop requested", zap.Int("current", e.job.current))
}

// Replay executes the sequence and blocks until the job reaches a terminal
// state. Options and actions are validated before anything runs: a bad
// options object or malformed action aborts with zero events emitted and no
// partial side effects.
func (e *Engine) Replay(ctx context.Context, actions []schemas.Action, opts schemas.ReplayOptions) (schemas.ReplayResult, error) {
	if err := opts.Normalize(); err != nil {
		return schemas.ReplayResult{}, err
	}
	if err := schemas.ValidateSequence(actions, 0); err != nil {
		return schemas.ReplayResult{}, err
	}

	e.mu.Lock()
	if e.status != StatusIdle {
		e.mu.Unlock()
		return schemas.ReplayResult{}, fmt.Errorf("engine is %s, not idle", e.status)
	}
	e.status = StatusRunning
	e.tok = &token{}
	e.job = &job{
		id:        uuid.New().String(),
		actions:   actions,
		opts:      opts,
		startedAt: time.Now(),
	}
	j := e.job
	tok := e.tok
	e.mu.Unlock()

	e.logger.Info("Replay started",
		zap.String("job_id", j.id),
		zap.Int("actions", len(actions)),
		zap.Float64("speed", opts.Speed))
	e.bus.Emit(schemas.EventStarted, e.Progress())

	final := e.run(ctx, j, tok)
	result := e.finish(j, final)
	return result, nil
}

// run is the per-action loop. It returns the terminal status.
func (e *Engine) run(ctx context.Context, j *job, tok *token) Status {
	for i, action := range j.actions {
		// Suspension point: cancellation is checked at the top of the loop,
		// before any resolver call.
		if tok.stopped() || ctx.Err() != nil {
			return StatusStopped
		}
		if err := e.waitWhilePaused(ctx, tok); err != nil {
			return StatusStopped
		}
		if tok.stopped() {
			return StatusStopped
		}

		err := e.executeAction(ctx, j, i, action)

		e.mu.Lock()
		j.current = i + 1
		if err != nil {
			j.failed++
			j.errs = append(j.errs, schemas.ActionError{Index: i, Action: action, Error: err.Error()})
		} else {
			j.completed++
		}
		progress := e.progressLocked()
		e.mu.Unlock()

		if err != nil {
			e.logger.Warn("Action failed",
				zap.Int("index", i),
				zap.String("type", string(action.Type)),
				zap.Error(err))
			e.bus.Emit(schemas.EventActionFailed, schemas.ActionFailedPayload{
				Index: i, Action: action, Error: err.Error(), Progress: progress,
			})
			if j.opts.StopOnError {
				return StatusFailed
			}
		} else {
			e.bus.Emit(schemas.EventActionCompleted, schemas.ActionCompletedPayload{
				Index: i, Action: action, Progress: progress,
			})
		}
		e.bus.Emit(schemas.EventProgress, progress)

		if ctx.Err() != nil {
			return StatusStopped
		}
	}
	return StatusComplete
}

// finish moves the engine to the terminal status, emits the end-of-job
// event, and resets to idle.
func (e *Engine) finish(j *job, final Status) schemas.ReplayResult {
	e.mu.Lock()
	if canTransition(e.status, final) {
		e.status = final
	} else if e.status == StatusPaused && final.Terminal() {
		e.status = final
	}
	j.status = e.status
	result := schemas.ReplayResult{
		Completed: j.completed,
		Failed:    j.failed,
		Errors:    j.errs,
		Status:    e.status.String(),
		Elapsed:   time.Since(j.startedAt),
	}
	// Idle is the terminal-reset state; the engine is immediately reusable.
	if canTransition(e.status, StatusIdle) {
		e.status = StatusIdle
	}
	e.mu.Unlock()

	e.logger.Info("Replay finished",
		zap.String("job_id", j.id),
		zap.String("status", result.Status),
		zap.Int("completed", result.Completed),
		zap.Int("failed", result.Failed))

	switch result.Status {
	case StatusStopped.String():
		e.bus.Emit(schemas.EventStopped, result)
	case StatusFailed.String():
		e.bus.Emit(schemas.EventSequenceError, result)
	default:
		e.bus.Emit(schemas.EventComplete, result)
	}
	return result
}

// waitWhilePaused polls until the job is resumed or stopped. Pause always
// lands between actions, never mid-action.
func (e *Engine) waitWhilePaused(ctx context.Context, tok *token) error {
	for tok.isPaused() && !tok.stopped() {
		if err := sleepCtx(ctx, e.cfg.PausePoll); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// executeAction runs one action under its wall-clock bound, retrying
// transient interaction failures. A timeout converts the outcome to a
// TimeoutError with no further retries.
func (e *Engine) executeAction(ctx context.Context, j *job, index int, action schemas.Action) error {
	actionCtx, cancel := context.WithTimeout(ctx, j.opts.ActionTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= j.opts.Retries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(actionCtx, e.cfg.RetryBackoff); err != nil {
				break
			}
			e.logger.Debug("Retrying action",
				zap.Int("index", index),
				zap.Int("attempt", attempt))
		}

		lastErr = e.dispatch(actionCtx, j, action)
		if lastErr == nil {
			return nil
		}
		if actionCtx.Err() != nil {
			break
		}
		// Only interaction failures are transient; a missing element will
		// not appear because we ask again.
		var ie *schemas.InteractionError
		if !errors.As(lastErr, &ie) {
			return lastErr
		}
	}

	if actionCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return &schemas.TimeoutError{Op: string(action.Type), Timeout: j.opts.ActionTimeout}
	}
	return lastErr
}

// dispatch resolves the target (where the type needs one), brings it into
// view, and performs the type-specific interaction with settle pacing on
// both sides.
func (e *Engine) dispatch(ctx context.Context, j *job, action schemas.Action) error {
	var selector string
	if action.Type != schemas.ActionScroll && action.Type != schemas.ActionWait {
		ref, err := e.resolver.Resolve(ctx, action.Target)
		if err != nil {
			return err
		}
		selector = ref.XPath
		if err := e.ensureVisible(ctx, selector); err != nil {
			return err
		}
	}

	if err := e.settle(ctx, j.opts.Speed); err != nil {
		return err
	}

	var err error
	switch action.Type {
	case schemas.ActionClick:
		err = e.page.Click(ctx, selector)
	case schemas.ActionDoubleClick:
		err = e.page.DoubleClick(ctx, selector)
	case schemas.ActionRightClick:
		err = e.page.RightClick(ctx, selector)
	case schemas.ActionHover:
		err = e.page.Hover(ctx, selector)
	case schemas.ActionInput:
		err = e.page.SetValue(ctx, selector, action.ValueText())
	case schemas.ActionSelect:
		err = e.page.SelectOption(ctx, selector, action.ValueText())
	case schemas.ActionScroll:
		delta := int64(defaultScrollDelta)
		if v, ok := action.ValueInt(); ok {
			delta = v
		}
		direction := action.Direction
		if direction == "" {
			direction = schemas.ScrollDown
		}
		err = e.page.Scroll(ctx, direction, delta)
	case schemas.ActionWait:
		// An explicit wait is action semantics, not pacing: it is honored
		// as-is regardless of speed.
		if ms, ok := action.ValueInt(); ok && ms > 0 {
			err = sleepCtx(ctx, time.Duration(ms)*time.Millisecond)
		}
	default:
		// Unreachable after validation.
		err = fmt.Errorf("unhandled action type %q", action.Type)
	}
	if err != nil {
		return err
	}

	return e.settle(ctx, j.opts.Speed)
}

// ensureVisible scrolls the element into view and waits, bounded, for it to
// become interactable.
func (e *Engine) ensureVisible(ctx context.Context, selector string) error {
	if e.page.IsVisible(ctx, selector) {
		return nil
	}
	if err := e.page.ScrollIntoView(ctx, selector); err != nil {
		return err
	}
	deadline := time.Now().Add(e.cfg.VisibilityWait)
	for !e.page.IsVisible(ctx, selector) {
		if time.Now().After(deadline) {
			return &schemas.InteractionError{Op: "visibility", Err: fmt.Errorf("element at %s not visible after %v", selector, e.cfg.VisibilityWait)}
		}
		if err := sleepCtx(ctx, 50*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

// settle applies the fixed pacing delay divided by the speed multiplier, so
// higher speeds shorten pacing proportionally without reordering anything.
func (e *Engine) settle(ctx context.Context, speed float64) error {
	if e.cfg.SettleDelay <= 0 || speed <= 0 {
		return nil
	}
	return sleepCtx(ctx, time.Duration(float64(e.cfg.SettleDelay)/speed))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
