package schemas

import (
	"fmt"
	"time"
)

// -- Replay Options --

// ReplaySpeeds is the enumerated set of accepted speed multipliers. Values
// outside this set are rejected before any execution begins.
var ReplaySpeeds = []float64{0.5, 1, 1.5, 2}

const (
	// MinActionTimeout and MaxActionTimeout bound the per-action wall clock.
	MinActionTimeout = 5 * time.Second
	MaxActionTimeout = 10 * time.Minute
)

// ReplayOptions tunes a single replay job. Validation is fail-fast: a bad
// options object aborts the job before the first action runs.
type ReplayOptions struct {
	// Speed divides the engine's settle delays. Must be one of ReplaySpeeds.
	Speed float64 `json:"speed"`
	// ActionTimeout is the wall-clock bound for one action, retries included.
	ActionTimeout time.Duration `json:"action_timeout"`
	// StopOnError aborts the whole job on the first per-action failure.
	// The default keeps going and accumulates failures in the result.
	StopOnError bool `json:"stop_on_error"`
	// Retries is how many times a transient interaction failure is retried
	// before the action is counted as failed.
	Retries int `json:"retries"`
}

// DefaultReplayOptions returns the options used when the caller passes the
// zero value for a field.
func DefaultReplayOptions() ReplayOptions {
	return ReplayOptions{
		Speed:         1,
		ActionTimeout: 30 * time.Second,
		Retries:       2,
	}
}

// Normalize fills zero-valued fields from the defaults, then validates.
func (o *ReplayOptions) Normalize() error {
	def := DefaultReplayOptions()
	if o.Speed == 0 {
		o.Speed = def.Speed
	}
	if o.ActionTimeout == 0 {
		o.ActionTimeout = def.ActionTimeout
	}
	if o.Retries == 0 {
		o.Retries = def.Retries
	}
	return o.Validate()
}

// Validate checks the options without touching any defaults.
func (o ReplayOptions) Validate() error {
	valid := false
	for _, s := range ReplaySpeeds {
		if o.Speed == s {
			valid = true
			break
		}
	}
	if !valid {
		return &ValidationError{Field: "speed", Reason: fmt.Sprintf("speed %v is not one of %v", o.Speed, ReplaySpeeds)}
	}
	if o.ActionTimeout < MinActionTimeout || o.ActionTimeout > MaxActionTimeout {
		return &ValidationError{Field: "action_timeout", Reason: fmt.Sprintf("timeout %v outside [%v, %v]", o.ActionTimeout, MinActionTimeout, MaxActionTimeout)}
	}
	if o.Retries < 0 {
		return &ValidationError{Field: "retries", Reason: "retries must be non-negative"}
	}
	return nil
}

// -- Replay Outcome --

// ActionError records one per-action failure inside a replay job.
type ActionError struct {
	Index  int    `json:"index"`
	Action Action `json:"action"`
	Error  string `json:"error"`
}

// ReplayResult summarizes a finished replay job.
type ReplayResult struct {
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Errors    []ActionError `json:"errors,omitempty"`
	Status    string        `json:"status"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Progress is a point-in-time snapshot of a replay job. Current is
// monotonically increasing across failures so a consumer can always render
// "N of M done" accurately.
type Progress struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
	Completed  int     `json:"completed"`
	Failed     int     `json:"failed"`
}
