package schemas

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by the resolver when no strategy produced a match.
// The replay engine treats it as a per-action failure, never a crash.
var ErrNotFound = errors.New("element not found")

// ValidationError reports a malformed action or options object. It is always
// fatal to the call that produced it and is never silently coerced.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ResolutionError wraps ErrNotFound with the descriptor that failed.
type ResolutionError struct {
	Descriptor string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve target %q", e.Descriptor)
}

func (e *ResolutionError) Unwrap() error { return ErrNotFound }

// InteractionError reports that a resolved element rejected the interaction,
// e.g. it was not interactable at dispatch time. Interaction failures are
// retried up to the configured count before the action is counted as failed.
type InteractionError struct {
	Op  string
	Err error
}

func (e *InteractionError) Error() string {
	return fmt.Sprintf("interaction %s failed: %v", e.Op, e.Err)
}

func (e *InteractionError) Unwrap() error { return e.Err }

// TimeoutError reports that an action exceeded its wall-clock bound. No
// further retries are attempted once a timeout occurs.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Op, e.Timeout)
}
