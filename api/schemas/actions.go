package schemas

import (
	"fmt"
	"math"
)

// -- Action Schemas --

// ActionType defines the kind of interaction an Action describes.
// The set is closed: validation rejects anything outside this enum.
type ActionType string

const (
	ActionClick       ActionType = "click"
	ActionDoubleClick ActionType = "double_click"
	ActionRightClick  ActionType = "right_click"
	ActionInput       ActionType = "input"
	ActionSelect      ActionType = "select"
	ActionScroll      ActionType = "scroll"
	ActionHover       ActionType = "hover"
	ActionWait        ActionType = "wait"
)

// ScrollDirection names the dominant axis of a scroll action.
type ScrollDirection string

const (
	ScrollUp    ScrollDirection = "up"
	ScrollDown  ScrollDirection = "down"
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
)

// DefaultMaxSequenceLength bounds how many actions a single sequence may
// carry. Guards against runaway recordings.
const DefaultMaxSequenceLength = 1000

// Action is one immutable step of a recorded or generated sequence.
//
// Target is a descriptor the resolver interprets (visible text, a structural
// locator, an accessible label, or an XPath expression). Value carries the
// type's payload: text for input, the option for select, a pixel delta for
// scroll, and a duration in milliseconds for wait.
type Action struct {
	Type      ActionType      `json:"type"`
	Target    string          `json:"target,omitempty"`
	Value     any             `json:"value,omitempty"`
	Direction ScrollDirection `json:"direction,omitempty"`
	// Timestamp is the logical capture time in Unix milliseconds. Within one
	// recording session it is monotonically non-decreasing.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// ValueText returns the string form of Value, or "" when absent.
func (a Action) ValueText() string {
	switch v := a.Value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// ValueInt returns the numeric form of Value. JSON decoding yields float64
// for numbers, so both native ints and decoded floats are accepted.
func (a Action) ValueInt() (int64, bool) {
	switch v := a.Value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// requiresTarget reports whether the action type must carry a target
// descriptor. Scroll and wait act on the page as a whole.
func (t ActionType) requiresTarget() bool {
	switch t {
	case ActionScroll, ActionWait:
		return false
	default:
		return true
	}
}

// Known reports whether t is a member of the closed action vocabulary.
func (t ActionType) Known() bool {
	switch t {
	case ActionClick, ActionDoubleClick, ActionRightClick,
		ActionInput, ActionSelect, ActionScroll, ActionHover, ActionWait:
		return true
	}
	return false
}

// Validate checks a single action against the per-type field table. It is
// pure: no document access, no defaults filled in. An action that is missing
// a required field fails closed.
func (a Action) Validate() error {
	if !a.Type.Known() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown action type %q", a.Type)}
	}
	if a.Type.requiresTarget() && a.Target == "" {
		return &ValidationError{Field: "target", Reason: fmt.Sprintf("action type %q requires a target descriptor", a.Type)}
	}
	switch a.Type {
	case ActionScroll:
		if a.Value != nil {
			if _, ok := a.ValueInt(); !ok {
				return &ValidationError{Field: "value", Reason: "scroll value must be a numeric pixel delta"}
			}
		}
		if a.Direction != "" {
			switch a.Direction {
			case ScrollUp, ScrollDown, ScrollLeft, ScrollRight:
			default:
				return &ValidationError{Field: "direction", Reason: fmt.Sprintf("unknown scroll direction %q", a.Direction)}
			}
		}
	case ActionWait:
		if a.Value != nil {
			ms, ok := a.ValueInt()
			if !ok || ms < 0 {
				return &ValidationError{Field: "value", Reason: "wait value must be a non-negative duration in milliseconds"}
			}
		}
	}
	return nil
}

// ValidateSequence validates every action of a sequence and enforces the
// length bound. maxLen <= 0 selects DefaultMaxSequenceLength.
func ValidateSequence(actions []Action, maxLen int) error {
	if maxLen <= 0 {
		maxLen = DefaultMaxSequenceLength
	}
	if len(actions) > maxLen {
		return &ValidationError{Field: "actions", Reason: fmt.Sprintf("sequence has %d actions, maximum is %d", len(actions), maxLen)}
	}
	for i, a := range actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}
