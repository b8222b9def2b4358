package schemas

// EventName identifies a class of event emitted by the recorder or the
// replay engine. Events are delivered to local listeners only; the shape is
// transport-agnostic.
type EventName string

const (
	// Replay engine events.
	EventStarted         EventName = "started"
	EventProgress        EventName = "progress"
	EventActionCompleted EventName = "action-completed"
	EventActionFailed    EventName = "action-failed"
	EventComplete        EventName = "complete"
	EventStopped         EventName = "stopped"
	EventSequenceError   EventName = "sequence-error"

	// Recorder events.
	EventRecordingStarted EventName = "recording-started"
	EventRecordingStopped EventName = "recording-stopped"
	EventActionRecorded   EventName = "action-recorded"
)

// ActionCompletedPayload accompanies EventActionCompleted.
type ActionCompletedPayload struct {
	Index    int      `json:"index"`
	Action   Action   `json:"action"`
	Progress Progress `json:"progress"`
}

// ActionFailedPayload accompanies EventActionFailed.
type ActionFailedPayload struct {
	Index    int      `json:"index"`
	Action   Action   `json:"action"`
	Error    string   `json:"error"`
	Progress Progress `json:"progress"`
}

// ActionRecordedPayload accompanies EventActionRecorded.
type ActionRecordedPayload struct {
	Action Action `json:"action"`
	// Count is the running total of recorded actions in the session.
	Count int `json:"count"`
}

// RecordingStoppedPayload accompanies EventRecordingStopped and carries the
// finished sequence.
type RecordingStoppedPayload struct {
	Actions []Action `json:"actions"`
}
