package schemas

// -- Raw Capture Schemas --

// RawEventKind names a low-level interaction event observed on the page.
// These are what the capture layer feeds the recorder; the recorder distills
// them into Actions.
type RawEventKind string

const (
	RawClick       RawEventKind = "click"
	RawDoubleClick RawEventKind = "dblclick"
	RawContextMenu RawEventKind = "contextmenu"
	RawHover       RawEventKind = "mouseover"
	RawInput       RawEventKind = "input"
	RawChange      RawEventKind = "change"
	RawScroll      RawEventKind = "scroll"
)

// RawTarget carries the best-effort identity of the element an event hit.
// The recorder picks a display descriptor in preference order: visible text,
// then current value, then placeholder, then the structural path.
type RawTarget struct {
	Text        string `json:"text,omitempty"`
	Value       string `json:"value,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	// Path is a structural identifier (id-based or positional locator).
	Path string `json:"path,omitempty"`
	// TextEntry marks targets capable of free-text input.
	TextEntry bool `json:"text_entry,omitempty"`
	// Visible is false for non-visual document nodes; the recorder drops
	// events on invisible targets.
	Visible bool `json:"visible"`
	// ToolOwned marks elements belonging to the automation tool's own UI.
	// Always ignored by the recorder.
	ToolOwned bool `json:"tool_owned,omitempty"`
}

// RawEvent is one observed interaction, as delivered by the capture layer.
type RawEvent struct {
	Kind   RawEventKind `json:"kind"`
	Target RawTarget    `json:"target"`
	// Value is the current input value or the selected option.
	Value string `json:"value,omitempty"`
	// ScrollX and ScrollY are absolute scroll offsets at event time.
	ScrollX int64 `json:"scroll_x,omitempty"`
	ScrollY int64 `json:"scroll_y,omitempty"`
	// Timestamp is capture time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}
