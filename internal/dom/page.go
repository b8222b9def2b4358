// internal/dom/page.go
package dom

import (
	"context"

	"github.com/webloop/webloop/api/schemas"
)

// Page is the dispatch surface the replay engine drives. Selectors are
// XPath expressions produced by the resolver. Implementations must be safe
// to call from a single replay goroutine; they are never called
// concurrently.
type Page interface {
	// Click, DoubleClick, RightClick, and Hover dispatch synthetic pointer
	// interactions on the element at the selector.
	Click(ctx context.Context, selector string) error
	DoubleClick(ctx context.Context, selector string) error
	RightClick(ctx context.Context, selector string) error
	Hover(ctx context.Context, selector string) error

	// SetValue focuses the element, clears any existing value, sets the new
	// one, and emits the document-level change notifications the host page
	// expects.
	SetValue(ctx context.Context, selector, value string) error

	// SelectOption picks an option on a selection control by value.
	SelectOption(ctx context.Context, selector, value string) error

	// Scroll moves the viewport by delta pixels along the given direction's
	// axis.
	Scroll(ctx context.Context, direction schemas.ScrollDirection, delta int64) error

	// ScrollIntoView brings the element into the viewport before an
	// interaction. Bounded; it must not wait indefinitely.
	ScrollIntoView(ctx context.Context, selector string) error

	// IsVisible reports whether the element is currently rendered and
	// interactable.
	IsVisible(ctx context.Context, selector string) bool
}

// Source supplies the current document for resolution. Implementations may
// return the same live tree on every call (in-memory page) or a parsed
// snapshot refreshed after mutations (browser page).
type Source interface {
	Document(ctx context.Context) (*Document, error)
}
