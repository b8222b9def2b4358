// internal/browser/page.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/webloop/webloop/api/schemas"
	"github.com/webloop/webloop/internal/config"
	"github.com/webloop/webloop/internal/dom"
)

// ChromePage drives the browser tab over CDP. Selectors are XPath
// expressions, so every query runs with BySearch. It also serves parsed
// HTML snapshots for resolution; a snapshot is cached until the next
// mutating interaction invalidates it.
type ChromePage struct {
	ctx    context.Context
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu   sync.Mutex
	doc  *dom.Document
	dirt bool
}

func newChromePage(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) *ChromePage {
	return &ChromePage{ctx: ctx, cfg: cfg, logger: logger.Named("page"), dirt: true}
}

// Navigate loads the URL and waits the configured post-load period for the
// page to settle.
func (p *ChromePage) Navigate(ctx context.Context, url string) error {
	p.logger.Debug("Navigating", zap.String("url", url))

	timeout := p.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.run(navCtx, chromedp.Navigate(url)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation timed out after %s: %w", timeout, err)
		}
		return fmt.Errorf("navigation failed: %w", err)
	}

	if p.cfg.PostLoadWait > 0 {
		if err := p.run(ctx, chromedp.Sleep(p.cfg.PostLoadWait)); err != nil {
			return err
		}
	}
	p.invalidate()
	return nil
}

// Document parses the tab's current HTML. Snapshots are reused until an
// interaction dirties the page, so back-to-back resolutions during one
// action do not re-fetch.
func (p *ChromePage) Document(ctx context.Context) (*dom.Document, error) {
	p.mu.Lock()
	if !p.dirt && p.doc != nil {
		doc := p.doc
		p.mu.Unlock()
		return doc, nil
	}
	p.mu.Unlock()

	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("failed to capture page HTML: %w", err)
	}
	doc, err := dom.ParseString(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	p.mu.Lock()
	p.doc = doc
	p.dirt = false
	p.mu.Unlock()
	return doc, nil
}

func (p *ChromePage) Click(ctx context.Context, selector string) error {
	return p.interact(ctx, "click", selector,
		chromedp.Click(selector, chromedp.BySearch))
}

func (p *ChromePage) DoubleClick(ctx context.Context, selector string) error {
	return p.interact(ctx, "double_click", selector,
		chromedp.DoubleClick(selector, chromedp.BySearch))
}

// RightClick dispatches a contextmenu event. chromedp's query-based Click
// has no button option, so the event goes through the page's own dispatcher.
func (p *ChromePage) RightClick(ctx context.Context, selector string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) return false;
		el.dispatchEvent(new MouseEvent('contextmenu', {bubbles: true, button: 2}));
		return true;
	})()`, selector)

	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return &schemas.InteractionError{Op: "right_click", Err: fmt.Errorf("selector %s: %w", selector, err)}
	}
	if !ok {
		return &schemas.InteractionError{Op: "right_click", Err: fmt.Errorf("no element at %s", selector)}
	}
	p.invalidate()
	return nil
}

func (p *ChromePage) Hover(ctx context.Context, selector string) error {
	// Hover must not dirty the snapshot by itself; pages that mutate on
	// hover get re-read on the next mutating action anyway.
	err := p.run(ctx, hoverAction(selector))
	if err != nil {
		return &schemas.InteractionError{Op: "hover", Err: fmt.Errorf("selector %s: %w", selector, err)}
	}
	return nil
}

// SetValue clears the element and types the new value, then fires input and
// change events so framework listeners observe the edit.
func (p *ChromePage) SetValue(ctx context.Context, selector, value string) error {
	tasks := chromedp.Tasks{
		chromedp.Focus(selector, chromedp.BySearch),
		chromedp.SetValue(selector, "", chromedp.BySearch),
		chromedp.SendKeys(selector, value, chromedp.BySearch),
		fireEvents(selector, "input", "change"),
	}
	return p.interact(ctx, "input", selector, tasks)
}

// SelectOption picks an option by value, falling back to visible text when
// no value matches.
func (p *ChromePage) SelectOption(ctx context.Context, selector, value string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) return false;
		if (el.tagName === 'SELECT') {
			for (const opt of el.options) {
				if (opt.value === %[2]q || opt.text.trim() === %[2]q) {
					el.value = opt.value;
					el.dispatchEvent(new Event('input', {bubbles: true}));
					el.dispatchEvent(new Event('change', {bubbles: true}));
					return true;
				}
			}
			return false;
		}
		if (el.type === 'checkbox' || el.type === 'radio') {
			el.checked = %[2]q !== 'false';
			el.dispatchEvent(new Event('change', {bubbles: true}));
			return true;
		}
		return false;
	})()`, selector, value)

	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return &schemas.InteractionError{Op: "select", Err: fmt.Errorf("selector %s: %w", selector, err)}
	}
	if !ok {
		return &schemas.InteractionError{Op: "select", Err: fmt.Errorf("no option %q on element at %s", value, selector)}
	}
	p.invalidate()
	return nil
}

// Scroll moves the viewport by delta pixels along the direction's axis.
func (p *ChromePage) Scroll(ctx context.Context, direction schemas.ScrollDirection, delta int64) error {
	var x, y int64
	switch direction {
	case schemas.ScrollUp:
		y = -delta
	case schemas.ScrollDown:
		y = delta
	case schemas.ScrollLeft:
		x = -delta
	case schemas.ScrollRight:
		x = delta
	default:
		return &schemas.ValidationError{Field: "direction", Reason: fmt.Sprintf("unknown scroll direction %q", direction)}
	}
	script := fmt.Sprintf(`window.scrollBy({left: %d, top: %d, behavior: 'instant'});`, x, y)
	if err := p.run(ctx, chromedp.Evaluate(script, nil)); err != nil {
		return &schemas.InteractionError{Op: "scroll", Err: err}
	}
	return nil
}

func (p *ChromePage) ScrollIntoView(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.ScrollIntoView(selector, chromedp.BySearch)); err != nil {
		return &schemas.InteractionError{Op: "scroll_into_view", Err: fmt.Errorf("selector %s: %w", selector, err)}
	}
	return nil
}

// IsVisible checks geometry and computed style in-page. Errors read as not
// visible; the engine's bounded wait handles the retry.
func (p *ChromePage) IsVisible(ctx context.Context, selector string) bool {
	script := fmt.Sprintf(`(() => {
		const el = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) return false;
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') return false;
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	})()`, selector)

	var visible bool
	if err := p.run(ctx, chromedp.Evaluate(script, &visible)); err != nil {
		p.logger.Debug("Visibility probe failed", zap.String("selector", selector), zap.Error(err))
		return false
	}
	return visible
}

// interact wraps a mutating chromedp action with a visibility precondition
// and snapshot invalidation.
func (p *ChromePage) interact(ctx context.Context, op, selector string, action chromedp.Action) error {
	tasks := chromedp.Tasks{
		chromedp.WaitVisible(selector, chromedp.BySearch),
		action,
	}
	if err := p.run(ctx, tasks); err != nil {
		return &schemas.InteractionError{Op: op, Err: fmt.Errorf("selector %s: %w", selector, err)}
	}
	p.invalidate()
	return nil
}

func (p *ChromePage) invalidate() {
	p.mu.Lock()
	p.dirt = true
	p.mu.Unlock()
}

// run executes actions under both the tab lifetime and the caller context.
func (p *ChromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := combineContext(p.ctx, ctx)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

// hoverAction dispatches mouseover via JS. chromedp has no first-class
// hover, and a real mouse move would need element coordinates.
func hoverAction(selector string) chromedp.Action {
	script := fmt.Sprintf(`(() => {
		const el = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) return false;
		el.dispatchEvent(new MouseEvent('mouseover', {bubbles: true}));
		el.dispatchEvent(new MouseEvent('mouseenter', {bubbles: false}));
		return true;
	})()`, selector)
	var ok bool
	return chromedp.Tasks{
		chromedp.Evaluate(script, &ok),
		chromedp.ActionFunc(func(context.Context) error {
			if !ok {
				return fmt.Errorf("no element at %s", selector)
			}
			return nil
		}),
	}
}

func fireEvents(selector string, names ...string) chromedp.Action {
	script := fmt.Sprintf(`(() => {
		const el = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) return;`, selector)
	for _, name := range names {
		script += fmt.Sprintf("\n\t\tel.dispatchEvent(new Event(%q, {bubbles: true}));", name)
	}
	script += "\n\t})()"
	return chromedp.Evaluate(script, nil)
}

// combineContext derives a context that is canceled when either parent is.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(primary)
	stop := context.AfterFunc(secondary, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
