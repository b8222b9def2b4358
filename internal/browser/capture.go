// internal/browser/capture.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/webloop/webloop/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// bindingName is the runtime binding the capture script calls with each
// observed event. Elements carrying data-webloop-ui are the tool's own
// chrome and are flagged so the recorder ignores them.
const bindingName = "__webloop_capture"

// StartCapture instruments the tab to observe user interactions and
// forwards each decoded event to emit. The script is installed for all
// future documents, so capture survives navigation. Stop by canceling the
// tab context.
func (p *ChromePage) StartCapture(ctx context.Context, emit func(schemas.RawEvent)) error {
	chromedp.ListenTarget(p.ctx, func(ev interface{}) {
		binding, ok := ev.(*runtime.EventBindingCalled)
		if !ok || binding.Name != bindingName {
			return
		}
		var raw schemas.RawEvent
		if err := json.UnmarshalFromString(binding.Payload, &raw); err != nil {
			p.logger.Warn("Failed to decode captured event", zap.Error(err))
			return
		}
		emit(raw)
	})

	err := p.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		if err := runtime.AddBinding(bindingName).Do(c); err != nil {
			return fmt.Errorf("failed to add capture binding: %w", err)
		}
		if _, err := page.AddScriptToEvaluateOnNewDocument(captureScript).Do(c); err != nil {
			return fmt.Errorf("failed to install capture script: %w", err)
		}
		// Also instrument the document that is already loaded.
		return chromedp.Evaluate(captureScript, nil).Do(c)
	}))
	if err != nil {
		return err
	}
	p.logger.Info("Interaction capture started")
	return nil
}

// captureScript runs inside the page. It listens in the capture phase at
// the document level so handlers that stop propagation cannot hide events,
// and reports a compact descriptor of the target rather than the node.
const captureScript = `(() => {
	if (window.__webloopCaptureInstalled) return;
	window.__webloopCaptureInstalled = true;

	const pathOf = (el) => {
		const parts = [];
		for (let node = el; node && node.nodeType === 1; node = node.parentNode) {
			if (node.id) {
				parts.unshift('#' + node.id);
				break;
			}
			let part = node.tagName.toLowerCase();
			if (node.classList.length > 0) {
				part += '.' + node.classList[0];
			}
			parts.unshift(part);
		}
		return parts.join(' > ');
	};

	const isVisible = (el) => {
		if (!(el instanceof Element)) return false;
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') return false;
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	};

	const isTextEntry = (el) => {
		if (el.tagName === 'TEXTAREA' || el.isContentEditable) return true;
		if (el.tagName !== 'INPUT') return false;
		return !['checkbox', 'radio', 'button', 'submit', 'reset', 'file', 'image'].includes(el.type);
	};

	const describe = (el) => ({
		text: (el.innerText || '').trim().slice(0, 200),
		value: typeof el.value === 'string' ? el.value.slice(0, 200) : '',
		placeholder: el.placeholder || '',
		path: pathOf(el),
		text_entry: isTextEntry(el),
		visible: isVisible(el),
		tool_owned: !!el.closest('[data-webloop-ui]')
	});

	const report = (kind, el, extra) => {
		const payload = Object.assign({
			kind: kind,
			target: describe(el),
			timestamp: Date.now()
		}, extra || {});
		window.` + bindingName + `(JSON.stringify(payload));
	};

	for (const kind of ['click', 'dblclick', 'contextmenu']) {
		document.addEventListener(kind, (e) => {
			if (e.target instanceof Element) report(kind, e.target);
		}, true);
	}

	document.addEventListener('input', (e) => {
		const el = e.target;
		if (el instanceof Element && isTextEntry(el)) {
			report('input', el, {value: el.value !== undefined ? el.value : el.textContent});
		}
	}, true);

	document.addEventListener('change', (e) => {
		const el = e.target;
		if (!(el instanceof Element)) return;
		if (el.tagName === 'SELECT') {
			const opt = el.selectedOptions[0];
			report('change', el, {value: opt ? (opt.text.trim() || opt.value) : el.value});
		} else if (el.type === 'checkbox' || el.type === 'radio') {
			report('change', el, {value: String(el.checked)});
		}
	}, true);

	window.addEventListener('scroll', () => {
		const payload = {
			kind: 'scroll',
			target: {visible: true, path: 'window'},
			scroll_x: Math.round(window.scrollX),
			scroll_y: Math.round(window.scrollY),
			timestamp: Date.now()
		};
		window.` + bindingName + `(JSON.stringify(payload));
	}, {capture: true, passive: true});
})()`
