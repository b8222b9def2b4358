// internal/dom/treepage.go
package dom

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/webloop/webloop/api/schemas"
)

// TreePage is an in-memory Page over a parsed Document. Interactions mutate
// the tree directly: input values land in value attributes, selects move the
// selected option, scrolls adjust tracked offsets. It backs tests and
// dry-run replays where no browser is attached.
type TreePage struct {
	mu  sync.Mutex
	doc *Document

	scrollX int64
	scrollY int64

	// ops records every dispatched interaction in order.
	ops []string

	// OnClick, when set, runs after a successful click dispatch so fixtures
	// can simulate the page reacting (DOM mutation, detachment).
	OnClick func(n *html.Node)
}

// NewTreePage wraps an already-parsed document.
func NewTreePage(doc *Document) *TreePage {
	return &TreePage{doc: doc}
}

// Document implements Source. The same live tree is returned on every call,
// so resolver cache entries stay attached until something detaches them.
func (p *TreePage) Document(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

// Ops returns the dispatch log.
func (p *TreePage) Ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.ops))
	copy(out, p.ops)
	return out
}

// ScrollOffsets returns the tracked viewport position.
func (p *TreePage) ScrollOffsets() (x, y int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrollX, p.scrollY
}

func (p *TreePage) find(selector string) (*html.Node, error) {
	n, err := p.doc.Query(selector)
	if err != nil {
		return nil, &schemas.InteractionError{Op: "locate", Err: err}
	}
	if n == nil {
		return nil, &schemas.InteractionError{Op: "locate", Err: fmt.Errorf("no element at %s", selector)}
	}
	if HasAttr(n, "disabled") {
		return nil, &schemas.InteractionError{Op: "locate", Err: fmt.Errorf("element at %s is disabled", selector)}
	}
	return n, nil
}

func (p *TreePage) log(format string, args ...any) {
	p.ops = append(p.ops, fmt.Sprintf(format, args...))
}

func (p *TreePage) pointer(ctx context.Context, op, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.find(selector)
	if err != nil {
		return err
	}
	// Checkbox and radio clicks flip state like a real pointer event would.
	if op == "click" && strings.ToLower(n.Data) == "input" {
		switch strings.ToLower(Attr(n, "type")) {
		case "checkbox":
			if HasAttr(n, "checked") {
				RemoveAttr(n, "checked")
			} else {
				SetAttr(n, "checked", "")
			}
		case "radio":
			SetAttr(n, "checked", "")
		}
	}
	p.log("%s(%s)", op, selector)
	if op == "click" && p.OnClick != nil {
		p.OnClick(n)
	}
	return nil
}

func (p *TreePage) Click(ctx context.Context, selector string) error {
	return p.pointer(ctx, "click", selector)
}

func (p *TreePage) DoubleClick(ctx context.Context, selector string) error {
	return p.pointer(ctx, "dblclick", selector)
}

func (p *TreePage) RightClick(ctx context.Context, selector string) error {
	return p.pointer(ctx, "contextmenu", selector)
}

func (p *TreePage) Hover(ctx context.Context, selector string) error {
	return p.pointer(ctx, "hover", selector)
}

func (p *TreePage) SetValue(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.find(selector)
	if err != nil {
		return err
	}
	if !IsTextEntry(n) {
		return &schemas.InteractionError{Op: "input", Err: fmt.Errorf("element at %s does not accept text", selector)}
	}
	if HasAttr(n, "readonly") {
		return &schemas.InteractionError{Op: "input", Err: fmt.Errorf("element at %s is readonly", selector)}
	}
	// Clear-then-set, mirroring focus/clear/type/change on a live page.
	SetAttr(n, "value", value)
	p.log("input(%s, %q)", selector, value)
	return nil
}

func (p *TreePage) SelectOption(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.find(selector)
	if err != nil {
		return err
	}
	switch strings.ToLower(n.Data) {
	case "select":
		var match *html.Node
		var options []*html.Node
		var walk func(*html.Node)
		walk = func(cur *html.Node) {
			for c := cur.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && strings.ToLower(c.Data) == "option" {
					options = append(options, c)
				}
				walk(c)
			}
		}
		walk(n)
		for _, opt := range options {
			v := Attr(opt, "value")
			if v == "" {
				v = Text(opt)
			}
			if v == value {
				match = opt
				break
			}
		}
		if match == nil {
			return &schemas.InteractionError{Op: "select", Err: fmt.Errorf("no option %q in %s", value, selector)}
		}
		for _, opt := range options {
			RemoveAttr(opt, "selected")
		}
		SetAttr(match, "selected", "")
	case "input":
		// Checkbox/radio selects carry "true"/"false" or the radio value.
		if value == "false" {
			RemoveAttr(n, "checked")
		} else {
			SetAttr(n, "checked", "")
		}
	default:
		return &schemas.InteractionError{Op: "select", Err: fmt.Errorf("element at %s is not a selection control", selector)}
	}
	p.log("select(%s, %q)", selector, value)
	return nil
}

func (p *TreePage) Scroll(ctx context.Context, direction schemas.ScrollDirection, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if delta < 0 {
		delta = -delta
	}
	switch direction {
	case schemas.ScrollUp:
		p.scrollY -= delta
		if p.scrollY < 0 {
			p.scrollY = 0
		}
	case schemas.ScrollLeft:
		p.scrollX -= delta
		if p.scrollX < 0 {
			p.scrollX = 0
		}
	case schemas.ScrollRight:
		p.scrollX += delta
	default:
		p.scrollY += delta
	}
	p.log("scroll(%s, %d)", direction, delta)
	return nil
}

func (p *TreePage) ScrollIntoView(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.find(selector); err != nil {
		return err
	}
	p.log("scrollIntoView(%s)", selector)
	return nil
}

func (p *TreePage) IsVisible(ctx context.Context, selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.doc.Query(selector)
	if err != nil || n == nil {
		return false
	}
	return IsVisible(n)
}
