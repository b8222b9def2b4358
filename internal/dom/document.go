// internal/dom/document.go
package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document wraps a parsed HTML tree. It is the engine's view of the live
// page: mutable, untyped, and assumed single-writer while a replay runs.
type Document struct {
	root *html.Node
}

// Parse builds a Document from serialized HTML.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node of the tree.
func (d *Document) Root() *html.Node { return d.root }

// Contains reports whether n is still attached to this document. A node
// removed by a page mutation (or belonging to an older snapshot) is not.
func (d *Document) Contains(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == d.root {
			return true
		}
	}
	return false
}

// Detach removes n from the tree. Used by mutation simulations and tests to
// model the page tearing an element out from under a cached reference.
func (d *Document) Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Render serializes the current tree back to HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// ElementRef is a resolved handle on a page element. XPath is a unique
// locator regenerated at resolution time; Node is the live tree node.
type ElementRef struct {
	Node  *html.Node
	XPath string
}

// Attached reports whether the reference still points into doc.
func (r *ElementRef) Attached(doc *Document) bool {
	return r != nil && doc != nil && doc.Contains(r.Node)
}

// NormalizeText trims, collapses internal whitespace, and case-folds.
// Both sides of every text comparison in resolution go through this.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Text returns the trimmed visible text content of a node.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.InnerText(n))
}

// Attr returns the value of the named attribute, or "".
func Attr(n *html.Node, name string) string {
	return htmlquery.SelectAttr(n, name)
}

// HasAttr reports whether the attribute is present at all.
func HasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

// SetAttr writes an attribute, replacing any existing value.
func SetAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, name string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// interactiveTags are element names that carry intrinsic interaction
// semantics. Used to break ties between text matches.
var interactiveTags = map[string]bool{
	"a":        true,
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"summary":  true,
	"option":   true,
}

// interactiveRoles mirror the ARIA roles the capture layer treats as
// clickable.
var interactiveRoles = map[string]bool{
	"button":   true,
	"link":     true,
	"tab":      true,
	"menuitem": true,
	"checkbox": true,
	"radio":    true,
}

// IsInteractive reports whether a node is intrinsically interactive, either
// by tag name or by an explicit ARIA role.
func IsInteractive(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if interactiveTags[strings.ToLower(n.Data)] {
		return true
	}
	return interactiveRoles[strings.ToLower(Attr(n, "role"))]
}

// nonVisualTags never produce rendered content.
var nonVisualTags = map[string]bool{
	"head": true, "script": true, "style": true, "meta": true,
	"link": true, "title": true, "template": true, "noscript": true,
}

// IsVisible is a structural visibility check: it rejects non-visual tags,
// hidden inputs, the hidden attribute, and inline display:none or
// visibility:hidden on the node or any ancestor. It does not attempt full
// style computation.
func IsVisible(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if strings.ToLower(n.Data) == "input" && strings.EqualFold(Attr(n, "type"), "hidden") {
		return false
	}
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if nonVisualTags[strings.ToLower(cur.Data)] {
			return false
		}
		if HasAttr(cur, "hidden") {
			return false
		}
		style := strings.ReplaceAll(strings.ToLower(Attr(cur, "style")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

// IsTextEntry reports whether the element accepts free-text input. It
// distinguishes text fields from click-style inputs (checkbox, radio,
// submit) and recognizes contenteditable regions.
func IsTextEntry(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch strings.ToLower(n.Data) {
	case "textarea":
		return true
	case "input":
		switch strings.ToLower(Attr(n, "type")) {
		case "hidden", "submit", "button", "reset", "image", "checkbox", "radio", "file":
			return false
		default:
			return true
		}
	}
	if HasAttr(n, "contenteditable") {
		v := strings.TrimSpace(strings.ToLower(Attr(n, "contenteditable")))
		return v == "true" || v == ""
	}
	return false
}

// IsSelectControl reports whether change events on this element should be
// recorded as select-family actions.
func IsSelectControl(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch strings.ToLower(n.Data) {
	case "select":
		return true
	case "input":
		t := strings.ToLower(Attr(n, "type"))
		return t == "checkbox" || t == "radio"
	}
	return false
}
