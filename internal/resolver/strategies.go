// internal/resolver/strategies.go
package resolver

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/webloop/webloop/internal/dom"
)

// A strategy attempts to locate an element for a descriptor. It is a pure
// function: nil result means "no match for this strategy", and resolution
// moves on. Strategies never mutate the document.
type strategy struct {
	name string
	fn   func(doc *dom.Document, descriptor string) *html.Node
}

// orderedStrategies is the documented fallback chain. First match wins;
// the order itself is the tie-break between heuristics.
func orderedStrategies() []strategy {
	return []strategy{
		{name: "exact-text", fn: matchExactText},
		{name: "structural", fn: matchStructural},
		{name: "label", fn: matchLabel},
		{name: "xpath", fn: matchXPath},
		{name: "partial-text", fn: matchPartialText},
	}
}

// matchExactText finds an element whose normalized text equals the
// descriptor. Among ties, intrinsically interactive elements win over
// generic containers; remaining ties fall to document order.
func matchExactText(doc *dom.Document, descriptor string) *html.Node {
	want := dom.NormalizeText(descriptor)
	if want == "" {
		return nil
	}
	var first *html.Node
	for _, n := range doc.Elements() {
		if !dom.IsVisible(n) {
			continue
		}
		if dom.NormalizeText(dom.Text(n)) != want {
			continue
		}
		if dom.IsInteractive(n) {
			return n
		}
		if first == nil {
			first = n
		}
	}
	return first
}

// segmentRe accepts one compound segment of a structural locator:
// tag, #id, .class, or combinations like input#email.large.
var segmentRe = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9-]*)?(#[\w-]+)?((?:\.[\w-]+)+)?$`)

type structSegment struct {
	tag     string
	id      string
	classes []string
}

// parseStructural interprets the descriptor as an id/class path
// (e.g. "#signup .actions > button.primary"). It returns nil if the
// descriptor does not look structural, so plain text never ends up here.
func parseStructural(descriptor string) []structSegment {
	descriptor = strings.TrimSpace(descriptor)
	if descriptor == "" || !strings.ContainsAny(descriptor, "#.") {
		return nil
	}
	parts := strings.Fields(strings.ReplaceAll(descriptor, ">", " "))
	segs := make([]structSegment, 0, len(parts))
	for _, part := range parts {
		m := segmentRe.FindStringSubmatch(part)
		if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
			return nil
		}
		seg := structSegment{tag: strings.ToLower(m[1])}
		if m[2] != "" {
			seg.id = m[2][1:]
		}
		if m[3] != "" {
			seg.classes = strings.Split(strings.TrimPrefix(m[3], "."), ".")
		}
		segs = append(segs, seg)
	}
	return segs
}

func segmentMatches(n *html.Node, seg structSegment) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if seg.tag != "" && strings.ToLower(n.Data) != seg.tag {
		return false
	}
	if seg.id != "" && dom.Attr(n, "id") != seg.id {
		return false
	}
	if len(seg.classes) > 0 {
		have := strings.Fields(dom.Attr(n, "class"))
		set := make(map[string]bool, len(have))
		for _, c := range have {
			set[c] = true
		}
		for _, c := range seg.classes {
			if !set[c] {
				return false
			}
		}
	}
	return true
}

// matchStructural treats the descriptor as an id/class-based path and
// returns the first element matching the final segment whose ancestor chain
// satisfies the preceding segments in order.
func matchStructural(doc *dom.Document, descriptor string) *html.Node {
	segs := parseStructural(descriptor)
	if len(segs) == 0 {
		return nil
	}
	last := segs[len(segs)-1]
	rest := segs[:len(segs)-1]
	for _, n := range doc.Elements() {
		if !segmentMatches(n, last) {
			continue
		}
		// Walk ancestors backwards through the remaining segments.
		i := len(rest) - 1
		for anc := n.Parent; anc != nil && i >= 0; anc = anc.Parent {
			if segmentMatches(anc, rest[i]) {
				i--
			}
		}
		if i < 0 || len(rest) == 0 {
			return n
		}
	}
	return nil
}

// matchLabel finds an element by its accessible label: an aria-label equal
// to the descriptor, or a <label for=...> whose text matches, resolving to
// the labeled control.
func matchLabel(doc *dom.Document, descriptor string) *html.Node {
	want := dom.NormalizeText(descriptor)
	if want == "" {
		return nil
	}
	for _, n := range doc.Elements() {
		if dom.NormalizeText(dom.Attr(n, "aria-label")) == want {
			return n
		}
	}
	for _, n := range doc.Elements() {
		if strings.ToLower(n.Data) != "label" {
			continue
		}
		if dom.NormalizeText(dom.Text(n)) != want {
			continue
		}
		forID := dom.Attr(n, "for")
		if forID == "" {
			continue
		}
		if target, err := doc.Query(`//*[@id='` + forID + `']`); err == nil && target != nil {
			return target
		}
	}
	return nil
}

// matchXPath evaluates descriptors that look like path expressions. Other
// text is skipped so a plain-word descriptor is never misread as an element
// name query.
func matchXPath(doc *dom.Document, descriptor string) *html.Node {
	trimmed := strings.TrimSpace(descriptor)
	if !strings.HasPrefix(trimmed, "/") && !strings.HasPrefix(trimmed, "./") && !strings.HasPrefix(trimmed, "(") {
		return nil
	}
	n, err := doc.Query(trimmed)
	if err != nil {
		return nil
	}
	return n
}

// matchPartialText is the last resort: normalized text containment. It
// prefers interactive elements, then the shortest (most specific) matching
// text, then document order.
func matchPartialText(doc *dom.Document, descriptor string) *html.Node {
	want := dom.NormalizeText(descriptor)
	if want == "" {
		return nil
	}
	var best *html.Node
	var bestLen int
	bestInteractive := false
	for _, n := range doc.Elements() {
		if !dom.IsVisible(n) {
			continue
		}
		text := dom.NormalizeText(dom.Text(n))
		if text == "" || !strings.Contains(text, want) {
			continue
		}
		interactive := dom.IsInteractive(n)
		switch {
		case best == nil:
		case interactive && !bestInteractive:
		case interactive == bestInteractive && len(text) < bestLen:
		default:
			continue
		}
		best, bestLen, bestInteractive = n, len(text), interactive
	}
	return best
}
