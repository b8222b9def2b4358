// internal/dom/document_test.go
package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureHTML = `
<html>
<head><title>Checkout</title></head>
<body>
  <div id="main">
    <h1>  Order   Summary </h1>
    <button id="pay">Pay Now</button>
    <input id="email" type="text" placeholder="Email">
    <input type="hidden" name="csrf" value="tok">
    <div style="display: none"><button id="ghost">Ghost</button></div>
    <div hidden><span id="tucked">Tucked away</span></div>
    <select id="country">
      <option value="us">United States</option>
      <option value="fr">France</option>
    </select>
    <div contenteditable>Notes</div>
  </div>
</body>
</html>`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseString(src)
	require.NoError(t, err)
	return doc
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "order summary", NormalizeText("  Order   Summary "))
	assert.Equal(t, "pay now", NormalizeText("Pay\n\tNow"))
	assert.Equal(t, "", NormalizeText("   "))
}

func TestContainsAndDetach(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, fixtureHTML)

	btn, err := doc.Query(`//*[@id='pay']`)
	require.NoError(t, err)
	require.NotNil(t, btn)

	assert.True(t, doc.Contains(btn))

	doc.Detach(btn)
	assert.False(t, doc.Contains(btn))

	ref := &ElementRef{Node: btn, XPath: `//*[@id='pay']`}
	assert.False(t, ref.Attached(doc))
}

func TestElementRefAttachedAcrossDocuments(t *testing.T) {
	t.Parallel()
	docA := mustParse(t, fixtureHTML)
	docB := mustParse(t, fixtureHTML)

	btn, err := docA.Query(`//*[@id='pay']`)
	require.NoError(t, err)
	ref := &ElementRef{Node: btn}

	assert.True(t, ref.Attached(docA))
	// A node from one snapshot is never attached to another.
	assert.False(t, ref.Attached(docB))
}

func TestVisibility(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, fixtureHTML)

	visible, err := doc.Query(`//*[@id='pay']`)
	require.NoError(t, err)
	assert.True(t, IsVisible(visible))

	ghost, err := doc.Query(`//*[@id='ghost']`)
	require.NoError(t, err)
	assert.False(t, IsVisible(ghost), "display:none ancestor hides the node")

	tucked, err := doc.Query(`//*[@id='tucked']`)
	require.NoError(t, err)
	assert.False(t, IsVisible(tucked), "hidden attribute on ancestor hides the node")

	hiddenInput, err := doc.Query(`//input[@name='csrf']`)
	require.NoError(t, err)
	assert.False(t, IsVisible(hiddenInput))

	title, err := doc.Query(`//title`)
	require.NoError(t, err)
	assert.False(t, IsVisible(title), "head content is never visible")
}

func TestIsInteractive(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, `<html><body>
		<button id="b">Go</button>
		<span id="s">Go</span>
		<div id="r" role="button">Go</div>
	</body></html>`)

	b, _ := doc.Query(`//*[@id='b']`)
	s, _ := doc.Query(`//*[@id='s']`)
	r, _ := doc.Query(`//*[@id='r']`)

	assert.True(t, IsInteractive(b))
	assert.False(t, IsInteractive(s))
	assert.True(t, IsInteractive(r), "aria role counts as interactive")
}

func TestIsTextEntry(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, fixtureHTML)

	email, _ := doc.Query(`//*[@id='email']`)
	assert.True(t, IsTextEntry(email))

	hidden, _ := doc.Query(`//input[@name='csrf']`)
	assert.False(t, IsTextEntry(hidden))

	sel, _ := doc.Query(`//*[@id='country']`)
	assert.False(t, IsTextEntry(sel))
	assert.True(t, IsSelectControl(sel))

	editable, _ := doc.Query(`//div[@contenteditable]`)
	assert.True(t, IsTextEntry(editable))
}

func TestAttrHelpers(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, `<html><body><input id="f" value="old"></body></html>`)
	n, _ := doc.Query(`//*[@id='f']`)

	assert.Equal(t, "old", Attr(n, "value"))
	SetAttr(n, "value", "new")
	assert.Equal(t, "new", Attr(n, "value"))

	SetAttr(n, "data-flag", "1")
	assert.True(t, HasAttr(n, "data-flag"))
	RemoveAttr(n, "data-flag")
	assert.False(t, HasAttr(n, "data-flag"))

	var sb strings.Builder
	require.NoError(t, doc.Render(&sb))
	assert.Contains(t, sb.String(), `value="new"`)
}
