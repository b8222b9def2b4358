// internal/dom/treepage_test.go
package dom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/webloop/webloop/api/schemas"
)

func newFixturePage(t *testing.T) *TreePage {
	t.Helper()
	return NewTreePage(mustParse(t, fixtureHTML))
}

func TestTreePageClick(t *testing.T) {
	t.Parallel()
	page := newFixturePage(t)
	ctx := context.Background()

	require.NoError(t, page.Click(ctx, `//*[@id='pay']`))
	assert.Equal(t, []string{`click(//*[@id='pay'])`}, page.Ops())
}

func TestTreePageClickTogglesCheckbox(t *testing.T) {
	t.Parallel()
	page := NewTreePage(mustParse(t, `<html><body><input id="opt" type="checkbox"></body></html>`))
	ctx := context.Background()
	sel := `//*[@id='opt']`

	doc, _ := page.Document(ctx)
	n, _ := doc.Query(sel)

	require.NoError(t, page.Click(ctx, sel))
	assert.True(t, HasAttr(n, "checked"))
	require.NoError(t, page.Click(ctx, sel))
	assert.False(t, HasAttr(n, "checked"))
}

func TestTreePageMissingElement(t *testing.T) {
	t.Parallel()
	page := newFixturePage(t)
	err := page.Click(context.Background(), `//*[@id='nope']`)
	require.Error(t, err)

	var ie *schemas.InteractionError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "locate", ie.Op)
}

func TestTreePageDisabledElement(t *testing.T) {
	t.Parallel()
	page := NewTreePage(mustParse(t, `<html><body><button id="b" disabled>Go</button></body></html>`))
	err := page.Click(context.Background(), `//*[@id='b']`)
	require.Error(t, err)
	var ie *schemas.InteractionError
	assert.ErrorAs(t, err, &ie)
}

func TestTreePageSetValue(t *testing.T) {
	t.Parallel()
	page := newFixturePage(t)
	ctx := context.Background()
	sel := `//*[@id='email']`

	require.NoError(t, page.SetValue(ctx, sel, "user@example.com"))

	doc, _ := page.Document(ctx)
	n, _ := doc.Query(sel)
	assert.Equal(t, "user@example.com", Attr(n, "value"))

	// Overwrite, not append.
	require.NoError(t, page.SetValue(ctx, sel, "second"))
	assert.Equal(t, "second", Attr(n, "value"))
}

func TestTreePageSetValueRejectsNonTextTargets(t *testing.T) {
	t.Parallel()
	page := newFixturePage(t)
	err := page.SetValue(context.Background(), `//*[@id='pay']`, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not accept text")
}

func TestTreePageSetValueRejectsReadonly(t *testing.T) {
	t.Parallel()
	page := NewTreePage(mustParse(t, `<html><body><input id="f" readonly></body></html>`))
	err := page.SetValue(context.Background(), `//*[@id='f']`, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "readonly")
}

func TestTreePageSelectOption(t *testing.T) {
	t.Parallel()
	page := newFixturePage(t)
	ctx := context.Background()
	sel := `//*[@id='country']`

	require.NoError(t, page.SelectOption(ctx, sel, "fr"))

	doc, _ := page.Document(ctx)
	opt, _ := doc.Query(`//option[@value='fr']`)
	assert.True(t, HasAttr(opt, "selected"))

	// Matching by visible text works when the value does not match.
	require.NoError(t, page.SelectOption(ctx, sel, "United States"))
	us, _ := doc.Query(`//option[@value='us']`)
	assert.True(t, HasAttr(us, "selected"))
	assert.False(t, HasAttr(opt, "selected"), "previous selection cleared")

	err := page.SelectOption(ctx, sel, "atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no option")
}

func TestTreePageScrollTracking(t *testing.T) {
	t.Parallel()
	page := newFixturePage(t)
	ctx := context.Background()

	require.NoError(t, page.Scroll(ctx, schemas.ScrollDown, 400))
	require.NoError(t, page.Scroll(ctx, schemas.ScrollRight, 120))
	require.NoError(t, page.Scroll(ctx, schemas.ScrollUp, 150))

	x, y := page.ScrollOffsets()
	assert.Equal(t, int64(120), x)
	assert.Equal(t, int64(250), y)

	// Never scrolls past the origin.
	require.NoError(t, page.Scroll(ctx, schemas.ScrollUp, 9999))
	_, y = page.ScrollOffsets()
	assert.Equal(t, int64(0), y)
}

func TestTreePageVisibility(t *testing.T) {
	t.Parallel()
	page := newFixturePage(t)
	ctx := context.Background()

	assert.True(t, page.IsVisible(ctx, `//*[@id='pay']`))
	assert.False(t, page.IsVisible(ctx, `//*[@id='ghost']`))
	assert.False(t, page.IsVisible(ctx, `//*[@id='missing']`))
}

func TestTreePageOnClickHook(t *testing.T) {
	t.Parallel()
	page := newFixturePage(t)
	ctx := context.Background()

	doc, _ := page.Document(ctx)
	var clicked bool
	page.OnClick = func(n *html.Node) { clicked = true; doc.Detach(n) }

	btn, _ := doc.Query(`//*[@id='pay']`)
	require.NoError(t, page.Click(ctx, `//*[@id='pay']`))
	assert.True(t, clicked)
	assert.False(t, doc.Contains(btn), "hook simulated the page removing the button")
}

func TestTreePageCanceledContext(t *testing.T) {
	t.Parallel()
	page := newFixturePage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, page.Click(ctx, `//*[@id='pay']`))
	assert.Error(t, page.SetValue(ctx, `//*[@id='email']`, "x"))
	assert.Error(t, page.Scroll(ctx, schemas.ScrollDown, 10))
}
