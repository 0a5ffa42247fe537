package preview

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/document"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func TestRender_AllDefaultBlocks(t *testing.T) {
	r := newRenderer(t)
	reg := registry.Default()
	eng := document.NewEngine(reg)
	doc := domain.NewPageContent(time.Now())
	for _, typ := range reg.Types() {
		var err error
		doc, _, err = eng.Insert(doc, typ, document.AtEnd)
		require.NoError(t, err)
	}

	out, err := r.RenderString(doc, Options{Title: "Consulting", Device: "mobile"})
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Consulting</title>")
	assert.Contains(t, out, "max-width: 375px")
	assert.Contains(t, out, "Your Service Headline")
	assert.Contains(t, out, "Fast Delivery")
	assert.Contains(t, out, "How long does it take?")
	assert.Contains(t, out, "$99")
	assert.NotContains(t, out, "block-unknown")

	// blocks appear in document order
	hero := strings.Index(out, "block-hero")
	divider := strings.Index(out, "block-divider")
	assert.True(t, hero >= 0 && divider > hero)
}

func TestRender_TextIsMarkdownAndSanitized(t *testing.T) {
	r := newRenderer(t)
	b := domain.Block{ID: "t1", Type: domain.BlockTypeText, Props: domain.Props{
		"content": "## Our approach\n\nWe **listen** first.<script>alert(1)</script>",
	}}
	html, err := r.RenderBlock(b)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<strong>listen</strong>")
	assert.Contains(t, string(html), "<h2")
	assert.NotContains(t, string(html), "<script>")
}

func TestRender_EscapesProps(t *testing.T) {
	r := newRenderer(t)
	b := domain.Block{ID: "h1", Type: domain.BlockTypeHero, Props: domain.Props{
		"title":   `<img src=x onerror=alert(1)>`,
		"ctaText": "Go",
		"ctaLink": "javascript:alert(1)",
	}}
	html, err := r.RenderBlock(b)
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<img")
	assert.NotContains(t, string(html), "javascript:")
}

func TestRender_UnknownTypeAndDevice(t *testing.T) {
	r := newRenderer(t)
	doc := domain.PageContent{Blocks: []domain.Block{{ID: "x", Type: "carousel"}}}
	out, err := r.RenderString(doc, Options{Device: "watch"})
	require.NoError(t, err)
	assert.Contains(t, out, "Unsupported block: carousel")
	assert.Contains(t, out, "max-width: 1200px")
	assert.Contains(t, out, "<title>Preview</title>")
}
