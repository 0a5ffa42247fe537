package templates

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/document"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
)

func threeBlockTemplate() domain.Template {
	return domain.Template{
		ID:   "t1",
		Name: "Three",
		Blocks: []domain.BlockSkeleton{
			{Type: domain.BlockTypeHero, Category: domain.CategoryHeader, Props: domain.Props{"title": "Hello"}},
			{Type: domain.BlockTypeText, Category: domain.CategoryContent, Props: domain.Props{"content": "Some text here"}},
			{Type: domain.BlockTypeFeatures, Category: domain.CategoryContent, Props: domain.Props{
				"features": []any{map[string]any{"id": "f1", "title": "A", "description": "B"}},
			}},
		},
	}
}

func TestInstantiate_TwiceGivesDisjointIdentities(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewEngine(document.NewEngine(registry.Default()), WithClock(func() time.Time { return now }))
	tmpl := threeBlockTemplate()

	a := e.Instantiate(tmpl)
	b := e.Instantiate(tmpl)

	require.Len(t, a.Blocks, 3)
	require.Len(t, b.Blocks, 3)
	seen := map[string]bool{}
	for i := range a.Blocks {
		assert.Equal(t, i, a.Blocks[i].Order)
		assert.Equal(t, i, b.Blocks[i].Order)
		assert.Equal(t, a.Blocks[i].Type, b.Blocks[i].Type)
		assert.Equal(t, a.Blocks[i].Props, b.Blocks[i].Props)
		seen[a.Blocks[i].ID] = true
	}
	for _, blk := range b.Blocks {
		assert.False(t, seen[blk.ID], "id %s reused", blk.ID)
	}
	assert.Equal(t, domain.Metadata{Version: 1, LastEditedAt: now}, a.Metadata)
}

func TestInstantiate_DoesNotAliasTemplate(t *testing.T) {
	e := NewEngine(document.NewEngine(registry.Default()))
	tmpl := threeBlockTemplate()

	doc := e.Instantiate(tmpl)
	doc.Blocks[0].Props["title"] = "changed"
	items, _ := doc.Blocks[2].Props.List("features")
	items[0].(map[string]any)["title"] = "changed"

	assert.Equal(t, "Hello", tmpl.Blocks[0].Props["title"])
	orig, _ := tmpl.Blocks[2].Props.List("features")
	assert.Equal(t, "A", orig[0].(map[string]any)["title"])
}

func TestBuiltinCatalog(t *testing.T) {
	reg := registry.Default()
	cat, err := Builtin(reg)
	require.NoError(t, err)

	list := cat.List()
	require.NotEmpty(t, list)
	for _, tmpl := range list {
		for _, s := range tmpl.Blocks {
			assert.True(t, reg.Has(s.Type))
			assert.NotEmpty(t, s.Category)
		}
	}

	tmpl, err := cat.Get("service-standard")
	require.NoError(t, err)
	assert.Equal(t, "Professional Services Tailored to You", tmpl.Blocks[0].Props["title"])
	// props not set in YAML fall back to registry defaults
	assert.Equal(t, "/contact", tmpl.Blocks[0].Props["ctaLink"])

	_, err = cat.Get("nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCatalogGetReturnsCopy(t *testing.T) {
	cat := NewMemoryCatalog(threeBlockTemplate())
	tmpl, err := cat.Get("t1")
	require.NoError(t, err)
	tmpl.Blocks[0].Props["title"] = "changed"

	again, _ := cat.Get("t1")
	assert.Equal(t, "Hello", again.Blocks[0].Props["title"])
}

func TestParse_Errors(t *testing.T) {
	reg := registry.Default()
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "id: [unclosed"},
		{"missing id", "name: x\nblocks:\n  - type: hero\n"},
		{"missing name", "id: x\nblocks:\n  - type: hero\n"},
		{"no blocks", "id: x\nname: x\n"},
		{"unknown type", "id: x\nname: x\nblocks:\n  - type: carousel\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), reg)
			assert.Error(t, err)
		})
	}
}

func TestParse_NormalizesNumbers(t *testing.T) {
	tmpl, err := Parse([]byte("id: x\nname: x\nblocks:\n  - type: features\n    props:\n      columns: 4\n"), registry.Default())
	require.NoError(t, err)
	assert.Equal(t, float64(4), tmpl.Blocks[0].Props["columns"])
}

func writeTemplate(t *testing.T, dir, name, id, title string) {
	t.Helper()
	body := "id: " + id + "\nname: " + title + "\nblocks:\n  - type: hero\n    props:\n      title: " + title + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestDirCatalog_OverlaysBuiltins(t *testing.T) {
	reg := registry.Default()
	builtin, err := Builtin(reg)
	require.NoError(t, err)

	dir := t.TempDir()
	writeTemplate(t, dir, "custom.yaml", "custom", "Custom Page")
	writeTemplate(t, dir, "override.yaml", "landing-minimal", "Overridden")

	cat, err := OpenDir(dir, reg, builtin.List(), nil)
	require.NoError(t, err)

	_, err = cat.Get("custom")
	assert.NoError(t, err)
	over, err := cat.Get("landing-minimal")
	require.NoError(t, err)
	assert.Equal(t, "Overridden", over.Name)
	assert.Len(t, cat.List(), len(builtin.List())+1)
}

func TestDirCatalog_MissingDirIsEmpty(t *testing.T) {
	cat, err := OpenDir(filepath.Join(t.TempDir(), "absent"), registry.Default(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, cat.List())
}

func TestDirCatalog_LogsLoadedTemplates(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "custom.yaml", "custom", "Custom Page")
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := OpenDir(dir, registry.Default(), nil, logger)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `msg="[Templates] loaded"`)
	assert.Contains(t, buf.String(), "custom=1")
}

func TestDirCatalog_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	cat, err := OpenDir(dir, registry.Default(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, cat.Watch(context.Background()))
	defer cat.Close()

	writeTemplate(t, dir, "late.yaml", "late", "Late Page")

	assert.Eventually(t, func() bool {
		_, err := cat.Get("late")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}
