package document

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
)

func newEngine() *Engine {
	return NewEngine(registry.Default())
}

func emptyDoc() domain.PageContent {
	return domain.NewPageContent(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

// assertOrdered checks that orders are 0..N-1 in array position and ids are unique.
func assertOrdered(t *testing.T, doc domain.PageContent) {
	t.Helper()
	seen := map[string]bool{}
	for i, b := range doc.Blocks {
		require.Equal(t, i, b.Order, "block %d has order %d", i, b.Order)
		require.False(t, seen[b.ID], "duplicate id %s", b.ID)
		seen[b.ID] = true
	}
}

func ids(blocks []domain.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.ID
	}
	return out
}

func buildDoc(t *testing.T, e *Engine, types ...domain.BlockType) domain.PageContent {
	t.Helper()
	doc := emptyDoc()
	for _, typ := range types {
		var err error
		doc, _, err = e.Insert(doc, typ, AtEnd)
		require.NoError(t, err)
	}
	return doc
}

func TestInsertThenRemove(t *testing.T) {
	e := newEngine()
	doc, b, err := e.Insert(emptyDoc(), domain.BlockTypeHero, AtEnd)
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, 0, doc.Blocks[0].Order)
	assert.Equal(t, domain.CategoryHeader, b.Category)

	doc = Remove(doc, b.ID)
	assert.NotNil(t, doc.Blocks)
	assert.Empty(t, doc.Blocks)
}

func TestInsertAtPosition(t *testing.T) {
	e := newEngine()
	doc := buildDoc(t, e, domain.BlockTypeHero, domain.BlockTypeCTA)

	doc, b, err := e.Insert(doc, domain.BlockTypeText, 1)
	require.NoError(t, err)
	assert.Equal(t, b.ID, doc.Blocks[1].ID)
	assert.Equal(t, domain.BlockTypeCTA, doc.Blocks[2].Type)
	assertOrdered(t, doc)

	_, _, err = e.Insert(doc, domain.BlockTypeText, 4)
	assert.True(t, errors.Is(err, domain.ErrIndexOutOfRange))

	_, _, err = e.Insert(doc, "carousel", AtEnd)
	assert.True(t, errors.Is(err, domain.ErrUnknownBlockType))
}

func TestInsertDoesNotMutateInput(t *testing.T) {
	e := newEngine()
	doc := buildDoc(t, e, domain.BlockTypeHero)
	before := doc.Clone()

	_, _, err := e.Insert(doc, domain.BlockTypeText, 0)
	require.NoError(t, err)
	assert.Equal(t, before, doc)
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	e := newEngine()
	doc := buildDoc(t, e, domain.BlockTypeHero, domain.BlockTypeText)
	assert.Equal(t, doc, Remove(doc, "missing"))
}

func TestDuplicate(t *testing.T) {
	e := newEngine()
	doc := buildDoc(t, e, domain.BlockTypeHero, domain.BlockTypeFeatures, domain.BlockTypeCTA)
	src := doc.Blocks[1]

	out, dup, err := e.Duplicate(doc, src.ID)
	require.NoError(t, err)
	require.Len(t, out.Blocks, 4)
	assert.Equal(t, dup.ID, out.Blocks[2].ID)
	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, src.Props, dup.Props)
	assertOrdered(t, out)

	// The copy must not share nested props with the original.
	items, _ := out.Blocks[2].Props.List("features")
	items[0].(map[string]any)["title"] = "changed"
	orig, _ := out.Blocks[1].Props.List("features")
	assert.NotEqual(t, "changed", orig[0].(map[string]any)["title"])

	_, _, err = e.Duplicate(doc, "missing")
	assert.True(t, errors.Is(err, domain.ErrBlockNotFound))
}

func TestBoundaryMovesAreNoops(t *testing.T) {
	e := newEngine()
	doc := buildDoc(t, e, domain.BlockTypeHero, domain.BlockTypeText, domain.BlockTypeCTA)

	up, err := MoveUp(doc, doc.Blocks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, doc, up)

	down, err := MoveDown(doc, doc.Blocks[2].ID)
	require.NoError(t, err)
	assert.Equal(t, doc, down)
}

func TestMoves(t *testing.T) {
	e := newEngine()
	doc := buildDoc(t, e, domain.BlockTypeHero, domain.BlockTypeText, domain.BlockTypeCTA)
	want := []string{doc.Blocks[1].ID, doc.Blocks[0].ID, doc.Blocks[2].ID}

	out, err := MoveUp(doc, doc.Blocks[1].ID)
	require.NoError(t, err)
	assert.Equal(t, want, ids(out.Blocks))
	assertOrdered(t, out)

	out, err = MoveDown(out, want[1])
	require.NoError(t, err)
	assert.Equal(t, []string{want[0], want[2], want[1]}, ids(out.Blocks))

	_, err = MoveUp(doc, "missing")
	assert.True(t, errors.Is(err, domain.ErrBlockNotFound))
}

func TestReorderByDrag(t *testing.T) {
	e := newEngine()
	doc := buildDoc(t, e, domain.BlockTypeHero, domain.BlockTypeText, domain.BlockTypeCTA, domain.BlockTypeFAQ)
	orig := ids(doc.Blocks)

	out, err := ReorderByDrag(doc, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{orig[1], orig[2], orig[3], orig[0]}, ids(out.Blocks))
	assertOrdered(t, out)

	out, err = ReorderByDrag(doc, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{orig[0], orig[3], orig[1], orig[2]}, ids(out.Blocks))

	for _, tc := range [][2]int{{-1, 0}, {4, 0}, {0, 4}, {0, -1}} {
		_, err := ReorderByDrag(doc, tc[0], tc[1])
		assert.True(t, errors.Is(err, domain.ErrIndexOutOfRange), "from=%d to=%d", tc[0], tc[1])
	}
}

func TestBulkUpdateProps(t *testing.T) {
	e := newEngine()
	doc := buildDoc(t, e, domain.BlockTypeHero)
	id := doc.Blocks[0].ID

	out, err := BulkUpdateProps(doc, id, domain.Props{"title": "New Title", "extra": "x"})
	require.NoError(t, err)
	b, _ := Find(out, id)
	assert.Equal(t, "New Title", b.Props["title"])
	assert.Equal(t, "x", b.Props["extra"])
	assert.Equal(t, doc.Blocks[0].Props["subtitle"], b.Props["subtitle"])
	assert.Equal(t, "Your Service Headline", doc.Blocks[0].Props["title"], "input untouched")

	_, err = BulkUpdateProps(doc, "missing", domain.Props{})
	assert.True(t, errors.Is(err, domain.ErrBlockNotFound))
}

func TestBulkUpdateProps_NormalizesValues(t *testing.T) {
	e := newEngine()
	doc := buildDoc(t, e, domain.BlockTypeStats)
	id := doc.Blocks[0].ID

	out, err := BulkUpdateProps(doc, id, domain.Props{"columns": 4, "tags": []string{"a", "b"}})
	require.NoError(t, err)
	b, _ := Find(out, id)
	assert.Equal(t, float64(4), b.Props["columns"])
	assert.Equal(t, []any{"a", "b"}, b.Props["tags"])

	_, err = BulkUpdateProps(doc, id, domain.Props{"bad": make(chan int)})
	assert.ErrorIs(t, err, domain.ErrInvalidProps)
	var opErr *domain.OperationError
	assert.ErrorAs(t, err, &opErr)
}

func TestSearchAndFilters(t *testing.T) {
	e := newEngine()
	doc := buildDoc(t, e, domain.BlockTypeHero, domain.BlockTypeTestimonials, domain.BlockTypeStats, domain.BlockTypeText)

	hits := Search(doc, "jane DOE")
	require.Len(t, hits, 1)
	assert.Equal(t, domain.BlockTypeTestimonials, hits[0].Type)

	hits = Search(doc, "HERO")
	require.Len(t, hits, 1)
	assert.Equal(t, domain.BlockTypeHero, hits[0].Type)

	assert.Len(t, Search(doc, ""), 4)
	assert.Empty(t, Search(doc, "zzz-no-match"))

	social := FilterByCategory(doc, domain.CategorySocialProof)
	assert.Equal(t, []domain.BlockType{domain.BlockTypeTestimonials, domain.BlockTypeStats},
		[]domain.BlockType{social[0].Type, social[1].Type})
	assert.Len(t, FilterByType(doc, domain.BlockTypeText), 1)
}

func TestSummarize(t *testing.T) {
	e := newEngine()
	doc := buildDoc(t, e, domain.BlockTypeHero, domain.BlockTypeText, domain.BlockTypeText)
	s := Summarize(doc)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.ByType[domain.BlockTypeText])
	assert.Equal(t, 2, s.ByCategory[domain.CategoryContent])
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	e := newEngine()
	rng := rand.New(rand.NewSource(42))
	types := registry.Default().Types()
	doc := emptyDoc()

	for step := 0; step < 500; step++ {
		n := len(doc.Blocks)
		var err error
		switch op := rng.Intn(6); {
		case op == 0 || n == 0:
			doc, _, err = e.Insert(doc, types[rng.Intn(len(types))], rng.Intn(n+1))
		case op == 1:
			doc = Remove(doc, doc.Blocks[rng.Intn(n)].ID)
		case op == 2:
			doc, _, err = e.Duplicate(doc, doc.Blocks[rng.Intn(n)].ID)
		case op == 3:
			doc, err = MoveUp(doc, doc.Blocks[rng.Intn(n)].ID)
		case op == 4:
			doc, err = MoveDown(doc, doc.Blocks[rng.Intn(n)].ID)
		default:
			doc, err = ReorderByDrag(doc, rng.Intn(n), rng.Intn(n))
		}
		require.NoError(t, err, fmt.Sprintf("step %d", step))
		assertOrdered(t, doc)
	}
}
