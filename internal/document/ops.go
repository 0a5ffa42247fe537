package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"pagebuilder/internal/domain"
)

// IndexOf returns the position of the block with id, or -1.
func IndexOf(doc domain.PageContent, id string) int {
	_, i, ok := lo.FindIndexOf(doc.Blocks, func(b domain.Block) bool { return b.ID == id })
	if !ok {
		return -1
	}
	return i
}

// Find returns a copy of the block with id.
func Find(doc domain.PageContent, id string) (domain.Block, bool) {
	if i := IndexOf(doc, id); i >= 0 {
		return doc.Blocks[i].Clone(), true
	}
	return domain.Block{}, false
}

// Remove drops the block with id. Removing an absent id returns an equal document.
func Remove(doc domain.PageContent, id string) domain.PageContent {
	blocks := make([]domain.Block, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		if b.ID != id {
			blocks = append(blocks, b.Clone())
		}
	}
	return withBlocks(doc, blocks)
}

// MoveUp swaps the block with its predecessor. The first block stays put.
func MoveUp(doc domain.PageContent, id string) (domain.PageContent, error) {
	return move(doc, id, -1)
}

// MoveDown swaps the block with its successor. The last block stays put.
func MoveDown(doc domain.PageContent, id string) (domain.PageContent, error) {
	return move(doc, id, +1)
}

func move(doc domain.PageContent, id string, delta int) (domain.PageContent, error) {
	i := IndexOf(doc, id)
	if i < 0 {
		return doc, domain.OpError("move", domain.ErrBlockNotFound, "%s", id)
	}
	blocks := cloneBlocks(doc.Blocks)
	j := i + delta
	if j >= 0 && j < len(blocks) {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
	return withBlocks(doc, blocks), nil
}

// ReorderByDrag removes the block at from and reinserts it at to.
func ReorderByDrag(doc domain.PageContent, from, to int) (domain.PageContent, error) {
	n := len(doc.Blocks)
	if from < 0 || from >= n {
		return doc, domain.OpError("reorder", domain.ErrIndexOutOfRange, "from %d not in [0,%d)", from, n)
	}
	if to < 0 || to >= n {
		return doc, domain.OpError("reorder", domain.ErrIndexOutOfRange, "to %d not in [0,%d)", to, n)
	}
	blocks := cloneBlocks(doc.Blocks)
	moved := blocks[from]
	blocks = append(blocks[:from], blocks[from+1:]...)
	blocks = append(blocks[:to], append([]domain.Block{moved}, blocks[to:]...)...)
	return withBlocks(doc, blocks), nil
}

// BulkUpdateProps shallow-merges partial into the block's props. Keys not in
// partial keep their values. Merged values are normalized to their JSON
// shapes so the document survives an export and import unchanged.
func BulkUpdateProps(doc domain.PageContent, id string, partial domain.Props) (domain.PageContent, error) {
	i := IndexOf(doc, id)
	if i < 0 {
		return doc, domain.OpError("update", domain.ErrBlockNotFound, "%s", id)
	}
	merged, err := domain.NormalizeProps(partial)
	if err != nil {
		return doc, domain.OpError("update", domain.ErrInvalidProps, "%s: %v", id, err)
	}
	blocks := cloneBlocks(doc.Blocks)
	if blocks[i].Props == nil {
		blocks[i].Props = domain.Props{}
	}
	for k, v := range merged {
		blocks[i].Props[k] = v
	}
	return withBlocks(doc, blocks), nil
}

// Search returns the blocks whose type or flattened props contain query,
// case-insensitively, in document order. An empty query matches everything.
func Search(doc domain.PageContent, query string) []domain.Block {
	q := strings.ToLower(strings.TrimSpace(query))
	return filter(doc, func(b domain.Block) bool {
		if q == "" {
			return true
		}
		return strings.Contains(strings.ToLower(string(b.Type)), q) ||
			strings.Contains(strings.ToLower(FlattenText(b.Props)), q)
	})
}

func FilterByType(doc domain.PageContent, t domain.BlockType) []domain.Block {
	return filter(doc, func(b domain.Block) bool { return b.Type == t })
}

func FilterByCategory(doc domain.PageContent, c domain.Category) []domain.Block {
	return filter(doc, func(b domain.Block) bool { return b.Category == c })
}

// Stats summarizes a document by block type and category.
type Stats struct {
	Total      int                      `json:"total"`
	ByType     map[domain.BlockType]int `json:"byType"`
	ByCategory map[domain.Category]int  `json:"byCategory"`
}

func Summarize(doc domain.PageContent) Stats {
	return Stats{
		Total:      len(doc.Blocks),
		ByType:     lo.CountValuesBy(doc.Blocks, func(b domain.Block) domain.BlockType { return b.Type }),
		ByCategory: lo.CountValuesBy(doc.Blocks, func(b domain.Block) domain.Category { return b.Category }),
	}
}

// FlattenText renders every scalar in props as text, keys visited in sorted
// order so the result is stable.
func FlattenText(props domain.Props) string {
	var sb strings.Builder
	flatten(&sb, map[string]any(props))
	return sb.String()
}

func flatten(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
	case domain.Props:
		flatten(sb, map[string]any(t))
	case map[string]any:
		keys := lo.Keys(t)
		sort.Strings(keys)
		for _, k := range keys {
			flatten(sb, t[k])
		}
	case []any:
		for _, x := range t {
			flatten(sb, x)
		}
	case []map[string]any:
		for _, x := range t {
			flatten(sb, x)
		}
	case []string:
		for _, x := range t {
			flatten(sb, x)
		}
	default:
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprint(sb, t)
	}
}

// Renumber returns a copy of blocks with order reset to positions.
func Renumber(blocks []domain.Block) []domain.Block {
	out := cloneBlocks(blocks)
	renumber(out)
	return out
}

func filter(doc domain.PageContent, keep func(domain.Block) bool) []domain.Block {
	out := []domain.Block{}
	for _, b := range doc.Blocks {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	return out
}

func cloneBlocks(blocks []domain.Block) []domain.Block {
	out := make([]domain.Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return out
}

func renumber(blocks []domain.Block) {
	for i := range blocks {
		blocks[i].Order = i
	}
}

func withBlocks(doc domain.PageContent, blocks []domain.Block) domain.PageContent {
	renumber(blocks)
	return domain.PageContent{Blocks: blocks, Metadata: doc.Metadata}
}
