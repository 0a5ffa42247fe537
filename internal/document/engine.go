// Package document implements the structural edits of a page document.
// Every function takes a document value and returns a new one; the input is
// never modified and the result never shares props with it. After each
// structural change block orders are renumbered 0..N-1 to match positions.
package document

import (
	"github.com/google/uuid"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
)

// AtEnd appends when passed as an insert position.
const AtEnd = -1

// NewID mints a block identity: a UUIDv7, time-ordered with a random tail,
// so identities issued by one process never collide.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Engine performs the operations that need the registry or fresh identities.
type Engine struct {
	reg   *registry.Registry
	newID func() string
}

type Option func(*Engine)

// WithIDFunc overrides identity generation.
func WithIDFunc(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func NewEngine(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{reg: reg, newID: NewID}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Registry returns the registry the engine builds blocks from.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// NewBlock builds a block of type t from the registry defaults.
func (e *Engine) NewBlock(t domain.BlockType) (domain.Block, error) {
	d, err := e.reg.Describe(t)
	if err != nil {
		return domain.Block{}, err
	}
	return domain.Block{
		ID:       e.newID(),
		Type:     d.Type,
		Category: d.Category,
		Props:    d.Defaults,
	}, nil
}

// Insert adds a default block of type t at position at (AtEnd appends).
// It returns the new document and the inserted block.
func (e *Engine) Insert(doc domain.PageContent, t domain.BlockType, at int) (domain.PageContent, domain.Block, error) {
	n := len(doc.Blocks)
	if at == AtEnd {
		at = n
	}
	if at < 0 || at > n {
		return doc, domain.Block{}, domain.OpError("insert", domain.ErrIndexOutOfRange, "position %d not in [0,%d]", at, n)
	}
	b, err := e.NewBlock(t)
	if err != nil {
		return doc, domain.Block{}, err
	}
	blocks := cloneBlocks(doc.Blocks)
	blocks = append(blocks, domain.Block{})
	copy(blocks[at+1:], blocks[at:])
	blocks[at] = b
	out := withBlocks(doc, blocks)
	return out, out.Blocks[at], nil
}

// Duplicate copies the block with the given id, gives the copy a fresh
// identity and places it right after the original.
func (e *Engine) Duplicate(doc domain.PageContent, id string) (domain.PageContent, domain.Block, error) {
	i := IndexOf(doc, id)
	if i < 0 {
		return doc, domain.Block{}, domain.OpError("duplicate", domain.ErrBlockNotFound, "%s", id)
	}
	src := doc.Blocks[i]
	dup := domain.Block{
		ID:       e.newID(),
		Type:     src.Type,
		Category: src.Category,
		Props:    src.Props.Clone(),
	}
	blocks := cloneBlocks(doc.Blocks)
	blocks = append(blocks, domain.Block{})
	copy(blocks[i+2:], blocks[i+1:])
	blocks[i+1] = dup
	out := withBlocks(doc, blocks)
	return out, out.Blocks[i+1], nil
}

// FromSkeletons builds fresh blocks for template skeletons, in order.
func (e *Engine) FromSkeletons(skels []domain.BlockSkeleton) []domain.Block {
	blocks := make([]domain.Block, len(skels))
	for i, s := range skels {
		blocks[i] = domain.Block{
			ID:       e.newID(),
			Type:     s.Type,
			Category: s.Category,
			Props:    s.Props.Clone(),
			Order:    i,
		}
	}
	return blocks
}
