// Package registry holds the static catalog of block types: their default
// props, required keys and palette metadata.
package registry

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"pagebuilder/internal/domain"
)

// Descriptor describes one block type.
type Descriptor struct {
	Type        domain.BlockType `json:"type"`
	Name        string           `json:"name"`
	Icon        string           `json:"icon"`
	Description string           `json:"description"`
	Category    domain.Category  `json:"category"`
	Defaults    domain.Props     `json:"defaults"`
	Required    []string         `json:"required"`
}

func (d Descriptor) clone() Descriptor {
	d.Defaults = d.Defaults.Clone()
	d.Required = append([]string(nil), d.Required...)
	return d
}

// Registry is an immutable lookup table indexed by block type.
// It is safe for concurrent use because nothing mutates it after New.
type Registry struct {
	byType map[domain.BlockType]Descriptor
	order  []domain.BlockType
}

// New builds a registry from descriptors. Panics on duplicate types, like a
// duplicate plugin registration would: it is a programming error.
func New(descs ...Descriptor) *Registry {
	r := &Registry{byType: make(map[domain.BlockType]Descriptor, len(descs))}
	for _, d := range descs {
		if _, exists := r.byType[d.Type]; exists {
			panic(fmt.Sprintf("block registry: duplicate registration for block type %q", d.Type))
		}
		r.byType[d.Type] = d.clone()
		r.order = append(r.order, d.Type)
	}
	return r
}

// Describe returns the descriptor for t. The returned defaults are a copy.
func (r *Registry) Describe(t domain.BlockType) (Descriptor, error) {
	d, ok := r.byType[t]
	if !ok {
		return Descriptor{}, domain.OpError("describe", domain.ErrUnknownBlockType, "%q", t)
	}
	return d.clone(), nil
}

// Has reports whether t is registered.
func (r *Registry) Has(t domain.BlockType) bool {
	_, ok := r.byType[t]
	return ok
}

// Required returns the required prop keys of t, or nil for unknown types.
func (r *Registry) Required(t domain.BlockType) []string {
	d, ok := r.byType[t]
	if !ok {
		return nil
	}
	return append([]string(nil), d.Required...)
}

// Types lists block types in registration order.
func (r *Registry) Types() []domain.BlockType {
	return append([]domain.BlockType(nil), r.order...)
}

// All returns every descriptor in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.byType[t].clone())
	}
	return out
}

// ByCategory returns the descriptors of one palette category.
func (r *Registry) ByCategory(c domain.Category) []Descriptor {
	return lo.FilterMap(r.order, func(t domain.BlockType, _ int) (Descriptor, bool) {
		d := r.byType[t]
		if d.Category != c {
			return Descriptor{}, false
		}
		return d.clone(), true
	})
}

// Categories lists the distinct categories, sorted.
func (r *Registry) Categories() []domain.Category {
	out := lo.Uniq(lo.Map(r.order, func(t domain.BlockType, _ int) domain.Category {
		return r.byType[t].Category
	}))
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
