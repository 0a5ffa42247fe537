// Package templates turns reusable block skeletons into fresh documents and
// serves the catalog those skeletons come from.
package templates

import (
	"time"

	"pagebuilder/internal/document"
	"pagebuilder/internal/domain"
)

// Engine instantiates templates.
type Engine struct {
	docs *document.Engine
	now  func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time stamped into new documents.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(docs *document.Engine, opts ...Option) *Engine {
	e := &Engine{docs: docs, now: domain.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Instantiate builds a new document from t: every block gets a fresh
// identity, order follows the skeleton position, and metadata starts at
// version 1. t itself is left untouched and shares nothing with the result.
func (e *Engine) Instantiate(t domain.Template) domain.PageContent {
	return domain.PageContent{
		Blocks:   e.docs.FromSkeletons(t.Blocks),
		Metadata: domain.Metadata{Version: 1, LastEditedAt: e.now()},
	}
}
