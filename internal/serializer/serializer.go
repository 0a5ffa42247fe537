// Package serializer converts documents to and from their transport form and
// provides the document-level checks that run around persistence: structural
// validation, diffing and the optimize pass.
package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"pagebuilder/internal/domain"
)

type Serializer struct {
	now func() time.Time
}

type Option func(*Serializer)

// WithClock overrides the time used for synthesized metadata and optimize.
func WithClock(now func() time.Time) Option {
	return func(s *Serializer) { s.now = now }
}

func New(opts ...Option) *Serializer {
	s := &Serializer{now: domain.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Export encodes the whole document as JSON.
func (s *Serializer) Export(doc domain.PageContent) (string, error) {
	if doc.Blocks == nil {
		doc.Blocks = []domain.Block{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("export document: %w", err)
	}
	return string(data), nil
}

// wireDocument keeps blocks and metadata raw so their presence and shape can
// be checked before decoding.
type wireDocument struct {
	Blocks   json.RawMessage `json:"blocks"`
	Metadata json.RawMessage `json:"metadata"`
}

// Import decodes text produced by Export. It rejects undecodable input and
// a missing or non-array blocks field; absent metadata is replaced by
// version 1 stamped now. Block field content is not validated here.
func (s *Serializer) Import(text string) (domain.PageContent, error) {
	var wire wireDocument
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return domain.PageContent{}, &domain.ImportError{Reason: "malformed document", Err: err}
	}
	raw := bytes.TrimSpace(wire.Blocks)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.PageContent{}, &domain.ImportError{Reason: "blocks field is missing"}
	}
	if raw[0] != '[' {
		return domain.PageContent{}, &domain.ImportError{Reason: "blocks must be an array"}
	}

	var doc domain.PageContent
	if err := json.Unmarshal(raw, &doc.Blocks); err != nil {
		return domain.PageContent{}, &domain.ImportError{Reason: "decode blocks", Err: err}
	}

	meta := bytes.TrimSpace(wire.Metadata)
	if len(meta) == 0 || bytes.Equal(meta, []byte("null")) {
		doc.Metadata = domain.Metadata{Version: 1, LastEditedAt: s.now()}
		return doc, nil
	}
	if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
		return domain.PageContent{}, &domain.ImportError{Reason: "decode metadata", Err: err}
	}
	return doc, nil
}

// ValidateStructure lists structural problems: missing blocks or metadata,
// duplicate identities and orders that are not 0..N-1 in array position.
// An empty result means the document is structurally valid.
func ValidateStructure(doc domain.PageContent) []string {
	var problems []string
	if doc.Blocks == nil {
		problems = append(problems, "blocks must be an array")
	}
	if doc.Metadata.IsZero() {
		problems = append(problems, "metadata is missing")
	}

	seen := make(map[string]bool, len(doc.Blocks))
	reported := map[string]bool{}
	for _, b := range doc.Blocks {
		if b.ID == "" {
			problems = append(problems, "block without id")
			continue
		}
		if seen[b.ID] && !reported[b.ID] {
			problems = append(problems, fmt.Sprintf("duplicate block id %s", b.ID))
			reported[b.ID] = true
		}
		seen[b.ID] = true
	}

	orders := make([]int, len(doc.Blocks))
	for i, b := range doc.Blocks {
		orders[i] = b.Order
	}
	sort.Ints(orders)
	for i := range doc.Blocks {
		if orders[i] != i || doc.Blocks[i].Order != i {
			problems = append(problems, "block orders are not sequential")
			break
		}
	}
	return problems
}

// CheckStructure wraps ValidateStructure problems in a StructuralError.
func CheckStructure(doc domain.PageContent) error {
	if problems := ValidateStructure(doc); len(problems) > 0 {
		return &domain.StructuralError{Problems: problems}
	}
	return nil
}
