package serializer

import (
	"bytes"
	"encoding/json"

	"pagebuilder/internal/domain"
)

// Diff is the identity-keyed difference between two documents.
type Diff struct {
	Added    []domain.Block `json:"added"`
	Removed  []domain.Block `json:"removed"`
	Modified []domain.Block `json:"modified"`
}

// Empty reports whether nothing was added, removed or modified.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// DiffDocuments correlates blocks by id. Added blocks are listed in newDoc
// order, removed ones in oldDoc order, and modified ones carry their newDoc
// state. Position changes alone are not modifications.
func DiffDocuments(oldDoc, newDoc domain.PageContent) Diff {
	before := make(map[string]domain.Block, len(oldDoc.Blocks))
	for _, b := range oldDoc.Blocks {
		before[b.ID] = b
	}
	after := make(map[string]bool, len(newDoc.Blocks))

	d := Diff{Added: []domain.Block{}, Removed: []domain.Block{}, Modified: []domain.Block{}}
	for _, b := range newDoc.Blocks {
		after[b.ID] = true
		prev, ok := before[b.ID]
		switch {
		case !ok:
			d.Added = append(d.Added, b.Clone())
		case !PropsEqual(prev.Props, b.Props):
			d.Modified = append(d.Modified, b.Clone())
		}
	}
	for _, b := range oldDoc.Blocks {
		if !after[b.ID] {
			d.Removed = append(d.Removed, b.Clone())
		}
	}
	return d
}

// PropsEqual compares props by their canonical JSON encoding, so 3 and 3.0
// are equal and map key order does not matter.
func PropsEqual(a, b domain.Props) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
