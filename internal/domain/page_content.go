package domain

import "time"

// Metadata carries the revision counter and last edit time of a document.
type Metadata struct {
	Version      int       `json:"version"`
	LastEditedAt time.Time `json:"lastEditedAt"`
}

// IsZero reports whether the metadata was never set.
func (m Metadata) IsZero() bool {
	return m.Version == 0 && m.LastEditedAt.IsZero()
}

// PageContent is the ordered block document persisted for one page.
type PageContent struct {
	Blocks   []Block  `json:"blocks"`
	Metadata Metadata `json:"metadata"`
}

// NewPageContent returns an empty document at version 1.
func NewPageContent(now time.Time) PageContent {
	return PageContent{
		Blocks:   []Block{},
		Metadata: Metadata{Version: 1, LastEditedAt: now},
	}
}

// Clone returns a deep copy of the document.
func (d PageContent) Clone() PageContent {
	out := PageContent{Metadata: d.Metadata}
	if d.Blocks != nil {
		out.Blocks = make([]Block, len(d.Blocks))
		for i, b := range d.Blocks {
			out.Blocks[i] = b.Clone()
		}
	}
	return out
}

// Now returns the current time in UTC without a monotonic reading, so
// timestamps survive a JSON round trip unchanged.
func Now() time.Time {
	return time.Now().UTC()
}
