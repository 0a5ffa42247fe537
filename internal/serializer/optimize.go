package serializer

import (
	"pagebuilder/internal/document"
	"pagebuilder/internal/domain"
)

// Prop keys that count as content when deciding whether a block is empty.
// Only these keys are inspected.
var (
	TextKeys  = []string{"title", "subtitle", "description", "content"}
	ImageKeys = []string{"src", "backgroundImage", "image"}
	LinkKeys  = []string{"ctaLink", "buttonLink", "link"}
)

// Analysis records which kinds of content a block carries.
type Analysis struct {
	HasText   bool `json:"hasText"`
	HasImages bool `json:"hasImages"`
	HasLinks  bool `json:"hasLinks"`
}

// Empty reports whether the block carries no text, image or link.
func (a Analysis) Empty() bool {
	return !a.HasText && !a.HasImages && !a.HasLinks
}

func Analyze(b domain.Block) Analysis {
	return Analysis{
		HasText:   anyPresent(b.Props, TextKeys),
		HasImages: anyPresent(b.Props, ImageKeys),
		HasLinks:  anyPresent(b.Props, LinkKeys),
	}
}

func anyPresent(p domain.Props, keys []string) bool {
	for _, k := range keys {
		if !p.IsBlank(k) {
			return true
		}
	}
	return false
}

// Optimize drops empty blocks, renumbers the rest, bumps the version and
// refreshes the edit time.
func (s *Serializer) Optimize(doc domain.PageContent) domain.PageContent {
	kept := make([]domain.Block, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		if !Analyze(b).Empty() {
			kept = append(kept, b)
		}
	}
	return domain.PageContent{
		Blocks: document.Renumber(kept),
		Metadata: domain.Metadata{
			Version:      doc.Metadata.Version + 1,
			LastEditedAt: s.now(),
		},
	}
}
