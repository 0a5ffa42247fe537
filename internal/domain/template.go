package domain

// BlockSkeleton is a template entry: a block without identity or position.
type BlockSkeleton struct {
	Type     BlockType `json:"type" yaml:"type"`
	Category Category  `json:"category" yaml:"category"`
	Props    Props     `json:"props" yaml:"props"`
}

// Template is an immutable, reusable set of block skeletons.
type Template struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Category    string          `json:"category" yaml:"category"`
	Tags        []string        `json:"tags" yaml:"tags"`
	Blocks      []BlockSkeleton `json:"blocks" yaml:"blocks"`
}

// Clone returns a deep copy so catalog entries are never shared.
func (t Template) Clone() Template {
	out := t
	out.Tags = append([]string(nil), t.Tags...)
	out.Blocks = make([]BlockSkeleton, len(t.Blocks))
	for i, s := range t.Blocks {
		s.Props = s.Props.Clone()
		out.Blocks[i] = s
	}
	return out
}
