package domain

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cast"
)

type BlockType string

const (
	BlockTypeHero         BlockType = "hero"
	BlockTypeFeatures     BlockType = "features"
	BlockTypeCTA          BlockType = "cta"
	BlockTypeFAQ          BlockType = "faq"
	BlockTypeTestimonials BlockType = "testimonials"
	BlockTypeStats        BlockType = "stats"
	BlockTypePricing      BlockType = "pricing"
	BlockTypeText         BlockType = "text"
	BlockTypeImage        BlockType = "image"
	BlockTypeVideo        BlockType = "video"
	BlockTypeContact      BlockType = "contact"
	BlockTypeDivider      BlockType = "divider"
)

// Category groups block types in the palette and in page statistics.
type Category string

const (
	CategoryHeader      Category = "header"
	CategoryContent     Category = "content"
	CategoryMedia       Category = "media"
	CategoryConversion  Category = "conversion"
	CategorySocialProof Category = "social-proof"
	CategoryLayout      Category = "layout"
)

// Props is the open property bag of a block. Its keys depend on the block type.
type Props map[string]any

// Clone returns a deep copy of p. Nested maps and slices are copied so the
// result never aliases the receiver.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

// Has reports whether key is present, even with a zero value.
func (p Props) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the value at key coerced to a string ("" when absent or not scalar).
func (p Props) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// IsBlank reports whether key is absent, or holds a string that is empty after trimming.
func (p Props) IsBlank(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return true
	}
	if s, isString := v.(string); isString {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// List returns the value at key as a generic slice. ok is false when the key
// is absent or the value is not a list.
func (p Props) List(key string) (items []any, ok bool) {
	switch v := p[key].(type) {
	case []any:
		return v, true
	case []map[string]any:
		items = make([]any, len(v))
		for i, m := range v {
			items[i] = m
		}
		return items, true
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return items, true
	default:
		return nil, false
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = cloneValue(x)
		}
		return m
	case Props:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, x := range t {
			s[i] = cloneValue(x)
		}
		return s
	case []map[string]any:
		s := make([]map[string]any, len(t))
		for i, x := range t {
			s[i] = cloneValue(x).(map[string]any)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// NormalizeProps passes p through JSON so every value takes the shape an
// import produces: numbers become float64, typed slices become []any and
// nested maps get string keys. Values JSON cannot encode are an error.
func NormalizeProps(p Props) (Props, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var out Props
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Block is one typed, orderable unit of page content.
type Block struct {
	ID       string    `json:"id"`
	Type     BlockType `json:"type"`
	Category Category  `json:"category"`
	Props    Props     `json:"props"`
	Order    int       `json:"order"`
}

// Clone returns a copy of b with deep-copied props.
func (b Block) Clone() Block {
	b.Props = b.Props.Clone()
	return b
}
