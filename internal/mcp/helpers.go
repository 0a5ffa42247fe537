package mcpserver

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"pagebuilder/internal/domain"
)

// parseProps decodes a JSON object passed as a tool argument.
func parseProps(data string) (domain.Props, error) {
	var p domain.Props
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("props must be a JSON object: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("props must be a JSON object")
	}
	return p, nil
}

// sanitizeProps strips markup from every string in p, nested lists and
// objects included. Entities are decoded again so "Q&A" stays readable.
func (s *Server) sanitizeProps(p domain.Props) domain.Props {
	if s.sanitizer == nil {
		return p
	}
	out := make(domain.Props, len(p))
	for k, v := range p {
		out[k] = s.sanitizeValue(v)
	}
	return out
}

func (s *Server) sanitizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return html.UnescapeString(s.sanitizer.Sanitize(t))
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = s.sanitizeValue(x)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = s.sanitizeValue(x)
		}
		return out
	default:
		return v
	}
}

func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

// blockSummary is a compact view of a block for list results.
type blockSummary struct {
	ID       string           `json:"id"`
	Type     domain.BlockType `json:"type"`
	Category domain.Category  `json:"category"`
	Order    int              `json:"order"`
	Title    string           `json:"title,omitempty"`
}

func summarizeBlock(b domain.Block) blockSummary {
	title := b.Props.String("title")
	if title == "" {
		title = b.Props.String("content")
	}
	if r := []rune(title); len(r) > 80 {
		title = strings.TrimSpace(string(r[:77])) + "..."
	}
	return blockSummary{ID: b.ID, Type: b.Type, Category: b.Category, Order: b.Order, Title: title}
}
