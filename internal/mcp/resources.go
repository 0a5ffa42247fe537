package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	// ── pagebuilder://block-types ──────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"pagebuilder://block-types",
		"Block Types",
		mcp.WithMIMEType("application/json"),
	), s.handleBlockTypesResource)

	// ── pagebuilder://templates ────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"pagebuilder://templates",
		"Page Templates",
		mcp.WithMIMEType("application/json"),
	), s.handleTemplatesResource)

	// ── pagebuilder://page/{pageId}/content ────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"pagebuilder://page/{pageId}/content",
			"Stored Content of a Page",
		),
		s.handlePageContentResource,
	)
}

func (s *Server) handleBlockTypesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.registry.All(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "pagebuilder://block-types",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleTemplatesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.pages.Templates(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "pagebuilder://templates",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// handlePageContentResource returns the saved document, not unsaved edits.
func (s *Server) handlePageContentResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	pageID := extractPageIDFromURI(uri)
	if pageID == "" {
		return nil, fmt.Errorf("could not extract pageId from URI: %s", uri)
	}

	doc, err := s.pages.Content(ctx, pageID)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// extractPageIDFromURI extracts the page ID from "pagebuilder://page/{id}/content".
func extractPageIDFromURI(uri string) string {
	const prefix = "pagebuilder://page/"
	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return ""
	}
	id, _, ok := strings.Cut(rest, "/")
	if !ok {
		return ""
	}
	return id
}
