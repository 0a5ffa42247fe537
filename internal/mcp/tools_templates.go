package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTemplateTools() {
	// ── list_templates ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List page templates, optionally filtered by category"),
		mcp.WithString("category", mcp.Description("Template category (optional)")),
	), s.handleListTemplates)

	// ── get_template ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_template",
		mcp.WithDescription("Get a template with its block skeletons"),
		mcp.WithString("templateId", mcp.Description("Template ID"), mcp.Required()),
	), s.handleGetTemplate)

	// ── apply_template (destructive) ───────────────────
	s.mcp.AddTool(mcp.NewTool("apply_template",
		mcp.WithDescription("🛑 DESTRUCTIVE: Replace every block of a page with a fresh copy of a template"),
		mcp.WithString("templateId", mcp.Description("Template ID"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleApplyTemplate)
}

func (s *Server) handleListTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")

	type templateSummary struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Tags        []string `json:"tags"`
		Blocks      int      `json:"blocks"`
	}
	out := []templateSummary{}
	for _, t := range s.pages.Templates() {
		if category != "" && t.Category != category {
			continue
		}
		out = append(out, templateSummary{
			ID: t.ID, Name: t.Name, Description: t.Description,
			Category: t.Category, Tags: t.Tags, Blocks: len(t.Blocks),
		})
	}
	return jsonResult(out)
}

func (s *Server) handleGetTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "templateId")
	if err != nil {
		return nil, err
	}
	t, err := s.pages.Template(id)
	if err != nil {
		return nil, err
	}
	return jsonResult(t)
}

func (s *Server) handleApplyTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "templateId")
	if err != nil {
		return nil, err
	}
	t, err := s.pages.Template(id)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessionForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	if err := sess.ApplyTemplate(t); err != nil {
		return nil, fmt.Errorf("apply template: %w", err)
	}

	s.emitBlocksChanged(ctx, sess.PageID())
	return textResult(fmt.Sprintf("Template %q applied to page %s (%d blocks)", t.Name, sess.PageID(), len(t.Blocks))), nil
}
