package mcpserver

import (
	"context"
	"fmt"
	"time"

	"pagebuilder/internal/document"
	"pagebuilder/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPageTools() {
	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List all service pages with their status and revision"),
	), s.handleListPages)

	// ── create_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create a draft page, empty or from a template. The new page becomes the active page."),
		mcp.WithString("title", mcp.Description("Page title"), mcp.Required()),
		mcp.WithString("slug", mcp.Description("URL slug (optional, derived from the title)")),
		mcp.WithString("templateId", mcp.Description("Template to start from (optional, see list_templates)")),
	), s.handleCreatePage)

	// ── get_page ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get a page record with a summary of its blocks"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleGetPage)

	// ── rename_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_page",
		mcp.WithDescription("Change the title and/or slug of a page"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("title", mcp.Description("New title (optional)")),
		mcp.WithString("slug", mcp.Description("New slug (optional)")),
	), s.handleRenamePage)

	// ── delete_page (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_page",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a page and all of its revisions."),
		mcp.WithString("pageId", mcp.Description("Page ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeletePage)

	// ── set_active_page ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_page",
		mcp.WithDescription("Set the active page for subsequent tool calls. Tools that accept pageId will default to this."),
		mcp.WithString("pageId", mcp.Description("ID of the page to make active"), mcp.Required()),
	), s.handleSetActivePage)

	// ── list_revisions ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_revisions",
		mcp.WithDescription("List the saved revisions of a page, newest first"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleListRevisions)

	// ── diff_revisions ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("diff_revisions",
		mcp.WithDescription("Show blocks added, removed and modified between two revisions"),
		mcp.WithString("fromRevisionId", mcp.Description("Older revision ID"), mcp.Required()),
		mcp.WithString("toRevisionId", mcp.Description("Newer revision ID (optional, defaults to the current content)")),
	), s.handleDiffRevisions)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.pages.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	type pageSummary struct {
		ID       string `json:"id"`
		Slug     string `json:"slug"`
		Title    string `json:"title"`
		Status   string `json:"status"`
		Revision int    `json:"revision"`
	}
	out := make([]pageSummary, len(pages))
	for i, p := range pages {
		out[i] = pageSummary{ID: p.ID, Slug: p.Slug, Title: p.Title, Status: string(p.Status), Revision: p.Revision}
	}
	return jsonResult(out)
}

func (s *Server) handleCreatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.pages.CreatePage(ctx, service.CreatePageInput{
		Title:      req.GetString("title", ""),
		Slug:       req.GetString("slug", ""),
		TemplateID: req.GetString("templateId", ""),
	})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	// Auto-set as active page
	s.setActivePage(page.ID)
	page.Content = ""
	return jsonResult(page)
}

func (s *Server) handleGetPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	page, err := s.pages.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	doc, err := s.pages.Content(ctx, pageID)
	if err != nil {
		return nil, err
	}
	page.Content = ""
	return jsonResult(map[string]any{
		"page":    page,
		"version": doc.Metadata.Version,
		"stats":   document.Summarize(doc),
	})
}

func (s *Server) handleRenamePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	title := req.GetString("title", "")
	slug := req.GetString("slug", "")
	if title == "" && slug == "" {
		return nil, fmt.Errorf("title or slug is required")
	}
	if err := s.pages.RenamePage(ctx, pageID, title, slug); err != nil {
		return nil, fmt.Errorf("rename page: %w", err)
	}
	return textResult(fmt.Sprintf("Page %s renamed", pageID)), nil
}

func (s *Server) handleDeletePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireString(req.GetArguments(), "pageId")
	if err != nil {
		return nil, err
	}
	s.sessions.Discard(pageID)
	if err := s.pages.DeletePage(ctx, pageID); err != nil {
		return nil, fmt.Errorf("delete page: %w", err)
	}

	s.mu.Lock()
	if s.activePageID == pageID {
		s.activePageID = ""
	}
	s.mu.Unlock()
	return textResult(fmt.Sprintf("Page %s deleted", pageID)), nil
}

func (s *Server) handleSetActivePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	if pageID == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	if _, err := s.pages.GetPage(ctx, pageID); err != nil {
		return nil, err
	}
	s.setActivePage(pageID)
	return textResult(fmt.Sprintf("Active page set to %s", pageID)), nil
}

func (s *Server) handleListRevisions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	revs, err := s.pages.ListRevisions(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}

	type revisionSummary struct {
		ID        string `json:"id"`
		Revision  int    `json:"revision"`
		CreatedAt string `json:"createdAt"`
	}
	out := make([]revisionSummary, len(revs))
	for i, r := range revs {
		out[i] = revisionSummary{ID: r.ID, Revision: r.Revision, CreatedAt: r.CreatedAt.Format(time.RFC3339)}
	}
	return jsonResult(out)
}

func (s *Server) handleDiffRevisions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := requireString(req.GetArguments(), "fromRevisionId")
	if err != nil {
		return nil, err
	}
	d, err := s.pages.DiffRevisions(ctx, from, req.GetString("toRevisionId", ""))
	if err != nil {
		return nil, fmt.Errorf("diff revisions: %w", err)
	}
	return jsonResult(d)
}
