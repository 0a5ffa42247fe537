package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
	"pagebuilder/internal/preview"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSessionTools() {
	// ── page_status ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("page_status",
		mcp.WithDescription("Show the editor state of a page: lifecycle, selection, preview and last save"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handlePageStatus)

	// ── save_page ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_page",
		mcp.WithDescription("Save pending edits now instead of waiting for autosave"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleSavePage)

	// ── publish_page ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("publish_page",
		mcp.WithDescription("Save and publish a page. Refused while any block fails validation."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handlePublishPage)

	// ── reload_page (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("reload_page",
		mcp.WithDescription("🛑 DESTRUCTIVE: Drop unsaved edits and reload the stored document"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleReloadPage)

	// ── close_page ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("close_page",
		mcp.WithDescription("Save pending edits and close the editor session of a page"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleClosePage)

	// ── validate_page ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("validate_page",
		mcp.WithDescription("List the field errors of every invalid block"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleValidatePage)

	// ── optimize_page ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("optimize_page",
		mcp.WithDescription("Remove blocks that carry no text, image or link content"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleOptimizePage)

	// ── set_preview_device ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_preview_device",
		mcp.WithDescription("Choose the device width used by preview_page"),
		mcp.WithString("device", mcp.Description("desktop, tablet or mobile"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleSetPreviewDevice)

	// ── toggle_preview ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("toggle_preview",
		mcp.WithDescription("Switch the editor between edit and preview mode"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleTogglePreview)

	// ── preview_page ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("preview_page",
		mcp.WithDescription("Render the current document, unsaved edits included, as HTML"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("device", mcp.Description("desktop, tablet or mobile (optional, defaults to the session device)")),
	), s.handlePreviewPage)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handlePageStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.sessionForTool(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	snap := sess.Snapshot()
	return jsonResult(map[string]any{
		"pageId":          snap.PageID,
		"lifecycle":       snap.Lifecycle,
		"version":         snap.Document.Metadata.Version,
		"blocks":          len(snap.Document.Blocks),
		"selectedBlockId": snap.SelectedBlockID,
		"isPreviewMode":   snap.PreviewMode,
		"previewDevice":   snap.PreviewDevice,
		"lastSaved":       snap.LastSaved,
		"lastError":       snap.LastError,
	})
}

func (s *Server) handleSavePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.sessionForTool(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := sess.Save(ctx); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Page %s saved at %s", sess.PageID(), sess.LastSaved().Format("15:04:05"))), nil
}

func (s *Server) handlePublishPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	err = s.sessions.Publish(ctx, pageID)
	var invalid *domain.InvalidBlocksError
	if errors.As(err, &invalid) {
		res, jerr := jsonResult(map[string]any{
			"published": false,
			"reason":    "some blocks failed validation; the draft was saved",
			"errors":    invalid.Blocks,
		})
		if jerr != nil {
			return nil, jerr
		}
		res.IsError = true
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Page %s published", pageID)), nil
}

func (s *Server) handleReloadPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.sessionForTool(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := sess.Load(ctx); err != nil {
		return nil, err
	}
	s.emitBlocksChanged(ctx, sess.PageID())
	return textResult(fmt.Sprintf("Page %s reloaded (%d blocks)", sess.PageID(), len(sess.Document().Blocks))), nil
}

func (s *Server) handleClosePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Close(ctx, pageID); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Page %s closed", pageID)), nil
}

func (s *Server) handleValidatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.sessionForTool(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	errs := sess.Validate()
	if len(errs) == 0 {
		return textResult("All blocks are valid"), nil
	}
	return jsonResult(errs)
}

func (s *Server) handleOptimizePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.sessionForTool(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	removed, err := sess.Optimize()
	if err != nil {
		return nil, err
	}
	s.emitBlocksChanged(ctx, sess.PageID())
	return textResult(fmt.Sprintf("Removed %d empty block(s)", removed)), nil
}

func (s *Server) handleSetPreviewDevice(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	device, err := requireString(args, "device")
	if err != nil {
		return nil, err
	}
	sess, err := s.sessionForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	if err := sess.SetPreviewDevice(editor.PreviewDevice(device)); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Preview device set to %s", device)), nil
}

func (s *Server) handleTogglePreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.sessionForTool(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	if sess.TogglePreview() {
		return textResult("Preview mode on"), nil
	}
	return textResult("Preview mode off"), nil
}

func (s *Server) handlePreviewPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.sessionForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	page, err := s.pages.GetPage(ctx, sess.PageID())
	if err != nil {
		return nil, err
	}

	device := req.GetString("device", string(sess.PreviewDevice()))
	html, err := s.preview.RenderString(sess.Document(), preview.Options{Title: page.Title, Device: device})
	if err != nil {
		return nil, err
	}
	return textResult(html), nil
}
