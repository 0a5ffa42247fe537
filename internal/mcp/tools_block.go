package mcpserver

import (
	"context"
	"fmt"

	"pagebuilder/internal/document"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
	"pagebuilder/internal/registry"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerBlockTools() {
	// ── list_block_types ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_block_types",
		mcp.WithDescription("List the block types that can be added to a page, with default props and required keys"),
		mcp.WithString("category", mcp.Description("Filter by category: header, content, media, conversion, social-proof, layout (optional)")),
	), s.handleListBlockTypes)

	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List the blocks of a page in order, optionally filtered by type or category. Includes unsaved edits."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("type", mcp.Description("Filter by block type (optional)")),
		mcp.WithString("category", mcp.Description("Filter by category (optional)")),
	), s.handleListBlocks)

	// ── get_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_block",
		mcp.WithDescription("Get one block with all of its props and validation errors"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleGetBlock)

	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Add a block with default props. Optional props are merged over the defaults."),
		mcp.WithString("type", mcp.Description("Block type, see list_block_types"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithNumber("position", mcp.Description("Insert index (optional, appends when omitted)")),
		mcp.WithString("props", mcp.Description("JSON object of props to set (optional)")),
	), s.handleAddBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Merge props into a block. Keys not given keep their value."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("props", mcp.Description("JSON object of props to set"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleUpdateBlock)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block one step up or down"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("direction", mcp.Description("up or down"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleMoveBlock)

	// ── reorder_block ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reorder_block",
		mcp.WithDescription("Move the block at index 'from' to index 'to', like a drag and drop"),
		mcp.WithNumber("from", mcp.Description("Current index"), mcp.Required()),
		mcp.WithNumber("to", mcp.Description("Target index"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleReorderBlock)

	// ── duplicate_block ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("duplicate_block",
		mcp.WithDescription("Insert a copy of a block right after it"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleDuplicateBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a block from a page"),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)

	// ── select_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_block",
		mcp.WithDescription("Select a block in the editor. An empty blockId clears the selection."),
		mcp.WithString("blockId", mcp.Description("Block ID (empty to clear)")),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleSelectBlock)

	// ── search_blocks ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("search_blocks",
		mcp.WithDescription("Find blocks whose type or text props contain the query (case-insensitive)"),
		mcp.WithString("query", mcp.Description("Search text"), mcp.Required()),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleSearchBlocks)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListBlockTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var descs []registry.Descriptor
	if c := req.GetString("category", ""); c != "" {
		descs = s.registry.ByCategory(domain.Category(c))
	} else {
		descs = s.registry.All()
	}
	return jsonResult(descs)
}

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.sessionForTool(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	doc := sess.Document()

	blocks := doc.Blocks
	if t := req.GetString("type", ""); t != "" {
		blocks = document.FilterByType(doc, domain.BlockType(t))
	} else if c := req.GetString("category", ""); c != "" {
		blocks = document.FilterByCategory(doc, domain.Category(c))
	}

	summaries := make([]blockSummary, len(blocks))
	for i, b := range blocks {
		summaries[i] = summarizeBlock(b)
	}
	return jsonResult(summaries)
}

// blockResult reports a block together with its current validation errors.
func blockResult(sess *editor.Session, id string) (*mcp.CallToolResult, error) {
	b, ok := document.Find(sess.Document(), id)
	if !ok {
		return nil, domain.OpError("get", domain.ErrBlockNotFound, "%s", id)
	}
	return jsonResult(map[string]any{
		"block":  b,
		"errors": sess.Validate()[id],
	})
}

func (s *Server) handleGetBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "blockId")
	if err != nil {
		return nil, err
	}
	sess, err := s.sessionForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	return blockResult(sess, id)
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockType, err := requireString(args, "type")
	if err != nil {
		return nil, err
	}

	var props domain.Props
	if raw := req.GetString("props", ""); raw != "" {
		if props, err = parseProps(raw); err != nil {
			return nil, err
		}
	}

	sess, err := s.sessionForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	at := int(getFloat(args, "position", document.AtEnd))
	block, err := sess.AddBlock(domain.BlockType(blockType), at)
	if err != nil {
		return nil, fmt.Errorf("add block: %w", err)
	}
	if len(props) > 0 {
		if err := sess.UpdateBlock(block.ID, s.sanitizeProps(props)); err != nil {
			return nil, fmt.Errorf("set props: %w", err)
		}
	}

	s.emitBlocksChanged(ctx, sess.PageID())
	return blockResult(sess, block.ID)
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "blockId")
	if err != nil {
		return nil, err
	}
	raw, err := requireString(args, "props")
	if err != nil {
		return nil, err
	}
	props, err := parseProps(raw)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessionForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	if err := sess.UpdateBlock(id, s.sanitizeProps(props)); err != nil {
		return nil, fmt.Errorf("update block: %w", err)
	}

	s.emitBlocksChanged(ctx, sess.PageID())
	return blockResult(sess, id)
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "blockId")
	if err != nil {
		return nil, err
	}
	dir, err := requireString(args, "direction")
	if err != nil {
		return nil, err
	}
	sess, err := s.sessionForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	if err := sess.MoveBlock(id, editor.Direction(dir)); err != nil {
		return nil, fmt.Errorf("move block: %w", err)
	}

	s.emitBlocksChanged(ctx, sess.PageID())
	b, _ := document.Find(sess.Document(), id)
	return textResult(fmt.Sprintf("Block %s is at position %d", id, b.Order)), nil
}

func (s *Server) handleReorderBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	from, okFrom := args["from"].(float64)
	to, okTo := args["to"].(float64)
	if !okFrom || !okTo {
		return nil, fmt.Errorf("from and to are required")
	}
	sess, err := s.sessionForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	if err := sess.ReorderBlock(int(from), int(to)); err != nil {
		return nil, fmt.Errorf("reorder block: %w", err)
	}

	s.emitBlocksChanged(ctx, sess.PageID())
	return textResult(fmt.Sprintf("Moved block from %d to %d", int(from), int(to))), nil
}

func (s *Server) handleDuplicateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "blockId")
	if err != nil {
		return nil, err
	}
	sess, err := s.sessionForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	dup, err := sess.DuplicateBlock(id)
	if err != nil {
		return nil, fmt.Errorf("duplicate block: %w", err)
	}

	s.emitBlocksChanged(ctx, sess.PageID())
	return jsonResult(dup)
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "blockId")
	if err != nil {
		return nil, err
	}
	sess, err := s.sessionForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	if _, ok := document.Find(sess.Document(), id); !ok {
		return nil, domain.OpError("delete", domain.ErrBlockNotFound, "%s", id)
	}
	if err := sess.DeleteBlock(id); err != nil {
		return nil, fmt.Errorf("delete block: %w", err)
	}

	s.emitBlocksChanged(ctx, sess.PageID())
	return textResult(fmt.Sprintf("Block %s deleted", id)), nil
}

func (s *Server) handleSelectBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.sessionForTool(ctx, args)
	if err != nil {
		return nil, err
	}
	id := req.GetString("blockId", "")
	if err := sess.SelectBlock(id); err != nil {
		return nil, err
	}
	if id == "" {
		return textResult("Selection cleared"), nil
	}
	return textResult(fmt.Sprintf("Block %s selected", id)), nil
}

func (s *Server) handleSearchBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, err := requireString(args, "query")
	if err != nil {
		return nil, err
	}
	sess, err := s.sessionForTool(ctx, args)
	if err != nil {
		return nil, err
	}

	found := document.Search(sess.Document(), query)
	summaries := make([]blockSummary, len(found))
	for i, b := range found {
		summaries[i] = summarizeBlock(b)
	}
	return jsonResult(summaries)
}
