package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"pagebuilder/internal/editor"
	"pagebuilder/internal/preview"
	"pagebuilder/internal/registry"
	"pagebuilder/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/microcosm-cc/bluemonday"
)

// Server is the MCP server of the page builder.
// It exposes tools, resources, and prompts so AI agents can build service pages.
type Server struct {
	mcp     *server.MCPServer
	emitter service.EventEmitter
	logger  *slog.Logger

	// Services (injected from app layer)
	pages    *service.PageService
	sessions *service.SessionManager
	registry *registry.Registry
	preview  *preview.Renderer

	// nil when tool input is stored as given
	sanitizer *bluemonday.Policy

	// Active page context (set by set_active_page and create_page)
	mu           sync.Mutex
	activePageID string
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter  service.EventEmitter
	Pages    *service.PageService
	Sessions *service.SessionManager
	Registry *registry.Registry
	Preview  *preview.Renderer
	Logger   *slog.Logger
	// Sanitize strips markup from string props that arrive over tools.
	Sanitize bool
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		emitter:  deps.Emitter,
		logger:   deps.Logger,
		pages:    deps.Pages,
		sessions: deps.Sessions,
		registry: deps.Registry,
		preview:  deps.Preview,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if deps.Sanitize {
		s.sanitizer = bluemonday.StrictPolicy()
	}

	s.mcp = server.NewMCPServer(
		"pagebuilder-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerPageTools()
	s.registerTemplateTools()
	s.registerBlockTools()
	s.registerSessionTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// emitBlocksChanged notifies the frontend that blocks have changed on a page.
func (s *Server) emitBlocksChanged(ctx context.Context, pageID string) {
	s.emitter.Emit(ctx, "mcp:blocks-changed", map[string]string{"pageId": pageID})
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func (s *Server) setActivePage(id string) {
	s.mu.Lock()
	s.activePageID = id
	s.mu.Unlock()
}

// resolvePageID returns the pageId from tool args or falls back to activePageID.
func (s *Server) resolvePageID(args map[string]any) (string, error) {
	if pid, ok := args["pageId"].(string); ok && pid != "" {
		return pid, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activePageID != "" {
		return s.activePageID, nil
	}
	return "", fmt.Errorf("no pageId provided and no active page set (use set_active_page first)")
}

// sessionForTool opens (or reuses) the editor session of the page the tool targets.
func (s *Server) sessionForTool(ctx context.Context, args map[string]any) (*editor.Session, error) {
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	return s.sessions.Open(ctx, pageID)
}

// requireString returns a non-empty string argument.
func requireString(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}
