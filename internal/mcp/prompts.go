package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("service_page",
		mcp.WithPromptDescription("Guide through building and publishing a landing page for a service"),
		mcp.WithArgument("service",
			mcp.ArgumentDescription("Name of the service the page sells"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("audience",
			mcp.ArgumentDescription("Who the page is for (optional)"),
		),
	), s.handleServicePagePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("review_page",
		mcp.WithPromptDescription("Review a page for missing content and broken fields before publishing"),
		mcp.WithArgument("pageId",
			mcp.ArgumentDescription("ID of the page to review"),
			mcp.RequiredArgument(),
		),
	), s.handleReviewPagePrompt)
}

func (s *Server) handleServicePagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	svc := req.Params.Arguments["service"]
	audience := req.Params.Arguments["audience"]
	if audience == "" {
		audience = "small business owners"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a service page for: %s", svc),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a landing page for the service "%s", written for %s. Follow these steps:

1. Use list_templates and pick the template closest to the service, then create_page with its templateId
2. Use list_blocks to see what the template created
3. Rewrite every block with update_block: a hero with a concrete headline, features that name real benefits, an FAQ with questions %s would ask
4. Add a testimonials or stats block with add_block if the template has none
5. Run validate_page and fix every reported field
6. Use preview_page with device "mobile" to check the result, then publish_page

Keep copy short and specific. Do not leave placeholder text from the defaults.`, svc, audience, audience),
				},
			},
		},
	}, nil
}

func (s *Server) handleReviewPagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	pageID := req.Params.Arguments["pageId"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review page %s", pageID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Review page %s before it goes live. Follow these steps:

1. Use set_active_page with the page ID, then get_page for an overview
2. Run validate_page and list every invalid field
3. Use search_blocks to look for leftover placeholder copy such as "Your Service Headline"
4. Run optimize_page only if there are blocks with no content at all
5. Use list_revisions and diff_revisions to summarize what changed since the last save

Report the problems you found and the fixes you made. Do not publish.`, pageID),
				},
			},
		},
	}, nil
}
