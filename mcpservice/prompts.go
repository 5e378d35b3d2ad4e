package mcpservice

import (
	"context"

	"github.com/ggoodman/ez-mcp/capability"
	"github.com/ggoodman/ez-mcp/internal/jsonrpc"
	"github.com/ggoodman/ez-mcp/mcp"
)

// ListPrompts returns a page of prompt descriptors.
func (s *Server) ListPrompts(_ context.Context, req *mcp.ListPromptsRequest) (*mcp.ListPromptsResult, error) {
	page, err := pageSlice(s.prompts, s.pageSize, req.Cursor)
	if err != nil {
		return nil, err
	}
	return &mcp.ListPromptsResult{
		Prompts:         page.Items,
		PaginatedResult: mcp.PaginatedResult{NextCursor: cursorOf(page)},
	}, nil
}

// GetPrompt renders a prompt into a single user message.
func (s *Server) GetPrompt(ctx context.Context, req *mcp.GetPromptRequestReceived) (*mcp.GetPromptResult, error) {
	if req.Name == "" {
		return nil, invalidParams("missing prompt name")
	}
	args, err := decodePromptArguments(req.Arguments)
	if err != nil {
		return nil, err
	}

	res := s.dispatcher.Dispatch(ctx, capability.Request{
		Kind:      capability.KindPrompt,
		Identity:  req.Name,
		Arguments: args,
	})
	if !res.OK() {
		return nil, jsonrpc.FromFailure(res.Failure, jsonrpc.ErrorCodeInvalidParams)
	}

	return &mcp.GetPromptResult{
		Description: res.Entry.Description(),
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleUser, Content: mcp.TextBlock(res.Payload)},
		},
	}, nil
}
