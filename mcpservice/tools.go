package mcpservice

import (
	"context"
	"fmt"

	"github.com/ggoodman/ez-mcp/capability"
	"github.com/ggoodman/ez-mcp/internal/jsonrpc"
	"github.com/ggoodman/ez-mcp/mcp"
)

// ListTools returns a page of tool descriptors.
func (s *Server) ListTools(_ context.Context, req *mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	page, err := pageSlice(s.tools, s.pageSize, req.Cursor)
	if err != nil {
		return nil, err
	}
	return &mcp.ListToolsResult{
		Tools:           page.Items,
		PaginatedResult: mcp.PaginatedResult{NextCursor: cursorOf(page)},
	}, nil
}

// CallTool invokes a tool. An unknown tool is a protocol error; every other
// failure is reported in-band with IsError set so the caller's model can see
// the reason.
func (s *Server) CallTool(ctx context.Context, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
	if req.Name == "" {
		return nil, invalidParams("missing tool name")
	}
	args, err := decodeArguments(req.Arguments)
	if err != nil {
		return nil, err
	}

	res := s.dispatcher.Dispatch(ctx, capability.Request{
		Kind:      capability.KindTool,
		Identity:  req.Name,
		Arguments: args,
	})
	if res.OK() {
		return TextResult(res.Payload), nil
	}
	if res.Failure.Category == capability.NotFound {
		return nil, jsonrpc.FromFailure(res.Failure, jsonrpc.ErrorCodeInvalidParams)
	}
	return Errorf("%s", res.Failure.Reason), nil
}

// TextResult is a small helper to build a text CallToolResult.
func TextResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{mcp.TextBlock(s)}}
}

// Errorf returns an error CallToolResult with a single text block and IsError=true.
func Errorf(format string, a ...any) *mcp.CallToolResult {
	msg := fmt.Sprintf(format, a...)
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{mcp.TextBlock(msg)}, IsError: true}
}
