package mcpservice

import (
	"context"

	"github.com/ggoodman/ez-mcp/capability"
	"github.com/ggoodman/ez-mcp/internal/jsonrpc"
	"github.com/ggoodman/ez-mcp/mcp"
)

// ListResources returns a page of resources whose pattern has no
// placeholders.
func (s *Server) ListResources(_ context.Context, req *mcp.ListResourcesRequest) (*mcp.ListResourcesResult, error) {
	page, err := pageSlice(s.resources, s.pageSize, req.Cursor)
	if err != nil {
		return nil, err
	}
	return &mcp.ListResourcesResult{
		Resources:       page.Items,
		PaginatedResult: mcp.PaginatedResult{NextCursor: cursorOf(page)},
	}, nil
}

// ListResourceTemplates returns a page of templated resource patterns.
func (s *Server) ListResourceTemplates(_ context.Context, req *mcp.ListResourceTemplatesRequest) (*mcp.ListResourceTemplatesResult, error) {
	page, err := pageSlice(s.templates, s.pageSize, req.Cursor)
	if err != nil {
		return nil, err
	}
	return &mcp.ListResourceTemplatesResult{
		ResourceTemplates: page.Items,
		PaginatedResult:   mcp.PaginatedResult{NextCursor: cursorOf(page)},
	}, nil
}

// ReadResource reads the resource addressed by req.URI. Placeholder values
// extracted from the URI are the only arguments a resource receives.
func (s *Server) ReadResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if req.URI == "" {
		return nil, invalidParams("missing uri")
	}

	res := s.dispatcher.Dispatch(ctx, capability.Request{Kind: capability.KindResource, Identity: req.URI})
	if !res.OK() {
		return nil, jsonrpc.FromFailure(res.Failure, jsonrpc.ErrorCodeResourceNotFound)
	}

	return &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContents{{URI: req.URI, MimeType: res.Entry.MimeType(), Text: res.Payload}},
	}, nil
}
