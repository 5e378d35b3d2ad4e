// Package mcp contains the protocol data types and method constants served
// by ez-mcp. It mirrors the wire representation specified by the Model
// Context Protocol for the subset this server implements: initialization,
// ping, tools, resources (including resource templates) and prompts.
//
// The package is free of transport logic. The stdio and HTTP transports
// import these types but implement their own framing, and the mcpservice
// package builds results from them.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. ToolsListMethod).
//
// # Pagination
//
// List operations use cursor-based pagination. PaginatedRequest and
// PaginatedResult are embedded in request and result envelopes.
//
// Example (tool result construction):
//
//	res := &mcp.CallToolResult{
//	    Content: []mcp.ContentBlock{mcp.TextBlock("hello")},
//	}
//
// # Compatibility
//
// LatestProtocolVersion is the protocol revision preferred during
// initialize. A client asking for any of SupportedProtocolVersions gets its
// own version echoed back; anything else is answered with the latest.
package mcp
