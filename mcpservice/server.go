package mcpservice

import (
	"context"
	"slices"

	"github.com/ggoodman/ez-mcp/capability"
	"github.com/ggoodman/ez-mcp/mcp"
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// Server serves the MCP method set from a capability dispatcher. It is safe
// for concurrent use.
type Server struct {
	dispatcher *capability.Dispatcher
	registry   *capability.Registry

	info            mcp.ImplementationInfo
	instructions    string
	protocolVersion string
	pageSize        int

	tools     []mcp.Tool
	resources []mcp.Resource
	templates []mcp.ResourceTemplate
	prompts   []mcp.Prompt
}

// NewServer builds a Server around d. Listings are derived from the
// dispatcher's registry once, here.
func NewServer(d *capability.Dispatcher, opts ...ServerOption) *Server {
	s := &Server{
		dispatcher:      d,
		registry:        d.Registry(),
		protocolVersion: mcp.LatestProtocolVersion,
		pageSize:        DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pageSize <= 0 {
		s.pageSize = DefaultPageSize
	}

	for _, r := range s.registry.EntriesOf(capability.KindTool) {
		s.tools = append(s.tools, toolDescriptor(r))
	}
	for _, r := range s.registry.EntriesOf(capability.KindResource) {
		if r.Template().IsLiteral() {
			s.resources = append(s.resources, mcp.Resource{
				URI:         r.Identity(),
				Name:        displayName(r),
				Title:       r.Title(),
				Description: r.Description(),
				MimeType:    r.MimeType(),
			})
			continue
		}
		s.templates = append(s.templates, mcp.ResourceTemplate{
			URITemplate: r.Identity(),
			Name:        displayName(r),
			Title:       r.Title(),
			Description: r.Description(),
			MimeType:    r.MimeType(),
		})
	}
	for _, r := range s.registry.EntriesOf(capability.KindPrompt) {
		s.prompts = append(s.prompts, promptDescriptor(r))
	}
	return s
}

// WithServerInfo sets the implementation info returned from initialize.
func WithServerInfo(info mcp.ImplementationInfo) ServerOption {
	return func(s *Server) { s.info = info }
}

// WithInstructions sets human-readable instructions returned during initialize.
func WithInstructions(instr string) ServerOption {
	return func(s *Server) { s.instructions = instr }
}

// WithPreferredProtocolVersion sets the version answered to clients that ask
// for a revision this server does not know.
func WithPreferredProtocolVersion(version string) ServerOption {
	return func(s *Server) { s.protocolVersion = version }
}

// WithPageSize sets the number of items returned per listing page.
func WithPageSize(n int) ServerOption {
	return func(s *Server) { s.pageSize = n }
}

// Initialize answers the initialize handshake. A supported client version is
// echoed; otherwise the preferred version is offered.
func (s *Server) Initialize(_ context.Context, req *mcp.InitializeRequest) *mcp.InitializeResult {
	version := s.protocolVersion
	if slices.Contains(mcp.SupportedProtocolVersions, req.ProtocolVersion) {
		version = req.ProtocolVersion
	}
	return &mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    s.Capabilities(),
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	}
}

// Capabilities advertises each kind that has at least one registered entry.
// The registry never changes, so listChanged is always false.
func (s *Server) Capabilities() mcp.ServerCapabilities {
	var caps mcp.ServerCapabilities
	if s.registry.Count(capability.KindTool) > 0 {
		caps.Tools = &mcp.ListChangedCapability{}
	}
	if s.registry.Count(capability.KindResource) > 0 {
		caps.Resources = &mcp.ResourcesServerCapability{}
	}
	if s.registry.Count(capability.KindPrompt) > 0 {
		caps.Prompts = &mcp.ListChangedCapability{}
	}
	return caps
}

func displayName(r *capability.Registered) string {
	if r.Title() != "" {
		return r.Title()
	}
	return r.Identity()
}
