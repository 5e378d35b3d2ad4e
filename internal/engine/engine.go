// Package engine routes JSON-RPC messages to an mcpservice.Server. It is
// transport-agnostic: transports frame bytes into messages and write back
// whatever response the engine returns.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ggoodman/ez-mcp/internal/jsonrpc"
	"github.com/ggoodman/ez-mcp/internal/logctx"
	"github.com/ggoodman/ez-mcp/mcp"
	"github.com/ggoodman/ez-mcp/mcpservice"
)

// Engine is the method router shared by every transport. It holds no
// per-connection state and may serve messages concurrently.
type Engine struct {
	srv *mcpservice.Server
	log *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger for the Engine.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine returns an Engine serving srv.
func NewEngine(srv *mcpservice.Server, opts ...EngineOption) *Engine {
	e := &Engine{srv: srv, log: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// HandleMessage serves one decoded message. It returns nil when no response
// is due: for notifications and for responses sent by the peer.
func (e *Engine) HandleMessage(ctx context.Context, msg *jsonrpc.AnyMessage) *jsonrpc.Response {
	switch msg.Type() {
	case "request":
		return e.HandleRequest(ctx, msg.AsRequest())
	case "notification":
		e.HandleNotification(ctx, msg.AsRequest())
	default:
		e.log.DebugContext(ctx, "engine.handle_message.ignored", slog.String("type", msg.Type()))
	}
	return nil
}

// HandleNotification accepts the notifications this server understands and
// drops everything else.
func (e *Engine) HandleNotification(ctx context.Context, req *jsonrpc.Request) {
	ctx = withRPCMessage(ctx, req)
	switch req.Method {
	case string(mcp.InitializedNotificationMethod):
		e.log.DebugContext(ctx, "engine.handle_notification.initialized")
	case string(mcp.CancelledNotificationMethod):
		var params mcp.CancelledNotification
		_ = json.Unmarshal(req.Params, &params)
		e.log.DebugContext(ctx, "engine.handle_notification.cancelled", slog.String("request_id", string(params.RequestID)), slog.String("reason", params.Reason))
	default:
		e.log.DebugContext(ctx, "engine.handle_notification.unknown")
	}
}

// HandleRequest serves one request and always returns a response.
func (e *Engine) HandleRequest(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	ctx = withRPCMessage(ctx, req)

	switch req.Method {
	case string(mcp.InitializeMethod):
		return handle(ctx, e, req, func(ctx context.Context, p *mcp.InitializeRequest) (any, error) {
			e.log.InfoContext(ctx, "engine.initialize",
				slog.String("client_name", p.ClientInfo.Name),
				slog.String("client_version", p.ClientInfo.Version),
				slog.String("protocol_version", p.ProtocolVersion),
			)
			return e.srv.Initialize(ctx, p), nil
		})
	case string(mcp.PingMethod):
		return handle(ctx, e, req, func(context.Context, *struct{}) (any, error) {
			return &mcp.EmptyResult{}, nil
		})
	case string(mcp.ToolsListMethod):
		return handle(ctx, e, req, func(ctx context.Context, p *mcp.ListToolsRequest) (any, error) {
			return e.srv.ListTools(ctx, p)
		})
	case string(mcp.ToolsCallMethod):
		return handle(ctx, e, req, func(ctx context.Context, p *mcp.CallToolRequestReceived) (any, error) {
			return e.srv.CallTool(ctx, p)
		})
	case string(mcp.ResourcesListMethod):
		return handle(ctx, e, req, func(ctx context.Context, p *mcp.ListResourcesRequest) (any, error) {
			return e.srv.ListResources(ctx, p)
		})
	case string(mcp.ResourcesTemplatesListMethod):
		return handle(ctx, e, req, func(ctx context.Context, p *mcp.ListResourceTemplatesRequest) (any, error) {
			return e.srv.ListResourceTemplates(ctx, p)
		})
	case string(mcp.ResourcesReadMethod):
		return handle(ctx, e, req, func(ctx context.Context, p *mcp.ReadResourceRequest) (any, error) {
			return e.srv.ReadResource(ctx, p)
		})
	case string(mcp.PromptsListMethod):
		return handle(ctx, e, req, func(ctx context.Context, p *mcp.ListPromptsRequest) (any, error) {
			return e.srv.ListPrompts(ctx, p)
		})
	case string(mcp.PromptsGetMethod):
		return handle(ctx, e, req, func(ctx context.Context, p *mcp.GetPromptRequestReceived) (any, error) {
			return e.srv.GetPrompt(ctx, p)
		})
	}

	e.log.InfoContext(ctx, "engine.handle_request.unsupported")
	return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found: "+req.Method, nil)
}

// handle decodes the params of req into P, runs fn and packages the outcome.
// Errors of type *jsonrpc.Error are sent as-is; any other error is logged and
// reported as an internal error.
func handle[P any](ctx context.Context, e *Engine, req *jsonrpc.Request, fn func(context.Context, *P) (any, error)) *jsonrpc.Response {
	start := time.Now()

	var params P
	if hasParams(req.Params) {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			e.log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil)
		}
	}

	result, err := fn(ctx, &params)
	if err != nil {
		var rpcErr *jsonrpc.Error
		if errors.As(err, &rpcErr) {
			e.log.InfoContext(ctx, "engine.handle_request.error", slog.Int("code", int(rpcErr.Code)), slog.String("err", rpcErr.Message), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
			return &jsonrpc.Response{JSONRPCVersion: jsonrpc.ProtocolVersion, Error: rpcErr, ID: req.ID}
		}
		e.log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
	}

	res, err := jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		e.log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
	}

	e.log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return res
}

func hasParams(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// withRPCMessage records the message on ctx unless the transport already did.
func withRPCMessage(ctx context.Context, req *jsonrpc.Request) context.Context {
	if _, ok := logctx.RPCMessageFrom(ctx); ok {
		return ctx
	}
	return logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String()})
}
