// Package logctx carries request-scoped logging data on a context and
// exposes a slog.Handler that attaches it to every record.
package logctx

import (
	"context"
	"log/slog"
)

// Handler decorates records with the rpc and dispatch groups found on the
// context before delegating to the wrapped handler.
type Handler struct {
	slog.Handler
}

// New wraps h.
func New(h slog.Handler) Handler { return Handler{Handler: h} }

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if msg, ok := RPCMessageFrom(ctx); ok {
		r.AddAttrs(slog.Group("rpc",
			slog.String("method", msg.Method),
			slog.String("id", msg.ID),
			slog.String("transport", msg.Transport),
		))
	}

	if dd, ok := DispatchDataFrom(ctx); ok {
		r.AddAttrs(slog.Group("dispatch",
			slog.String("id", dd.ID),
			slog.String("kind", dd.Kind),
			slog.String("identity", dd.Identity),
		))
	}

	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

type rpcMsg struct{}

// RPCMessage identifies the inbound JSON-RPC message being served.
type RPCMessage struct {
	Method    string
	ID        string
	Transport string
}

func WithRPCMessage(ctx context.Context, msg *RPCMessage) context.Context {
	return context.WithValue(ctx, rpcMsg{}, msg)
}

// RPCMessageFrom returns the message stored by WithRPCMessage.
func RPCMessageFrom(ctx context.Context) (*RPCMessage, bool) {
	msg, ok := ctx.Value(rpcMsg{}).(*RPCMessage)
	return msg, ok
}

type dispatchDataKey struct{}

// DispatchData identifies one capability dispatch.
type DispatchData struct {
	ID       string
	Kind     string
	Identity string
}

func WithDispatchData(ctx context.Context, data *DispatchData) context.Context {
	return context.WithValue(ctx, dispatchDataKey{}, data)
}

// DispatchDataFrom returns the data stored by WithDispatchData.
func DispatchDataFrom(ctx context.Context) (*DispatchData, bool) {
	dd, ok := ctx.Value(dispatchDataKey{}).(*DispatchData)
	return dd, ok
}
