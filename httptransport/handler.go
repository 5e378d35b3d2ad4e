package httptransport

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/ggoodman/ez-mcp/internal/engine"
	"github.com/ggoodman/ez-mcp/internal/jsonrpc"
	"github.com/ggoodman/ez-mcp/internal/logctx"
	"github.com/ggoodman/ez-mcp/mcpservice"
)

const transportName = "http"

// DefaultMaxBodyBytes bounds the size of a single request body.
const DefaultMaxBodyBytes int64 = 4 << 20

var (
	jsonMediaType  = contenttype.NewMediaType("application/json")
	jsonMediaTypes = []contenttype.MediaType{jsonMediaType}
)

// writeJSONError emits a minimal JSON body for HTTP-layer rejections before a
// JSON-RPC message exchange is possible.
// Shape: {"error":{"code":<httpStatus>,"message":"<reason>"}}
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used by the handler and its engine.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// Handler is an http.Handler serving one JSON-RPC message per POST.
type Handler struct {
	eng     *engine.Engine
	log     *slog.Logger
	maxBody int64
}

// New returns a Handler serving srv.
func New(srv *mcpservice.Server, opts ...Option) *Handler {
	h := &Handler{log: slog.Default(), maxBody: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(h)
	}
	h.eng = engine.NewEngine(srv, engine.WithLogger(h.log))
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		h.log.InfoContext(ctx, "http.method.unsupported", slog.String("http_method", r.Method))
		return
	}

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		h.log.WarnContext(ctx, "http.content_type.unsupported")
		return
	}

	if r.Header.Get("Accept") != "" {
		if _, _, err := contenttype.GetAcceptableMediaType(r, jsonMediaTypes); err != nil {
			writeJSONError(w, http.StatusNotAcceptable, "client must accept application/json")
			h.log.WarnContext(ctx, "http.accept.unsupported")
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			h.log.WarnContext(ctx, "http.body.too_large", slog.Int64("limit", tooLarge.Limit))
			return
		}
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		h.log.WarnContext(ctx, "http.body.read.fail", slog.String("err", err.Error()))
		return
	}

	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		writeJSONError(w, http.StatusBadRequest, "JSON-RPC batch arrays are not supported")
		h.log.WarnContext(ctx, "jsonrpc.batch.forbidden")
		return
	}

	msg, rpcErr := jsonrpc.ParseMessage(body)
	if rpcErr != nil {
		h.writeResponse(w, r, http.StatusBadRequest, &jsonrpc.Response{JSONRPCVersion: jsonrpc.ProtocolVersion, Error: rpcErr})
		h.log.WarnContext(ctx, "jsonrpc.message.invalid", slog.Int("code", int(rpcErr.Code)), slog.String("err", rpcErr.Message))
		return
	}

	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method:    msg.Method,
		ID:        msg.ID.String(),
		Transport: transportName,
	})

	res := h.eng.HandleMessage(ctx, msg)
	if res == nil {
		w.WriteHeader(http.StatusAccepted)
		h.log.DebugContext(ctx, "http.post.accepted", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return
	}
	h.writeResponse(w, r.WithContext(ctx), http.StatusOK, res)
}

func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, status int, res *jsonrpc.Response) {
	b, err := json.Marshal(res)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		h.log.ErrorContext(r.Context(), "http.encode.fail", slog.String("err", err.Error()))
		return
	}
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		h.log.ErrorContext(r.Context(), "http.write.fail", slog.String("err", err.Error()))
	}
}
