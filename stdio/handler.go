package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ggoodman/ez-mcp/internal/engine"
	"github.com/ggoodman/ez-mcp/internal/jsonrpc"
	"github.com/ggoodman/ez-mcp/internal/logctx"
	"github.com/ggoodman/ez-mcp/mcpservice"
)

const transportName = "stdio"

// Handler is a single-connection stdio transport that reads JSON-RPC messages
// from an io.Reader and writes responses to an io.Writer. By default, it uses
// os.Stdin and os.Stdout.
//
// The handler is transport-only; it delegates all MCP semantics to the provided
// mcpservice.Server.
type Handler struct {
	srv *mcpservice.Server
	r   io.Reader
	w   io.Writer
	l   *slog.Logger

	writeMu sync.Mutex
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(srv *mcpservice.Server, opts ...Option) *Handler {
	h := &Handler{
		srv: srv,
		r:   os.Stdin,
		w:   os.Stdout,
		l:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type readResult struct {
	line []byte
	err  error
}

// Serve runs the stdio event loop until EOF on the reader or the context is
// canceled. It is safe to call at most once per Handler.
//
// On EOF, Serve waits for in-flight requests to be answered and returns nil.
// On cancellation it returns the context's error without waiting.
func (h *Handler) Serve(ctx context.Context) error {
	eng := engine.NewEngine(h.srv, engine.WithLogger(h.l))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan readResult)
	go h.readLines(ctx, lines)

	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rr := <-lines:
			if rr.err != nil {
				wg.Wait()
				if errors.Is(rr.err, io.EOF) {
					h.l.DebugContext(ctx, "stdio.eof")
					return nil
				}
				return fmt.Errorf("stdio: read: %w", rr.err)
			}
			if len(bytes.TrimSpace(rr.line)) == 0 {
				continue
			}

			msg, rpcErr := jsonrpc.ParseMessage(rr.line)
			if rpcErr != nil {
				h.l.InfoContext(ctx, "stdio.decode.fail", slog.Int("code", int(rpcErr.Code)), slog.String("err", rpcErr.Message))
				h.write(ctx, &jsonrpc.Response{JSONRPCVersion: jsonrpc.ProtocolVersion, Error: rpcErr})
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				msgCtx := logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
					Method:    msg.Method,
					ID:        msg.ID.String(),
					Transport: transportName,
				})
				if res := eng.HandleMessage(msgCtx, msg); res != nil {
					h.write(msgCtx, res)
				}
			}()
		}
	}
}

// readLines delivers newline-delimited frames until the reader fails. The
// final frame may lack a trailing newline.
func (h *Handler) readLines(ctx context.Context, out chan<- readResult) {
	br := bufio.NewReader(h.r)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			select {
			case out <- readResult{line: line}:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			select {
			case out <- readResult{err: err}:
			case <-ctx.Done():
			}
			return
		}
	}
}

func (h *Handler) write(ctx context.Context, res *jsonrpc.Response) {
	b, err := json.Marshal(res)
	if err != nil {
		h.l.ErrorContext(ctx, "stdio.encode.fail", slog.String("err", err.Error()))
		return
	}
	b = append(b, '\n')

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if _, err := h.w.Write(b); err != nil {
		h.l.ErrorContext(ctx, "stdio.write.fail", slog.String("err", err.Error()))
	}
}
