package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/ggoodman/ez-mcp/capability"
	"github.com/ggoodman/ez-mcp/internal/jsonrpc"
	"github.com/ggoodman/ez-mcp/internal/logctx"
	"github.com/ggoodman/ez-mcp/mcp"
	"github.com/ggoodman/ez-mcp/mcpservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *bytes.Buffer) {
	t.Helper()
	reg, err := capability.NewBuilder().
		Tool("hello_someone", "Greet", []capability.ParameterSpec{
			capability.Required("name", capability.String, ""),
		}, func(_ context.Context, args capability.Args) (any, error) {
			return "Hello, " + args.String("name") + "!", nil
		}).
		Resource("stats://summary", "", "application/json", nil, func(context.Context, capability.Args) (any, error) {
			return map[string]int{"total_users": 3}, nil
		}).
		Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	log := slog.New(logctx.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	srv := mcpservice.NewServer(capability.NewDispatcher(reg, capability.WithLogger(log)),
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "test", Version: "0.0.1"}))
	return NewEngine(srv, WithLogger(log)), &buf
}

func send(t *testing.T, e *Engine, raw string) *jsonrpc.Response {
	t.Helper()
	msg, rpcErr := jsonrpc.ParseMessage([]byte(raw))
	require.Nil(t, rpcErr)
	return e.HandleMessage(context.Background(), msg)
}

func TestHandleRequest_Initialize(t *testing.T) {
	e, _ := newTestEngine(t)
	res := send(t, e, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`)
	require.NotNil(t, res)
	require.Nil(t, res.Error)

	var init mcp.InitializeResult
	require.NoError(t, json.Unmarshal(res.Result, &init))
	assert.Equal(t, "2025-06-18", init.ProtocolVersion)
	assert.Equal(t, "test", init.ServerInfo.Name)
	assert.NotNil(t, init.Capabilities.Tools)
	assert.NotNil(t, init.Capabilities.Resources)
	assert.Nil(t, init.Capabilities.Prompts)
}

func TestHandleRequest_Ping(t *testing.T) {
	e, _ := newTestEngine(t)
	res := send(t, e, `{"jsonrpc":"2.0","id":"p","method":"ping"}`)
	require.NotNil(t, res)
	assert.Nil(t, res.Error)
	assert.JSONEq(t, `{}`, string(res.Result))
	assert.Equal(t, "p", res.ID.String())
}

func TestHandleRequest_ToolsCall(t *testing.T) {
	e, logs := newTestEngine(t)
	res := send(t, e, `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"hello_someone","arguments":{"name":"Ada"}}}`)
	require.NotNil(t, res)
	require.Nil(t, res.Error)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"Hello, Ada!"}]}`, string(res.Result))
	assert.Contains(t, logs.String(), `"msg":"engine.handle_request.ok"`)
	assert.Contains(t, logs.String(), `"method":"tools/call"`)
}

func TestHandleRequest_Errors(t *testing.T) {
	e, _ := newTestEngine(t)

	tests := []struct {
		name string
		raw  string
		code jsonrpc.ErrorCode
	}{
		{name: "unknown method", raw: `{"jsonrpc":"2.0","id":1,"method":"sampling/createMessage"}`, code: jsonrpc.ErrorCodeMethodNotFound},
		{name: "malformed params", raw: `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":"oops"}`, code: jsonrpc.ErrorCodeInvalidParams},
		{name: "unknown tool", raw: `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nonexistent_tool"}}`, code: jsonrpc.ErrorCodeInvalidParams},
		{name: "unknown resource", raw: `{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"nope://x"}}`, code: jsonrpc.ErrorCodeResourceNotFound},
		{name: "unknown prompt", raw: `{"jsonrpc":"2.0","id":1,"method":"prompts/get","params":{"name":"p"}}`, code: jsonrpc.ErrorCodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := send(t, e, tt.raw)
			require.NotNil(t, res)
			require.NotNil(t, res.Error)
			assert.Equal(t, tt.code, res.Error.Code)
			assert.Equal(t, "1", res.ID.String())
		})
	}
}

func TestHandleRequest_ResourceErrorData(t *testing.T) {
	e, _ := newTestEngine(t)
	res := send(t, e, `{"jsonrpc":"2.0","id":3,"method":"resources/read","params":{"uri":"nope://x"}}`)
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":3,"error":{"code":-32002,"message":"resource 'nope://x' not found","data":{"category":"not_found"}}}`, string(b))
}

func TestHandleMessage_NoResponseForNotifications(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Nil(t, send(t, e, `{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.Nil(t, send(t, e, `{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":1}}`))
	assert.Nil(t, send(t, e, `{"jsonrpc":"2.0","method":"notifications/unknown"}`))
	assert.Nil(t, send(t, e, `{"jsonrpc":"2.0","id":9,"result":{}}`))
}
