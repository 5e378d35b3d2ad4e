package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ggoodman/ez-mcp/capability"
	"github.com/ggoodman/ez-mcp/internal/jsonrpc"
	"github.com/ggoodman/ez-mcp/mcp"
	"github.com/ggoodman/ez-mcp/mcpservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHarness encapsulates pipes and collected output for stdio handler tests.
type testHarness struct {
	t      *testing.T
	stdinW io.WriteCloser
	out    chan jsonrpc.Response
	done   chan error
}

func newTestServer(t *testing.T, release <-chan struct{}) *mcpservice.Server {
	t.Helper()
	reg, err := capability.NewBuilder().
		Tool("hello_someone", "", []capability.ParameterSpec{
			capability.Required("name", capability.String, ""),
		}, func(_ context.Context, args capability.Args) (any, error) {
			return "Hello, " + args.String("name") + "!", nil
		}).
		Tool("slow", "", nil, func(ctx context.Context, _ capability.Args) (any, error) {
			select {
			case <-release:
				return "done", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}).
		Build()
	require.NoError(t, err)
	return mcpservice.NewServer(capability.NewDispatcher(reg),
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "stdio-test", Version: "0.0.1"}))
}

func newHarness(t *testing.T, srv *mcpservice.Server) *testHarness {
	t.Helper()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	h := NewHandler(srv, WithIO(inR, outW), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithCancel(context.Background())
	th := &testHarness{t: t, stdinW: inW, out: make(chan jsonrpc.Response, 16), done: make(chan error, 1)}

	go func() {
		th.done <- h.Serve(ctx)
	}()

	go func() {
		sc := bufio.NewScanner(outR)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			t.Logf("OUT: %s", line)
			var res jsonrpc.Response
			if err := json.Unmarshal([]byte(line), &res); err != nil {
				t.Errorf("invalid output line %q: %v", line, err)
				continue
			}
			th.out <- res
		}
	}()

	t.Cleanup(func() {
		cancel()
		_ = inW.Close()
		_ = outW.Close()
	})
	return th
}

func (th *testHarness) send(line string) {
	th.t.Helper()
	_, err := io.WriteString(th.stdinW, line+"\n")
	require.NoError(th.t, err)
}

func (th *testHarness) next() jsonrpc.Response {
	th.t.Helper()
	select {
	case res := <-th.out:
		return res
	case <-time.After(2 * time.Second):
		th.t.Fatal("timed out waiting for response")
		return jsonrpc.Response{}
	}
}

func TestServe_InitializeAndCall(t *testing.T) {
	th := newHarness(t, newTestServer(t, nil))

	th.send(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`)
	res := th.next()
	require.Nil(t, res.Error)
	assert.Equal(t, "1", res.ID.String())
	var init mcp.InitializeResult
	require.NoError(t, json.Unmarshal(res.Result, &init))
	assert.Equal(t, "stdio-test", init.ServerInfo.Name)

	th.send(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	th.send(`{"jsonrpc":"2.0","id":"call-1","method":"tools/call","params":{"name":"hello_someone","arguments":{"name":"Ada"}}}`)
	res = th.next()
	require.Nil(t, res.Error)
	assert.Equal(t, "call-1", res.ID.String())
	assert.JSONEq(t, `{"content":[{"type":"text","text":"Hello, Ada!"}]}`, string(res.Result))
}

func TestServe_MalformedLineKeepsServing(t *testing.T) {
	th := newHarness(t, newTestServer(t, nil))

	th.send(`{not json`)
	res := th.next()
	require.NotNil(t, res.Error)
	assert.Equal(t, jsonrpc.ErrorCodeParseError, res.Error.Code)
	assert.True(t, res.ID.IsNil())

	th.send(`{"jsonrpc":"1.0","id":2,"method":"ping"}`)
	res = th.next()
	require.NotNil(t, res.Error)
	assert.Equal(t, jsonrpc.ErrorCodeInvalidRequest, res.Error.Code)

	th.send(`{"jsonrpc":"2.0","id":3,"method":"ping"}`)
	res = th.next()
	assert.Nil(t, res.Error)
	assert.Equal(t, "3", res.ID.String())
}

func TestServe_RequestsAreConcurrent(t *testing.T) {
	release := make(chan struct{})
	th := newHarness(t, newTestServer(t, release))

	th.send(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"slow"}}`)
	th.send(`{"jsonrpc":"2.0","id":2,"method":"ping"}`)

	res := th.next()
	assert.Equal(t, "2", res.ID.String(), "ping must not wait behind a slow tool")

	close(release)
	res = th.next()
	assert.Equal(t, "1", res.ID.String())
	assert.JSONEq(t, `{"content":[{"type":"text","text":"done"}]}`, string(res.Result))
}

func TestServe_ReturnsNilOnEOF(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		``,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"hello_someone","arguments":{"name":"Bo"}}}`,
	}, "\n"))
	var out lockedBuffer

	h := NewHandler(newTestServer(t, nil), WithReader(in), WithWriter(&out), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, h.Serve(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	ids := map[string]bool{}
	for _, l := range lines {
		var res jsonrpc.Response
		require.NoError(t, json.Unmarshal([]byte(l), &res))
		ids[res.ID.String()] = true
	}
	assert.Equal(t, map[string]bool{"1": true, "2": true}, ids)
}

func TestServe_ReturnsContextError(t *testing.T) {
	inR, inW := io.Pipe()
	defer inW.Close()

	h := NewHandler(newTestServer(t, nil), WithIO(inR, io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
