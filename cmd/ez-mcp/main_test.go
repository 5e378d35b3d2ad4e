package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	for _, k := range []string{"ENVIRONMENT", "GREETING_PREFIX", "LOG_LEVEL", "LOG_FORMAT", "EZMCP_HTTP_ADDR", "EZMCP_SERVER_NAME", "EZMCP_PROTOCOL_VERSION"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "ez-mcp version dev\n", out)
}

func TestCapabilities_JSON(t *testing.T) {
	out, _, err := execute(t, "", "capabilities", "--format", "json")
	require.NoError(t, err)

	var entries []struct {
		Kind         string   `json:"kind"`
		Identity     string   `json:"identity"`
		Placeholders []string `json:"placeholders"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 12)
	assert.Equal(t, "resource", entries[0].Kind)
	assert.Equal(t, "server://info", entries[0].Identity)

	var found bool
	for _, e := range entries {
		if e.Identity == "user://{user_id}" {
			found = true
			assert.Equal(t, []string{"user_id"}, e.Placeholders)
		}
	}
	assert.True(t, found)
}

func TestCapabilities_KindFilter(t *testing.T) {
	out, _, err := execute(t, "", "capabilities", "--format", "json", "--kind", "tool")
	require.NoError(t, err)

	var entries []struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 6)
	for _, e := range entries {
		assert.Equal(t, "tool", e.Kind)
	}

	_, _, err = execute(t, "", "capabilities", "--kind", "bogus")
	assert.ErrorContains(t, err, "unknown capability kind")
}

func TestCapabilities_YAML(t *testing.T) {
	out, _, err := execute(t, "", "capabilities")
	require.NoError(t, err)
	assert.Contains(t, out, "identity: calculate_bmi")
	assert.Contains(t, out, "kind: prompt")
}

func TestCapabilities_UnknownFormat(t *testing.T) {
	_, _, err := execute(t, "", "capabilities", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestServe_Stdio(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ez-mcp.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("greeting_prefix = \"Howdy\"\nlog_format = \"json\"\n"), 0o600))

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"t","version":"0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"config://settings"}}`,
	}, "\n") + "\n"

	// The root command serves when no subcommand is given.
	out, logs, err := execute(t, in, "--config", cfgPath)
	require.NoError(t, err)

	responses := map[string]json.RawMessage{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var res struct {
			ID     json.RawMessage `json:"id"`
			Result json.RawMessage `json:"result"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &res), line)
		responses[string(res.ID)] = res.Result
	}
	require.Len(t, responses, 2)
	assert.Contains(t, string(responses["1"]), `"name":"EZ-MCP Demo Server"`)

	var read struct {
		Contents []struct {
			URI  string `json:"uri"`
			Text string `json:"text"`
		} `json:"contents"`
	}
	require.NoError(t, json.Unmarshal(responses["2"], &read))
	require.Len(t, read.Contents, 1)
	assert.Equal(t, "config://settings", read.Contents[0].URI)
	assert.Contains(t, read.Contents[0].Text, "Howdy")

	assert.Contains(t, logs, `"msg":"server.start"`)
	assert.Contains(t, logs, `"greeting_prefix":"Howdy"`)
	assert.Contains(t, logs, `"tools":6`)
}

func TestServe_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level = \"loud\"\n"), 0o600))

	_, _, err := execute(t, "", "serve", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
