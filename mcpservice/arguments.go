package mcpservice

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ggoodman/ez-mcp/internal/jsonrpc"
)

// decodeArguments decodes a JSON object of raw arguments, keeping numbers as
// json.Number so integers survive without a float round trip. Absent or null
// arguments decode to nil.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var args map[string]any
	if err := decodeNumber(raw, &args); err != nil {
		return nil, invalidParams("arguments must be an object: %v", err)
	}
	return args, nil
}

// decodePromptArguments decodes each prompt argument independently. Clients
// send strings, but numbers and booleans are accepted and bound as well.
func decodePromptArguments(raw map[string]json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	args := make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := decodeNumber(v, &val); err != nil {
			return nil, invalidParams("argument '%s': %v", k, err)
		}
		args[k] = val
	}
	return args, nil
}

func decodeNumber(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func invalidParams(format string, a ...any) *jsonrpc.Error {
	return jsonrpc.NewError(jsonrpc.ErrorCodeInvalidParams, fmt.Sprintf(format, a...), nil)
}
