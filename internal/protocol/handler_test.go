package protocol

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-mcp/internal/registry"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	ts := registry.NewToolset("Echo", "1.0.0")
	ts.Add(registry.Tool{
		Name:        "echo",
		Description: "echo a value",
		InputSchema: registry.StringParams(map[string]string{"value": "text"}, "value"),
	}, func(_ context.Context, args map[string]any) (any, error) {
		return map[string]any{"success": true, "value": args["value"]}, nil
	})
	reg := registry.New()
	require.NoError(t, reg.Register(ts))
	return NewHandler(reg, "MultiServer", "1.0.0", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func roundTrip(t *testing.T, h *Handler, body string) map[string]any {
	t.Helper()
	resp, _ := h.HandleBytes(context.Background(), []byte(body))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestInitialize(t *testing.T) {
	out := roundTrip(t, newTestHandler(t), `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	assert.Equal(t, "2.0", out["jsonrpc"])
	assert.EqualValues(t, 1, out["id"])
	result := out["result"].(map[string]any)
	assert.Equal(t, MCPProtocolVersion, result["protocolVersion"])
	info := result["serverInfo"].(map[string]any)
	assert.Equal(t, "MultiServer", info["name"])
	assert.EqualValues(t, 1, info["count"])
}

func TestInitializedNotification(t *testing.T) {
	resp, _ := newTestHandler(t).HandleBytes(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","result":null}`, string(data))
}

func TestToolsList(t *testing.T) {
	out := roundTrip(t, newTestHandler(t), `{"jsonrpc":"2.0","id":"a","method":"tools/list"}`)
	assert.Equal(t, "a", out["id"])
	tools := out["result"].(map[string]any)["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "echo", tool["name"])
	assert.Equal(t, "Echo", tool["_server"])
	assert.Equal(t, "object", tool["inputSchema"].(map[string]any)["type"])
}

func TestToolsCall(t *testing.T) {
	out := roundTrip(t, newTestHandler(t), `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"echo","arguments":{"value":"hi"}}}`)
	require.Nil(t, out["error"])
	content := out["result"].(map[string]any)["content"].([]any)
	require.Len(t, content, 1)
	item := content[0].(map[string]any)
	assert.Equal(t, "text", item["type"])
	assert.JSONEq(t, `{"success":true,"value":"hi"}`, item["text"].(string))
}

func TestToolsCallPinnedServer(t *testing.T) {
	h := newTestHandler(t)
	out := roundTrip(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","server":"Echo","arguments":{"value":"x"}}}`)
	assert.Nil(t, out["error"])

	out = roundTrip(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","server":"Other","arguments":{"value":"x"}}}`)
	require.NotNil(t, out["error"])
	assert.Contains(t, out["error"].(map[string]any)["message"], "server not found")
}

func TestToolsCallErrors(t *testing.T) {
	h := newTestHandler(t)
	cases := []struct {
		name, body string
		code       float64
		contains   string
	}{
		{"unknown tool", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope"}}`, CodeInternalError, "tool not found"},
		{"missing argument", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{}}}`, CodeInvalidParams, "invalid arguments"},
		{"missing name", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`, CodeInvalidParams, "tool name is required"},
		{"bad params", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":[1,2]}`, CodeInvalidParams, "Invalid params"},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, CodeMethodNotFound, "Method not found: resources/list"},
		{"no method", `{"jsonrpc":"2.0","id":1}`, CodeInvalidRequest, "method is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := roundTrip(t, h, tc.body)
			assert.Nil(t, out["result"])
			assert.EqualValues(t, 1, out["id"])
			e := out["error"].(map[string]any)
			assert.Equal(t, tc.code, e["code"])
			assert.Contains(t, e["message"], tc.contains)
		})
	}
}

func TestParseError(t *testing.T) {
	resp, parseErr := newTestHandler(t).HandleBytes(context.Background(), []byte(`{not json`))
	assert.True(t, parseErr)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeParseError, resp.Error.Code)
	assert.Nil(t, resp.ID)
}

func TestPing(t *testing.T) {
	out := roundTrip(t, newTestHandler(t), `{"jsonrpc":"2.0","id":3,"method":"ping"}`)
	assert.Equal(t, map[string]any{}, out["result"])
}
