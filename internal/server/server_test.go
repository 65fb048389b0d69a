package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-mcp/internal/binance"
	"crypto-mcp/internal/cryptoprice"
	"crypto-mcp/internal/doclinks"
	"crypto-mcp/internal/registry"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("symbol") {
		case "BTCUSDT":
			_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"64000.00"}`))
		case "ETHUSDT":
			_, _ = w.Write([]byte(`{"symbol":"ETHUSDT","price":"3000.50"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
		}
	}))
	t.Cleanup(exchange.Close)

	svc := cryptoprice.NewService(binance.New(exchange.URL, nil), cryptoprice.Options{CacheTTL: time.Minute, Logger: quietLogger})
	reg := registry.New()
	require.NoError(t, reg.Register(cryptoprice.NewModule(svc)))
	require.NoError(t, reg.Register(doclinks.NewModule([]doclinks.Doc{{Name: "Runbook", URL: "https://x"}}, quietLogger)))
	return New(cfg, reg, svc, quietLogger)
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Config{})
	rr := do(t, s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	out := decode(t, rr)
	assert.Equal(t, "ok", out["status"])
	assert.Len(t, out["servers"], 2)
}

func TestServersAndRoot(t *testing.T) {
	s := newTestServer(t, Config{})
	rr := do(t, s, http.MethodGet, "/servers", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	servers := decode(t, rr)["servers"].([]any)
	assert.Equal(t, "CryptoPrice", servers[0].(map[string]any)["name"])
	assert.Equal(t, "DocLinks", servers[1].(map[string]any)["name"])

	rr = do(t, s, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "running", decode(t, rr)["status"])
}

func TestToolsAndCall(t *testing.T) {
	s := newTestServer(t, Config{Token: "x"})

	rr := do(t, s, http.MethodGet, "/mcp/tools", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, s, http.MethodGet, "/mcp/tools", "x", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode(t, rr)["tools"], 6)

	rr = do(t, s, http.MethodPost, "/mcp/call", "x", map[string]any{"name": "get_crypto_price", "arguments": map[string]any{"symbol": "btc"}})
	require.Equal(t, http.StatusOK, rr.Code)
	out := decode(t, rr)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "BTCUSDT", out["symbol"])

	rr = do(t, s, http.MethodPost, "/mcp/call", "x", map[string]any{"name": "nope"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, s, http.MethodPost, "/mcp/call", "x", map[string]any{"name": "get_crypto_price", "arguments": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, s, http.MethodPost, "/mcp/call", "x", "{")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestJSONRPCEndpoints(t *testing.T) {
	s := newTestServer(t, Config{})
	for _, path := range []string{"/mcp", "/sse"} {
		t.Run(path, func(t *testing.T) {
			rr := do(t, s, http.MethodPost, path, "", map[string]any{
				"jsonrpc": "2.0", "id": 5, "method": "tools/call",
				"params": map[string]any{"name": "get_multiple_prices", "arguments": map[string]any{"symbols": "BTC,INVALID,ETH"}},
			})
			require.Equal(t, http.StatusOK, rr.Code)
			out := decode(t, rr)
			assert.EqualValues(t, 5, out["id"])
			content := out["result"].(map[string]any)["content"].([]any)
			text := content[0].(map[string]any)["text"].(string)

			var multi cryptoprice.MultiPriceResult
			require.NoError(t, json.Unmarshal([]byte(text), &multi))
			require.Len(t, multi.Results, 3)
			assert.True(t, multi.Results[0].Success)
			assert.False(t, multi.Results[1].Success)
			assert.True(t, multi.Results[2].Success)
			assert.Equal(t, "ETHUSDT", multi.Results[2].Symbol)
		})
	}
}

func TestJSONRPCParseError(t *testing.T) {
	s := newTestServer(t, Config{})
	rr := do(t, s, http.MethodPost, "/mcp", "", "{oops")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	out := decode(t, rr)
	assert.EqualValues(t, -32700, out["error"].(map[string]any)["code"])
}

func TestJSONRPCRequiresToken(t *testing.T) {
	s := newTestServer(t, Config{Token: "secret"})
	body := map[string]any{"jsonrpc": "2.0", "id": 1, "method": "tools/list"}
	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodPost, "/mcp", "", body).Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/mcp", "secret", body).Code)
}

func TestScheduled(t *testing.T) {
	s := newTestServer(t, Config{Token: "x", PrefetchSymbols: []string{"BTC", "ETH", "NOPE"}})
	rr := do(t, s, http.MethodPost, "/mcp/scheduled", "x", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	out := decode(t, rr)
	assert.Equal(t, "scheduled task completed", out["status"])
	assert.EqualValues(t, 3, out["requested"])
	assert.EqualValues(t, 2, out["warmed"])
}
