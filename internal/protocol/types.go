// Package protocol implements the JSON-RPC 2.0 envelope used by MCP clients.
package protocol

import "encoding/json"

// Version is the JSON-RPC version string carried by every envelope.
const Version = "2.0"

// MCPProtocolVersion is the MCP revision reported on initialize.
const MCPProtocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Method names understood by the handler.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodPing        = "ping"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
)

// Request is an incoming envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Error is the error member of a response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response is an outgoing envelope. Exactly one of Result or Error is encoded.
type Response struct {
	JSONRPC string
	ID      json.RawMessage
	Result  any
	Error   *Error
}

// MarshalJSON keeps a null result on success and drops result entirely on error.
func (r Response) MarshalJSON() ([]byte, error) {
	type success struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id,omitempty"`
		Result  any             `json:"result"`
	}
	type failure struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id,omitempty"`
		Error   *Error          `json:"error"`
	}
	if r.Error != nil {
		return json.Marshal(failure{JSONRPC: r.JSONRPC, ID: r.ID, Error: r.Error})
	}
	return json.Marshal(success{JSONRPC: r.JSONRPC, ID: r.ID, Result: r.Result})
}

// CallParams are the params of tools/call. Server optionally pins the owning module.
type CallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Server    string         `json:"server,omitempty"`
}

// Content is one item of a tool call result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the result of tools/call.
type CallResult struct {
	Content []Content `json:"content"`
}

func makeResult(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

func makeError(id json.RawMessage, code int, msg string) *Response {
	return &Response{JSONRPC: Version, ID: id, Error: &Error{Code: code, Message: msg}}
}
