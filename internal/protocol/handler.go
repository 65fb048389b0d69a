package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"crypto-mcp/internal/registry"
)

// Handler answers JSON-RPC requests against a registry.
type Handler struct {
	reg     *registry.Registry
	name    string
	version string
	log     *slog.Logger
}

// NewHandler returns a Handler that reports itself as name/version on initialize.
func NewHandler(reg *registry.Registry, name, version string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{reg: reg, name: name, version: version, log: log}
}

// Decode parses a request body. A non-nil response means the body was not a
// usable envelope and that response should be sent as-is.
func Decode(body []byte) (*Request, *Response) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, makeError(nil, CodeParseError, "Parse error")
	}
	if req.Method == "" {
		return nil, makeError(req.ID, CodeInvalidRequest, "Invalid Request: method is required")
	}
	return &req, nil
}

// HandleBytes decodes body and handles it. The bool reports a parse failure.
func (h *Handler) HandleBytes(ctx context.Context, body []byte) (*Response, bool) {
	req, resp := Decode(body)
	if resp != nil {
		h.log.Error("invalid envelope", "error", resp.Error.Message)
		return resp, resp.Error.Code == CodeParseError
	}
	return h.Handle(ctx, req), false
}

// Handle dispatches one request by method.
func (h *Handler) Handle(ctx context.Context, req *Request) *Response {
	h.log.Info("request", "method", req.Method, "id", string(req.ID))

	switch req.Method {
	case MethodInitialize:
		return makeResult(req.ID, map[string]any{
			"protocolVersion": MCPProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      h.reg.CombinedInfo(h.name, h.version),
		})

	case MethodInitialized:
		h.log.Info("client initialized")
		return &Response{JSONRPC: Version}

	case MethodPing:
		return makeResult(req.ID, map[string]any{})

	case MethodToolsList:
		return makeResult(req.ID, map[string]any{"tools": h.reg.ListAllTools()})

	case MethodToolsCall:
		return h.handleCall(ctx, req)
	}

	h.log.Warn("unknown method", "method", req.Method)
	return makeError(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
}

func (h *Handler) handleCall(ctx context.Context, req *Request) *Response {
	var p CallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return makeError(req.ID, CodeInvalidParams, "Invalid params")
		}
	}
	if p.Name == "" {
		return makeError(req.ID, CodeInvalidParams, "Invalid params: tool name is required")
	}
	if p.Arguments == nil {
		p.Arguments = map[string]any{}
	}

	callID := ulid.Make().String()
	log := h.log.With("call_id", callID, "tool", p.Name)
	log.Info("calling tool", "arguments", p.Arguments)

	var (
		result any
		err    error
	)
	if p.Server != "" {
		result, err = h.reg.CallToolOn(ctx, p.Server, p.Name, p.Arguments)
	} else {
		result, err = h.reg.CallTool(ctx, p.Name, p.Arguments)
	}
	if err != nil {
		log.Error("tool execution failed", "error", err)
		code := CodeInternalError
		if errors.Is(err, registry.ErrInvalidArguments) {
			code = CodeInvalidParams
		}
		return makeError(req.ID, code, fmt.Sprintf("Tool execution failed: %v", err))
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Error("encode tool result", "error", err)
		return makeError(req.ID, CodeInternalError, fmt.Sprintf("Tool execution failed: %v", err))
	}
	log.Info("tool executed")
	return makeResult(req.ID, CallResult{Content: []Content{{Type: "text", Text: string(text)}}})
}
