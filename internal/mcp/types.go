package mcp

import (
	"encoding/json"
	"errors"

	"hyperliquid-mcp/internal/types"
)

// JSON-RPC 2.0 over newline-delimited frames. Only the call/response
// contract matters to the rest of the server.

const protocolVersion = "2024-11-05"

// JSON-RPC error codes, plus server-defined codes for the domain error
// taxonomy.
const (
	codeParseError       = -32700
	codeInvalidRequest   = -32600
	codeMethodNotFound   = -32601
	codeInvalidParams    = -32602
	codeInternalError    = -32603
	codeNotAuthenticated = -32001
	codeNotFound         = -32002
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// isNotification reports whether the request carries no id and therefore
// expects no response.
func (r request) isNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toRPCError classifies a handler error into the uniform envelope using
// the sentinel taxonomy. Unrecognized errors fall through as internal.
func toRPCError(err error) *rpcError {
	code := codeInternalError
	var notFound *methodNotFoundError
	switch {
	case errors.As(err, &notFound):
		code = codeMethodNotFound
	case errors.Is(err, types.ErrInvalidParams):
		code = codeInvalidParams
	case errors.Is(err, types.ErrNotAuthenticated):
		code = codeNotAuthenticated
	case errors.Is(err, types.ErrNotFound):
		code = codeNotFound
	case errors.Is(err, types.ErrInvalidRequest):
		code = codeInvalidRequest
	}
	return &rpcError{Code: code, Message: err.Error()}
}

// Tool results travel as MCP content blocks. IsError marks a failure
// inside the tool handler, as opposed to a protocol-level error.
type toolResult struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type resourceContents struct {
	Contents []resourceContent `json:"contents"`
}

type resourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      serverInfo     `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type readResourceParams struct {
	URI string `json:"uri"`
}
