package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"hyperliquid-mcp/internal/logger"
	"hyperliquid-mcp/internal/session"
	"hyperliquid-mcp/internal/tools"
	"hyperliquid-mcp/internal/trace"
	"hyperliquid-mcp/internal/types"
)

// maxFrameSize bounds a single request line.
const maxFrameSize = 4 * 1024 * 1024

// Server reads newline-delimited JSON-RPC requests from in, dispatches
// them against the tool registry and session, and writes responses to
// out. Requests are handled one at a time in arrival order.
type Server struct {
	sess     *session.Session
	registry *tools.Registry
	in       io.Reader
	out      io.Writer
	name     string
	version  string
}

// NewServer wires a server around a session and registry. in/out are
// stdin/stdout in production and buffers in tests.
func NewServer(sess *session.Session, registry *tools.Registry, in io.Reader, out io.Writer) *Server {
	return &Server{
		sess:     sess,
		registry: registry,
		in:       in,
		out:      out,
		name:     "hyperliquid-mcp",
		version:  "1.0.0",
	}
}

// Run processes requests until the input stream ends or the context is
// cancelled. A single bad frame never stops the loop.
func (s *Server) Run(ctx context.Context) error {
	reader := bufio.NewReaderSize(s.in, 64*1024)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, oversized, err := readFrame(reader)
		if err != nil && err != io.EOF {
			return err
		}

		if oversized {
			s.write(response{
				JSONRPC: "2.0",
				ID:      json.RawMessage("null"),
				Error:   &rpcError{Code: codeParseError, Message: fmt.Sprintf("frame exceeds %d bytes", maxFrameSize)},
			})
		} else if trimmed := strings.TrimSpace(line); trimmed != "" {
			s.serveLine(ctx, trimmed)
		}

		if err == io.EOF {
			return nil
		}
	}
}

// readFrame reads one newline-terminated frame. Frames over maxFrameSize
// are consumed to the delimiter and reported oversized instead of
// returned, so one huge line cannot take the loop down.
func readFrame(r *bufio.Reader) (string, bool, error) {
	var buf []byte
	oversized := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !oversized {
			buf = append(buf, chunk...)
			if len(buf) > maxFrameSize {
				oversized = true
				buf = nil
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return string(buf), oversized, err
	}
}

func (s *Server) serveLine(ctx context.Context, line string) {
	var req request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		s.write(response{
			JSONRPC: "2.0",
			ID:      json.RawMessage("null"),
			Error:   &rpcError{Code: codeParseError, Message: fmt.Sprintf("parse error: %v", err)},
		})
		return
	}

	if req.isNotification() {
		logger.Debug(ctx, "Notification received", "method", req.Method)
		return
	}

	s.write(s.handle(ctx, req))
}

func (s *Server) write(resp response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		// Marshal failures here mean a handler returned an unencodable
		// value; degrade to an internal error rather than dropping the
		// request on the floor.
		fallback := response{
			JSONRPC: "2.0",
			ID:      resp.ID,
			Error:   &rpcError{Code: codeInternalError, Message: "failed to encode response"},
		}
		payload, _ = json.Marshal(fallback)
	}
	fmt.Fprintf(s.out, "%s\n", payload)
}

func (s *Server) handle(ctx context.Context, req request) response {
	ctx, span := trace.StartSpan(ctx, "mcp."+req.Method)
	defer span.End()

	resp := response{JSONRPC: "2.0", ID: req.ID}

	result, err := s.dispatch(ctx, req)
	if err != nil {
		logger.Warn(ctx, "Request failed", "method", req.Method, "error", err)
		resp.Error = toRPCError(err)
		return resp
	}
	resp.Result = result
	return resp
}

func (s *Server) dispatch(ctx context.Context, req request) (any, error) {
	switch req.Method {
	case "initialize":
		return initializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
			},
			ServerInfo: serverInfo{Name: s.name, Version: s.version},
		}, nil

	case "ping":
		return map[string]any{}, nil

	case "tools/list":
		return map[string]any{"tools": s.registry.List()}, nil

	case "tools/call":
		var params callToolParams
		if err := unmarshalParams(req.Params, &params); err != nil {
			return nil, err
		}
		if params.Name == "" {
			return nil, types.InvalidParamsf("tool name is required")
		}
		return s.callTool(ctx, params)

	case "resources/list":
		return map[string]any{"resources": tools.ListResources(s.sess)}, nil

	case "resources/read":
		var params readResourceParams
		if err := unmarshalParams(req.Params, &params); err != nil {
			return nil, err
		}
		if params.URI == "" {
			return nil, types.InvalidParamsf("uri is required")
		}

		payload, err := tools.ReadResource(ctx, s.sess, params.URI)
		if err != nil {
			return nil, err
		}
		text, err := json.Marshal(payload)
		if err != nil {
			return nil, types.Internal(err)
		}
		return resourceContents{Contents: []resourceContent{{
			URI:      params.URI,
			MimeType: "application/json",
			Text:     string(text),
		}}}, nil

	default:
		return nil, &methodNotFoundError{method: req.Method}
	}
}

// callTool resolves and invokes one tool. Unknown tools and argument
// validation failures are protocol-level errors; failures inside the
// handler come back as a tool result with isError set, so the caller
// reads the failure text like any other tool output.
func (s *Server) callTool(ctx context.Context, params callToolParams) (any, error) {
	tool, err := s.registry.Get(params.Name)
	if err != nil {
		return nil, err
	}

	args := params.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if err := tool.InputSchema.Validate(args); err != nil {
		return nil, err
	}

	payload, err := tool.Handler(ctx, s.sess, args)
	if err != nil {
		if errors.Is(err, types.ErrInvalidParams) {
			return nil, err
		}
		logger.ToolCall(ctx, params.Name, false, "error", err)
		return toolResult{
			IsError: true,
			Content: []contentBlock{{Type: "text", Text: err.Error()}},
		}, nil
	}
	logger.ToolCall(ctx, params.Name, true)

	text, err := json.Marshal(payload)
	if err != nil {
		return nil, types.Internal(err)
	}
	return toolResult{Content: []contentBlock{{Type: "text", Text: string(text)}}}, nil
}

func unmarshalParams(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return types.InvalidParamsf("params are required")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return types.InvalidParamsf("malformed params: %v", err)
	}
	return nil
}

// methodNotFoundError carries its own JSON-RPC code.
type methodNotFoundError struct {
	method string
}

func (e *methodNotFoundError) Error() string {
	return fmt.Sprintf("method not found: %s", e.method)
}
