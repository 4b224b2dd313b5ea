package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"hyperliquid-mcp/internal/session"
	"hyperliquid-mcp/internal/types"
)

// Property describes one accepted argument of a tool.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// InputSchema is the fixed argument schema of a tool, JSON-Schema shaped.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Validate checks an argument bag against the schema: missing required
// fields and type mismatches fail, unknown extra fields are ignored for
// forward compatibility.
func (s InputSchema) Validate(args map[string]any) error {
	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			return types.InvalidParamsf("missing required field %q", name)
		}
	}
	for name, prop := range s.Properties {
		value, ok := args[name]
		if !ok || value == nil {
			continue
		}
		if err := checkType(name, prop.Type, value); err != nil {
			return err
		}
	}
	return nil
}

func checkType(name, want string, value any) error {
	ok := false
	switch want {
	case "string":
		_, ok = value.(string)
	case "number":
		// encoding/json decodes every JSON number to float64
		_, ok = value.(float64)
	case "boolean":
		_, ok = value.(bool)
	case "object":
		_, ok = value.(map[string]any)
	default:
		ok = true
	}
	if !ok {
		return types.InvalidParamsf("field %q must be a %s", name, want)
	}
	return nil
}

// Descriptor is the static metadata of one tool.
type Descriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// Handler executes one tool call against the session.
type Handler func(ctx context.Context, sess *session.Session, args map[string]any) (any, error)

// Tool pairs a descriptor with its handler.
type Tool struct {
	Descriptor
	Handler Handler
}

// Registry is the fixed catalog of tools. The set and its order are
// decided at construction and never change.
type Registry struct {
	tools []Tool
	index map[string]int
}

// NewRegistry builds the full tool catalog.
func NewRegistry() *Registry {
	r := &Registry{index: make(map[string]int)}
	r.register(authenticateTool())
	r.register(accountInfoTool())
	r.register(marketDataTool())
	r.register(placeOrderTool())
	r.register(cancelOrderTool())
	r.register(createStrategyTool())
	r.register(activateStrategyTool())
	return r
}

func (r *Registry) register(t Tool) {
	if _, dup := r.index[t.Name]; dup {
		panic(fmt.Sprintf("duplicate tool %q", t.Name))
	}
	r.index[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
}

// List returns tool descriptors in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Descriptor)
	}
	return out
}

// Get returns the tool for a name.
func (r *Registry) Get(name string) (Tool, error) {
	i, ok := r.index[name]
	if !ok {
		return Tool{}, types.NotFoundf("unknown tool %q", name)
	}
	return r.tools[i], nil
}

// Call validates the argument bag against the tool's schema and invokes
// the handler.
func (r *Registry) Call(ctx context.Context, sess *session.Session, name string, args map[string]any) (any, error) {
	tool, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := tool.InputSchema.Validate(args); err != nil {
		return nil, err
	}
	return tool.Handler(ctx, sess, args)
}

// decodeArgs maps a validated argument bag onto a typed params struct.
// Unknown fields are dropped by the round-trip, matching the schema
// contract.
func decodeArgs(args map[string]any, out any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return types.InvalidParamsf("unencodable arguments: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return types.InvalidParamsf("malformed arguments: %v", err)
	}
	return nil
}
