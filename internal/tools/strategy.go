package tools

import (
	"context"

	"hyperliquid-mcp/internal/session"
	"hyperliquid-mcp/internal/types"
)

type createStrategyParams struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
}

func (p createStrategyParams) Validate() error {
	if p.Name == "" {
		return types.InvalidParamsf("name is required")
	}
	if p.Description == "" {
		return types.InvalidParamsf("description is required")
	}
	if p.Config == nil {
		return types.InvalidParamsf("config is required")
	}
	return nil
}

func createStrategyTool() Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "create_strategy",
			Description: "Store a named strategy configuration. Records are held in memory for the lifetime of the process and start inactive.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"name":        {Type: "string", Description: "Display name"},
					"description": {Type: "string", Description: "What the strategy does"},
					"config":      {Type: "object", Description: "Opaque configuration object"},
				},
				Required: []string{"name", "description", "config"},
			},
		},
		Handler: handleCreateStrategy,
	}
}

func handleCreateStrategy(ctx context.Context, sess *session.Session, args map[string]any) (any, error) {
	var p createStrategyParams
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	record := sess.CreateStrategy(p.Name, p.Description, p.Config)
	return record, nil
}

type activateStrategyParams struct {
	StrategyID string `json:"strategyId"`
	Active     bool   `json:"active"`
}

func (p activateStrategyParams) Validate() error {
	if p.StrategyID == "" {
		return types.InvalidParamsf("strategyId is required")
	}
	return nil
}

func activateStrategyTool() Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "activate_strategy",
			Description: "Toggle the active flag on a stored strategy.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"strategyId": {Type: "string", Description: "Id returned by create_strategy"},
					"active":     {Type: "boolean", Description: "Desired activation state"},
				},
				Required: []string{"strategyId", "active"},
			},
		},
		Handler: handleActivateStrategy,
	}
}

func handleActivateStrategy(ctx context.Context, sess *session.Session, args map[string]any) (any, error) {
	var p activateStrategyParams
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := sess.SetStrategyActive(p.StrategyID, p.Active); err != nil {
		return nil, err
	}
	return map[string]any{"strategyId": p.StrategyID, "active": p.Active}, nil
}
