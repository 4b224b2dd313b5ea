package tools

import (
	"context"

	"hyperliquid-mcp/internal/exchange/hyperliquid"
	"hyperliquid-mcp/internal/logger"
	"hyperliquid-mcp/internal/session"
	"hyperliquid-mcp/internal/types"
)

type authenticateParams struct {
	PrivateKey     string `json:"privateKey"`
	AccountAddress string `json:"accountAddress"`
	Network        string `json:"network"`
	VaultAddress   string `json:"vaultAddress"`
}

func (p authenticateParams) Validate() error {
	if p.PrivateKey == "" && p.AccountAddress == "" {
		return types.InvalidParamsf("either privateKey or accountAddress is required")
	}
	if p.Network != "" && p.Network != string(types.Testnet) && p.Network != string(types.Mainnet) {
		return types.InvalidParamsf("network must be %q or %q", types.Testnet, types.Mainnet)
	}
	if p.PrivateKey != "" {
		if err := hyperliquid.ValidatePrivateKey(p.PrivateKey); err != nil {
			return types.InvalidParamsf("%v", err)
		}
	}
	return nil
}

func authenticateTool() Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "authenticate",
			Description: "Store exchange credentials for this session and connect the client. Provide a private key to trade, or just an account address for read-only access.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"privateKey":     {Type: "string", Description: "Hex-encoded secp256k1 private key, with or without 0x prefix"},
					"accountAddress": {Type: "string", Description: "Public account address for read-only access"},
					"network":        {Type: "string", Description: "Target deployment", Enum: []string{"testnet", "mainnet"}},
					"vaultAddress":   {Type: "string", Description: "Optional vault address to trade on behalf of"},
				},
			},
		},
		Handler: handleAuthenticate,
	}
}

func handleAuthenticate(ctx context.Context, sess *session.Session, args map[string]any) (any, error) {
	var p authenticateParams
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	network := types.Network(p.Network)
	if network == "" {
		network = sess.DefaultNetwork()
	}

	sess.SetCredentials(ctx, types.Credentials{
		PrivateKey:     p.PrivateKey,
		AccountAddress: p.AccountAddress,
		Network:        network,
		VaultAddress:   p.VaultAddress,
	})

	// Connect eagerly so a bad endpoint or key surfaces here, not on the
	// first data fetch.
	client, err := sess.Client(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Session authenticated",
		"address", client.ActiveAddress(),
		"network", string(network),
		"canTrade", client.CanSign())

	return map[string]any{
		"address":  client.ActiveAddress(),
		"network":  string(network),
		"canTrade": client.CanSign(),
	}, nil
}
