package tools

import (
	"context"
	"time"

	"hyperliquid-mcp/internal/session"
	"hyperliquid-mcp/internal/types"
)

type marketDataParams struct {
	Symbol string `json:"symbol"`
}

func (p marketDataParams) Validate() error {
	if p.Symbol == "" {
		return types.InvalidParamsf("symbol is required")
	}
	return nil
}

// MarketData wraps an order-book snapshot with its capture time.
type MarketData struct {
	Symbol    string          `json:"symbol"`
	Timestamp string          `json:"timestamp"`
	Book      types.OrderBook `json:"orderBook"`
}

func marketDataTool() Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "get_market_data",
			Description: "Fetch the current L2 order-book snapshot for a symbol.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"symbol": {Type: "string", Description: "Asset symbol, e.g. BTC or ETH"},
				},
				Required: []string{"symbol"},
			},
		},
		Handler: handleMarketData,
	}
}

func handleMarketData(ctx context.Context, sess *session.Session, args map[string]any) (any, error) {
	var p marketDataParams
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	client, err := sess.Client(ctx)
	if err != nil {
		return nil, err
	}

	book, err := client.OrderBook(ctx, p.Symbol)
	if err != nil {
		return nil, types.Internal(err)
	}

	return MarketData{
		Symbol:    p.Symbol,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Book:      book,
	}, nil
}
