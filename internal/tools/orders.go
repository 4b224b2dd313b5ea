package tools

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"hyperliquid-mcp/internal/logger"
	"hyperliquid-mcp/internal/session"
	"hyperliquid-mcp/internal/types"
)

type placeOrderParams struct {
	Symbol     string   `json:"symbol"`
	Side       string   `json:"side"`
	Size       float64  `json:"size"`
	OrderType  string   `json:"orderType"`
	Price      *float64 `json:"price"`
	ReduceOnly bool     `json:"reduceOnly"`
}

func (p placeOrderParams) Validate() error {
	if p.Symbol == "" {
		return types.InvalidParamsf("symbol is required")
	}
	if p.Side != string(types.Buy) && p.Side != string(types.Sell) {
		return types.InvalidParamsf("side must be %q or %q", types.Buy, types.Sell)
	}
	if p.Size <= 0 {
		return types.InvalidParamsf("size must be a positive number")
	}
	switch p.OrderType {
	case string(types.Limit):
		if p.Price == nil || *p.Price <= 0 {
			return types.InvalidParamsf("price is required for limit orders")
		}
	case string(types.Market):
	default:
		return types.InvalidParamsf("orderType must be %q or %q", types.Limit, types.Market)
	}
	return nil
}

func (p placeOrderParams) toRequest() types.OrderReq {
	req := types.OrderReq{
		Symbol:     p.Symbol,
		Side:       types.Side(p.Side),
		Type:       types.OrderType(p.OrderType),
		Size:       decimal.NewFromFloat(p.Size),
		ReduceOnly: p.ReduceOnly,
	}
	if p.Price != nil {
		req.Price = decimal.NewFromFloat(*p.Price)
	}
	return req
}

func placeOrderTool() Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "place_order",
			Description: "Place an order. Limit orders need a price; market orders execute against the book with bounded slippage. Requires a signing key.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"symbol":     {Type: "string", Description: "Asset symbol"},
					"side":       {Type: "string", Enum: []string{"buy", "sell"}},
					"size":       {Type: "number", Description: "Order size in base units"},
					"orderType":  {Type: "string", Enum: []string{"limit", "market"}},
					"price":      {Type: "number", Description: "Limit price, required for limit orders"},
					"reduceOnly": {Type: "boolean", Description: "Only reduce an existing position"},
				},
				Required: []string{"symbol", "side", "size", "orderType"},
			},
		},
		Handler: handlePlaceOrder,
	}
}

func handlePlaceOrder(ctx context.Context, sess *session.Session, args map[string]any) (any, error) {
	var p placeOrderParams
	if err := decodeArgs(args, &p); err != nil {
		return nil, err
	}
	// Must run before any client access so validation failures never
	// touch the exchange.
	if err := p.Validate(); err != nil {
		return nil, err
	}

	client, err := sess.Client(ctx)
	if err != nil {
		return nil, err
	}
	if !client.CanSign() {
		return nil, fmt.Errorf("%w: read-only credentials cannot trade", types.ErrNotAuthenticated)
	}

	resp, err := client.PlaceOrder(ctx, p.toRequest())
	if err != nil {
		return nil, types.Internal(err)
	}

	logger.ToolCall(ctx, "place_order", true, "symbol", p.Symbol, "order_id", resp.OrderID)
	return resp, nil
}

type cancelOrderParams struct {
	Symbol  string `json:"symbol"`
	OrderID string `json:"orderId"`
}

func (p cancelOrderParams) Validate() error {
	if p.Symbol == "" {
		return types.InvalidParamsf("symbol is required")
	}
	if p.OrderID == "" {
		return types.InvalidParamsf("orderId is required")
	}
	return nil
}

func cancelOrderTool() Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "cancel_order",
			Description: "Cancel an open order by id. Requires a signing key.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"symbol":  {Type: "string", Description: "Asset symbol the order was placed on"},
					"orderId": {Type: "string", Description: "Exchange order id"},
				},
				Required: []string{"symbol", "orderId"},
			},
		},
		Handler: handleCancelOrder,
	}
}

func handleCancelOrder(ctx context.Context, sess *session.Session, args map[string]any) (any, error) {
	var p cancelOrderParams
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
	if !client.CanSign() {
		return nil, fmt.Errorf("%w: read-only credentials cannot trade", types.ErrNotAuthenticated)
	}

	if err := client.CancelOrder(ctx, p.Symbol, p.OrderID); err != nil {
		return nil, types.Internal(err)
	}

	logger.ToolCall(ctx, "cancel_order", true, "symbol", p.Symbol, "order_id", p.OrderID)
	return map[string]any{"cancelled": true, "orderId": p.OrderID}, nil
}
