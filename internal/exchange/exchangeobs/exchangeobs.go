package exchangeobs

import (
	"context"

	"github.com/shopspring/decimal"

	"hyperliquid-mcp/internal/interfaces"
	"hyperliquid-mcp/internal/logger"
	"hyperliquid-mcp/internal/trace"
	"hyperliquid-mcp/internal/types"
)

// observableExchange wraps an Exchange with observability (logging & tracing)
type observableExchange struct {
	ex interfaces.Exchange
}

// Compile-time interface check
var _ interfaces.Exchange = (*observableExchange)(nil)

// Wrap wraps an exchange client with observability middleware
func Wrap(ex interfaces.Exchange) interfaces.Exchange {
	return &observableExchange{ex: ex}
}

func (oe *observableExchange) Connect(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "exchange.Connect")
	defer span.End()

	if err := oe.ex.Connect(ctx); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to connect exchange client", err)
		return err
	}

	logger.InfoSkip(ctx, 1, "Exchange client ready", "address", oe.ex.ActiveAddress())
	return nil
}

func (oe *observableExchange) ActiveAddress() string {
	return oe.ex.ActiveAddress()
}

func (oe *observableExchange) CanSign() bool {
	return oe.ex.CanSign()
}

func (oe *observableExchange) PerpState(ctx context.Context, address string) (types.PerpState, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.PerpState")
	defer span.End()

	state, err := oe.ex.PerpState(ctx, address)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch perp state", err, "address", address)
		return types.PerpState{}, err
	}

	logger.DebugSkip(ctx, 1, "Perp state fetched", "address", address, "positions", len(state.Positions))
	return state, nil
}

func (oe *observableExchange) SpotBalances(ctx context.Context, address string) ([]types.SpotBalance, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.SpotBalances")
	defer span.End()

	balances, err := oe.ex.SpotBalances(ctx, address)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch spot balances", err, "address", address)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Spot balances fetched", "address", address, "count", len(balances))
	return balances, nil
}

func (oe *observableExchange) SpotPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.SpotPrices")
	defer span.End()

	prices, err := oe.ex.SpotPrices(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch spot prices", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Spot prices fetched", "count", len(prices))
	return prices, nil
}

func (oe *observableExchange) OrderBook(ctx context.Context, symbol string) (types.OrderBook, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.OrderBook")
	defer span.End()

	book, err := oe.ex.OrderBook(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch order book", err, "symbol", symbol)
		return types.OrderBook{}, err
	}

	logger.DebugSkip(ctx, 1, "Order book fetched", "symbol", symbol, "bids", len(book.Bids), "asks", len(book.Asks))
	return book, nil
}

func (oe *observableExchange) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"symbol", req.Symbol,
		"side", string(req.Side),
		"type", string(req.Type),
		"size", req.Size.String(),
	)

	resp, err := oe.ex.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"symbol", req.Symbol,
			"side", string(req.Side),
			"size", req.Size.String(),
		)
		return types.OrderResp{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed",
		"symbol", req.Symbol,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp, nil
}

func (oe *observableExchange) CancelOrder(ctx context.Context, symbol, orderID string) error {
	ctx, span := trace.StartSpan(ctx, "exchange.CancelOrder")
	defer span.End()

	if err := oe.ex.CancelOrder(ctx, symbol, orderID); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to cancel order", err, "symbol", symbol, "order_id", orderID)
		return err
	}

	logger.InfoSkip(ctx, 1, "Order cancelled", "symbol", symbol, "order_id", orderID)
	return nil
}

func (oe *observableExchange) Close() error {
	return oe.ex.Close()
}
