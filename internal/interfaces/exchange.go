package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"hyperliquid-mcp/internal/types"
)

// Exchange is the narrow port every handler talks to. Implementations wrap
// the Hyperliquid HTTP API; tests substitute fakes.
type Exchange interface {
	// Connect performs whatever eager setup the client needs (asset
	// metadata, optional streaming). Must be called before any other
	// method.
	Connect(ctx context.Context) error

	// ActiveAddress returns the address the client queries and trades
	// for. Empty only before Connect.
	ActiveAddress() string

	// CanSign reports whether the client holds a signing key. Read-only
	// clients (address only) return false and cannot place or cancel
	// orders.
	CanSign() bool

	PerpState(ctx context.Context, address string) (types.PerpState, error)
	SpotBalances(ctx context.Context, address string) ([]types.SpotBalance, error)

	// SpotPrices returns the coin -> mark price map derived from spot
	// market context.
	SpotPrices(ctx context.Context) (map[string]decimal.Decimal, error)

	OrderBook(ctx context.Context, symbol string) (types.OrderBook, error)
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error

	Close() error
}
