package types

import (
	"github.com/shopspring/decimal"
)

// Network selects which Hyperliquid deployment the client talks to.
type Network string

const (
	Testnet Network = "testnet"
	Mainnet Network = "mainnet"
)

// Credentials is the authentication material for one exchange session.
// Either PrivateKey or AccountAddress may be empty, but not both once
// authentication has succeeded. PrivateKey is a hex-encoded secp256k1 key
// without the 0x prefix.
type Credentials struct {
	PrivateKey     string
	AccountAddress string
	Network        Network
	VaultAddress   string
}

// Present reports whether the credentials carry at least one of a signing
// key or a public address.
func (c Credentials) Present() bool {
	return c.PrivateKey != "" || c.AccountAddress != ""
}

// Strategy is a user-defined named configuration blob. Only Active is
// mutable after creation.
type Strategy struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
	Active      bool           `json:"active"`
}

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

type OrderType string

const (
	Limit  OrderType = "limit"
	Market OrderType = "market"
)

// OrderReq is a normalized order request submitted to the exchange.
// Price is ignored for market orders.
type OrderReq struct {
	Symbol     string
	Side       Side
	Type       OrderType
	Size       decimal.Decimal
	Price      decimal.Decimal
	ReduceOnly bool
}

// OrderResp is the exchange's acknowledgement of a submitted order.
type OrderResp struct {
	OrderID  string          `json:"orderId,omitempty"`
	Status   string          `json:"status"`
	FilledSz decimal.Decimal `json:"filledSize"`
	AvgPx    decimal.Decimal `json:"avgPrice"`
}

// PerpPosition is one open perpetual position.
type PerpPosition struct {
	Coin          string          `json:"coin"`
	Size          decimal.Decimal `json:"size"`
	EntryPrice    decimal.Decimal `json:"entryPrice"`
	PositionValue decimal.Decimal `json:"positionValue"`
	UnrealizedPnl decimal.Decimal `json:"unrealizedPnl"`
	Leverage      decimal.Decimal `json:"leverage"`
	MarginUsed    decimal.Decimal `json:"marginUsed"`
	LiqPrice      decimal.Decimal `json:"liquidationPrice"`
}

// PerpState is the perpetual-account summary.
type PerpState struct {
	AccountValue    decimal.Decimal `json:"accountValue"`
	TotalMarginUsed decimal.Decimal `json:"totalMarginUsed"`
	TotalNtlPos     decimal.Decimal `json:"totalNotionalPosition"`
	Withdrawable    decimal.Decimal `json:"withdrawable"`
	Positions       []PerpPosition  `json:"positions"`
}

// SpotBalance is one spot token balance. USDValue is derived by the
// account aggregation, not fetched.
type SpotBalance struct {
	Coin     string          `json:"coin"`
	Total    decimal.Decimal `json:"total"`
	Hold     decimal.Decimal `json:"hold"`
	USDValue decimal.Decimal `json:"usdValue"`
}

// BookLevel is one price level of an order book side.
type BookLevel struct {
	Price  decimal.Decimal `json:"price"`
	Size   decimal.Decimal `json:"size"`
	Orders int             `json:"orders"`
}

// OrderBook is an L2 snapshot for a single symbol.
type OrderBook struct {
	Symbol string      `json:"symbol"`
	Bids   []BookLevel `json:"bids"`
	Asks   []BookLevel `json:"asks"`
	Time   int64       `json:"time"`
}
