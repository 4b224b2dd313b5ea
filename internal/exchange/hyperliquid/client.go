package hyperliquid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hyperliquid-mcp/internal/api"
	"hyperliquid-mcp/internal/interfaces"
	"hyperliquid-mcp/internal/logger"
	"hyperliquid-mcp/internal/types"
)

const (
	mainnetURL = "https://api.hyperliquid.xyz"
	testnetURL = "https://api.hyperliquid-testnet.xyz"

	mainnetWSURL = "wss://api.hyperliquid.xyz/ws"
	testnetWSURL = "wss://api.hyperliquid-testnet.xyz/ws"
)

// Options configures a Client. Exactly one of PrivateKey / AccountAddress
// is required; with both, the key wins for signing and the address for
// queries.
type Options struct {
	PrivateKey     string
	AccountAddress string
	Network        types.Network
	VaultAddress   string
	Streaming      bool

	Timeout           time.Duration
	RetryAttempts     int
	MarketSlippagePct float64
}

// Client implements interfaces.Exchange against the Hyperliquid HTTP API.
type Client struct {
	network  types.Network
	http     *api.Client
	retry    *api.RetryConfig
	signer   *Signer
	address  string
	vault    string
	slippage decimal.Decimal

	streaming bool
	stream    *bookStream

	mu         sync.Mutex
	assetIndex map[string]int
	szDecimals map[string]int
}

var _ interfaces.Exchange = (*Client)(nil)

// New builds a client from credentials. It validates the signing key and
// derives the query address, but performs no network I/O; call Connect
// before use.
func New(opts Options) (*Client, error) {
	var signer *Signer
	if opts.PrivateKey != "" {
		var err error
		signer, err = NewSigner(opts.PrivateKey)
		if err != nil {
			return nil, err
		}
	}

	address := strings.ToLower(strings.TrimSpace(opts.AccountAddress))
	if address == "" && signer != nil {
		address = strings.ToLower(signer.Address().Hex())
	}
	if address == "" {
		return nil, errors.New("either a private key or an account address is required")
	}

	baseURL := testnetURL
	if opts.Network == types.Mainnet {
		baseURL = mainnetURL
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	retry := api.DefaultRetryConfig()
	if opts.RetryAttempts > 0 {
		retry.MaxAttempts = opts.RetryAttempts
	}
	slippage := decimal.NewFromFloat(opts.MarketSlippagePct)
	if slippage.IsZero() {
		slippage = decimal.NewFromInt(5)
	}

	return &Client{
		network: opts.Network,
		http: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithTimeout(timeout),
			api.WithLogging(true),
		),
		retry:     retry,
		signer:    signer,
		address:   address,
		vault:     strings.TrimSpace(opts.VaultAddress),
		slippage:  slippage.Div(decimal.NewFromInt(100)),
		streaming: opts.Streaming,
	}, nil
}

// Connect loads perp asset metadata (needed to map symbols to asset
// indices) and, when streaming is enabled, opens the websocket feed.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.refreshMeta(ctx); err != nil {
		return err
	}

	if c.streaming {
		wsURL := testnetWSURL
		if c.network == types.Mainnet {
			wsURL = mainnetWSURL
		}
		stream, err := newBookStream(ctx, wsURL)
		if err != nil {
			// Streaming is an optimization; the REST path still works.
			logger.Warn(ctx, "Failed to open streaming connection, falling back to REST", "error", err)
		} else {
			c.stream = stream
		}
	}

	logger.Info(ctx, "Exchange client connected",
		"network", string(c.network),
		"address", c.address,
		"canSign", c.signer != nil,
		"streaming", c.stream != nil)
	return nil
}

// ActiveAddress returns the address this client queries and trades for.
func (c *Client) ActiveAddress() string {
	return c.address
}

// CanSign reports whether the client can submit signed actions.
func (c *Client) CanSign() bool {
	return c.signer != nil
}

// Close shuts down the streaming connection if one is open.
func (c *Client) Close() error {
	if c.stream != nil {
		return c.stream.close()
	}
	return nil
}

func (c *Client) info(ctx context.Context, req infoRequest, out any) error {
	resp, err := c.http.DoWithRetry(
		api.NewRequest("POST", "/info").WithContext(ctx).WithBody(req),
		c.retry,
	)
	if err != nil {
		return fmt.Errorf("info %s: %w", req.Type, err)
	}
	return resp.ParseJSON(out)
}

func (c *Client) refreshMeta(ctx context.Context) error {
	var meta perpMeta
	if err := c.info(ctx, infoRequest{Type: "meta"}, &meta); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.assetIndex = make(map[string]int, len(meta.Universe))
	c.szDecimals = make(map[string]int, len(meta.Universe))
	for i, asset := range meta.Universe {
		c.assetIndex[asset.Name] = i
		c.szDecimals[asset.Name] = asset.SzDecimals
	}
	return nil
}

// resolveAsset maps a symbol to its asset index, refreshing metadata once
// for symbols listed after Connect.
func (c *Client) resolveAsset(ctx context.Context, symbol string) (int, error) {
	c.mu.Lock()
	idx, ok := c.assetIndex[symbol]
	c.mu.Unlock()
	if ok {
		return idx, nil
	}

	if err := c.refreshMeta(ctx); err != nil {
		return 0, err
	}

	c.mu.Lock()
	idx, ok = c.assetIndex[symbol]
	c.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("unknown symbol %q", symbol)
	}
	return idx, nil
}

// PerpState fetches the perpetual clearinghouse state for an address.
func (c *Client) PerpState(ctx context.Context, address string) (types.PerpState, error) {
	var state clearinghouseState
	if err := c.info(ctx, infoRequest{Type: "clearinghouseState", User: address}, &state); err != nil {
		return types.PerpState{}, err
	}

	out := types.PerpState{
		AccountValue:    mustDecimal(state.MarginSummary.AccountValue),
		TotalMarginUsed: mustDecimal(state.MarginSummary.TotalMarginUsed),
		TotalNtlPos:     mustDecimal(state.MarginSummary.TotalNtlPos),
		Withdrawable:    mustDecimal(state.Withdrawable),
	}
	for _, ap := range state.AssetPositions {
		p := ap.Position
		pos := types.PerpPosition{
			Coin:          p.Coin,
			Size:          mustDecimal(p.Szi),
			PositionValue: mustDecimal(p.PositionValue),
			UnrealizedPnl: mustDecimal(p.UnrealizedPnl),
			Leverage:      decimal.NewFromFloat(p.Leverage.Value),
			MarginUsed:    mustDecimal(p.MarginUsed),
		}
		if p.EntryPx != nil {
			pos.EntryPrice = mustDecimal(*p.EntryPx)
		}
		if p.LiquidationPx != nil {
			pos.LiqPrice = mustDecimal(*p.LiquidationPx)
		}
		out.Positions = append(out.Positions, pos)
	}
	return out, nil
}

// SpotBalances fetches spot token balances for an address. USD values are
// left zero; the aggregation layer derives them from SpotPrices.
func (c *Client) SpotBalances(ctx context.Context, address string) ([]types.SpotBalance, error) {
	var state spotClearinghouseState
	if err := c.info(ctx, infoRequest{Type: "spotClearinghouseState", User: address}, &state); err != nil {
		return nil, err
	}

	balances := make([]types.SpotBalance, 0, len(state.Balances))
	for _, b := range state.Balances {
		balances = append(balances, types.SpotBalance{
			Coin:  b.Coin,
			Total: mustDecimal(b.Total),
			Hold:  mustDecimal(b.Hold),
		})
	}
	return balances, nil
}

// SpotPrices derives a coin -> mark price map from the spot market
// context. Each universe pair names its base token; mid price is
// preferred, mark price is the fallback.
func (c *Client) SpotPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	var payload spotMetaAndAssetCtxs
	if err := c.info(ctx, infoRequest{Type: "spotMetaAndAssetCtxs"}, &payload); err != nil {
		return nil, err
	}

	tokenName := make(map[int]string, len(payload.Meta.Tokens))
	for _, tok := range payload.Meta.Tokens {
		tokenName[tok.Index] = tok.Name
	}

	prices := make(map[string]decimal.Decimal)
	for i, pair := range payload.Meta.Universe {
		if i >= len(payload.Ctxs) {
			break
		}
		base, ok := tokenName[pair.Tokens[0]]
		if !ok {
			continue
		}
		ctxEntry := payload.Ctxs[i]
		px := ctxEntry.MarkPx
		if ctxEntry.MidPx != nil && *ctxEntry.MidPx != "" {
			px = *ctxEntry.MidPx
		}
		if px == "" {
			continue
		}
		prices[base] = mustDecimal(px)
	}
	return prices, nil
}

// OrderBook returns the L2 snapshot for a symbol. A fresh streamed
// snapshot is served without a network round-trip.
func (c *Client) OrderBook(ctx context.Context, symbol string) (types.OrderBook, error) {
	if c.stream != nil {
		if book, ok := c.stream.snapshot(ctx, symbol); ok {
			return book, nil
		}
	}

	var book l2Book
	if err := c.info(ctx, infoRequest{Type: "l2Book", Coin: symbol}, &book); err != nil {
		return types.OrderBook{}, err
	}
	return convertBook(symbol, book), nil
}

func convertBook(symbol string, book l2Book) types.OrderBook {
	out := types.OrderBook{Symbol: symbol, Time: book.Time}
	if len(book.Levels) > 0 {
		out.Bids = convertLevels(book.Levels[0])
	}
	if len(book.Levels) > 1 {
		out.Asks = convertLevels(book.Levels[1])
	}
	return out
}

func convertLevels(levels []bookLevel) []types.BookLevel {
	out := make([]types.BookLevel, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, types.BookLevel{
			Price:  mustDecimal(lvl.Px),
			Size:   mustDecimal(lvl.Sz),
			Orders: lvl.N,
		})
	}
	return out
}

// PlaceOrder submits a signed order action. Market orders become IOC
// limit orders priced at the book mid adjusted by the configured
// slippage.
func (c *Client) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if c.signer == nil {
		return types.OrderResp{}, errors.New("client has no signing key")
	}

	asset, err := c.resolveAsset(ctx, req.Symbol)
	if err != nil {
		return types.OrderResp{}, err
	}

	price := req.Price
	tif := "Gtc"
	if req.Type == types.Market {
		price, err = c.marketPrice(ctx, req.Symbol, req.Side)
		if err != nil {
			return types.OrderResp{}, err
		}
		tif = "Ioc"
	}

	action := orderAction{
		Type: "order",
		Orders: []orderWire{{
			Asset:      asset,
			IsBuy:      req.Side == types.Buy,
			LimitPx:    price.String(),
			Sz:         req.Size.String(),
			ReduceOnly: req.ReduceOnly,
			Type:       orderTypeWire{Limit: &limitTif{Tif: tif}},
		}},
		Grouping: "na",
	}

	statuses, err := c.submit(ctx, action)
	if err != nil {
		return types.OrderResp{}, err
	}
	if len(statuses) == 0 {
		return types.OrderResp{}, errors.New("exchange returned no order status")
	}

	var status orderStatus
	if err := unmarshalStatus(statuses[0], &status); err != nil {
		return types.OrderResp{}, err
	}
	switch {
	case status.Error != "":
		return types.OrderResp{}, errors.New(status.Error)
	case status.Filled != nil:
		return types.OrderResp{
			OrderID:  strconv.FormatUint(status.Filled.Oid, 10),
			Status:   "filled",
			FilledSz: mustDecimal(status.Filled.TotalSz),
			AvgPx:    mustDecimal(status.Filled.AvgPx),
		}, nil
	case status.Resting != nil:
		return types.OrderResp{
			OrderID: strconv.FormatUint(status.Resting.Oid, 10),
			Status:  "resting",
		}, nil
	default:
		return types.OrderResp{Status: "unknown"}, nil
	}
}

// CancelOrder submits a signed cancel for an order id on a symbol.
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	if c.signer == nil {
		return errors.New("client has no signing key")
	}

	asset, err := c.resolveAsset(ctx, symbol)
	if err != nil {
		return err
	}
	oid, err := strconv.ParseUint(orderID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid order id %q: %w", orderID, err)
	}

	action := cancelAction{
		Type:    "cancel",
		Cancels: []cancelWire{{Asset: asset, Oid: oid}},
	}

	statuses, err := c.submit(ctx, action)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		return errors.New("exchange returned no cancel status")
	}

	var plain string
	if err := unmarshalStatus(statuses[0], &plain); err == nil {
		if plain == "success" {
			return nil
		}
		return fmt.Errorf("cancel rejected: %s", plain)
	}
	var status orderStatus
	if err := unmarshalStatus(statuses[0], &status); err != nil {
		return err
	}
	if status.Error != "" {
		return errors.New(status.Error)
	}
	return nil
}

// submit signs an action and posts it to the exchange endpoint.
func (c *Client) submit(ctx context.Context, action any) ([]json.RawMessage, error) {
	nonce := uint64(time.Now().UnixMilli())
	sig, err := c.signer.signL1Action(action, c.vault, nonce, c.network)
	if err != nil {
		return nil, err
	}

	req := exchangeRequest{Action: action, Nonce: nonce, Signature: sig}
	if c.vault != "" {
		req.VaultAddress = &c.vault
	}

	resp, err := c.http.POST(ctx, "/exchange", req)
	if err != nil {
		return nil, err
	}

	var parsed exchangeResponse
	if err := resp.ParseJSON(&parsed); err != nil {
		return nil, err
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("exchange rejected action: %s", resp.String())
	}
	return parsed.Response.Data.Statuses, nil
}

// marketPrice derives an aggressive IOC limit price from the current book
// mid: mid * (1 + slippage) for buys, mid * (1 - slippage) for sells,
// rounded to the five significant figures the exchange accepts.
func (c *Client) marketPrice(ctx context.Context, symbol string, side types.Side) (decimal.Decimal, error) {
	book, err := c.OrderBook(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return decimal.Zero, fmt.Errorf("empty book for %s", symbol)
	}

	mid := book.Bids[0].Price.Add(book.Asks[0].Price).Div(decimal.NewFromInt(2))
	factor := decimal.NewFromInt(1)
	if side == types.Buy {
		factor = factor.Add(c.slippage)
	} else {
		factor = factor.Sub(c.slippage)
	}
	return roundSigFigs(mid.Mul(factor), 5), nil
}

// roundSigFigs rounds to n significant figures.
func roundSigFigs(d decimal.Decimal, n int32) decimal.Decimal {
	if d.IsZero() {
		return d
	}
	digits := int32(len(d.Abs().Floor().String()))
	if d.Abs().LessThan(decimal.NewFromInt(1)) {
		digits = 0
	}
	return d.Round(n - digits)
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
