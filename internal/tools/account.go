package tools

import (
	"context"

	"github.com/shopspring/decimal"

	"hyperliquid-mcp/internal/logger"
	"hyperliquid-mcp/internal/session"
	"hyperliquid-mcp/internal/types"
)

// stableCoin is priced at 1.0 USD when the market context has no entry
// for it (or reports zero).
const stableCoin = "USDC"

// SectionError marks a failed section inside an otherwise successful
// account-info response.
type SectionError struct {
	Error string `json:"error"`
}

// AccountInfo aggregates the perpetual and spot sides of the account.
// Perp and Spot each hold either their payload or a SectionError; a
// failure on one side never discards the other.
type AccountInfo struct {
	Address string `json:"address"`
	Network string `json:"network"`
	Perp    any    `json:"perpetual"`
	Spot    any    `json:"spot"`
}

func accountInfoTool() Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        "get_account_info",
			Description: "Fetch the perpetual position summary and spot balances (with derived USD values) for the authenticated account.",
			InputSchema: InputSchema{
				Type:       "object",
				Properties: map[string]Property{},
			},
		},
		Handler: handleAccountInfo,
	}
}

func handleAccountInfo(ctx context.Context, sess *session.Session, _ map[string]any) (any, error) {
	return buildAccountInfo(ctx, sess)
}

// buildAccountInfo fetches both account sections, tolerating one side
// failing independently of the other.
func buildAccountInfo(ctx context.Context, sess *session.Session) (AccountInfo, error) {
	client, err := sess.Client(ctx)
	if err != nil {
		return AccountInfo{}, err
	}

	address := client.ActiveAddress()
	info := AccountInfo{
		Address: address,
		Network: string(sess.Credentials().Network),
	}

	perp, perpErr := client.PerpState(ctx, address)
	if perpErr != nil {
		logger.Warn(ctx, "Perpetual section failed", "error", perpErr)
		info.Perp = SectionError{Error: perpErr.Error()}
	} else {
		info.Perp = perp
	}

	balances, spotErr := client.SpotBalances(ctx, address)
	if spotErr != nil {
		logger.Warn(ctx, "Spot section failed", "error", spotErr)
		info.Spot = SectionError{Error: spotErr.Error()}
		return info, nil
	}

	prices, priceErr := client.SpotPrices(ctx)
	if priceErr != nil {
		// USD values degrade to zero (stable coin excepted); balances
		// themselves are still worth returning.
		logger.Warn(ctx, "Spot price map unavailable, USD values degraded", "error", priceErr)
		prices = nil
	}
	info.Spot = deriveUSDValues(balances, prices)

	return info, nil
}

// deriveUSDValues fills in USDValue = total x price for each balance.
// The stable coin defaults to 1.0 when the price map has no entry or a
// zero entry for it.
func deriveUSDValues(balances []types.SpotBalance, prices map[string]decimal.Decimal) []types.SpotBalance {
	out := make([]types.SpotBalance, len(balances))
	for i, b := range balances {
		price := prices[b.Coin]
		if b.Coin == stableCoin && price.IsZero() {
			price = decimal.NewFromInt(1)
		}
		b.USDValue = b.Total.Mul(price)
		out[i] = b
	}
	return out
}
