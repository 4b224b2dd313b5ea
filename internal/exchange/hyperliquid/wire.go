package hyperliquid

import "encoding/json"

// Payload shapes for the /info and /exchange endpoints. Numeric values
// arrive as decimal strings and stay strings until converted at the
// domain boundary.

type infoRequest struct {
	Type string `json:"type"`
	User string `json:"user,omitempty"`
	Coin string `json:"coin,omitempty"`
}

type marginSummary struct {
	AccountValue    string `json:"accountValue"`
	TotalNtlPos     string `json:"totalNtlPos"`
	TotalRawUsd     string `json:"totalRawUsd"`
	TotalMarginUsed string `json:"totalMarginUsed"`
}

type leverage struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type assetPosition struct {
	Type     string `json:"type"`
	Position struct {
		Coin           string   `json:"coin"`
		Szi            string   `json:"szi"`
		EntryPx        *string  `json:"entryPx"`
		PositionValue  string   `json:"positionValue"`
		UnrealizedPnl  string   `json:"unrealizedPnl"`
		Leverage       leverage `json:"leverage"`
		LiquidationPx  *string  `json:"liquidationPx"`
		MarginUsed     string   `json:"marginUsed"`
		ReturnOnEquity string   `json:"returnOnEquity"`
	} `json:"position"`
}

type clearinghouseState struct {
	MarginSummary  marginSummary   `json:"marginSummary"`
	Withdrawable   string          `json:"withdrawable"`
	AssetPositions []assetPosition `json:"assetPositions"`
	Time           int64           `json:"time"`
}

type spotBalance struct {
	Coin     string `json:"coin"`
	Token    int    `json:"token"`
	Hold     string `json:"hold"`
	Total    string `json:"total"`
	EntryNtl string `json:"entryNtl"`
}

type spotClearinghouseState struct {
	Balances []spotBalance `json:"balances"`
}

type spotToken struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

type spotPair struct {
	Name   string `json:"name"`
	Tokens [2]int `json:"tokens"`
	Index  int    `json:"index"`
}

type spotMeta struct {
	Tokens   []spotToken `json:"tokens"`
	Universe []spotPair  `json:"universe"`
}

type spotAssetCtx struct {
	Coin   string  `json:"coin"`
	MarkPx string  `json:"markPx"`
	MidPx  *string `json:"midPx"`
}

// spotMetaAndAssetCtxs arrives as a two-element heterogeneous array.
type spotMetaAndAssetCtxs struct {
	Meta spotMeta
	Ctxs []spotAssetCtx
}

func (s *spotMetaAndAssetCtxs) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return err
	}
	if len(parts) > 0 {
		if err := json.Unmarshal(parts[0], &s.Meta); err != nil {
			return err
		}
	}
	if len(parts) > 1 {
		if err := json.Unmarshal(parts[1], &s.Ctxs); err != nil {
			return err
		}
	}
	return nil
}

type perpAsset struct {
	Name       string `json:"name"`
	SzDecimals int    `json:"szDecimals"`
}

type perpMeta struct {
	Universe []perpAsset `json:"universe"`
}

type bookLevel struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
	N  int    `json:"n"`
}

type l2Book struct {
	Coin   string        `json:"coin"`
	Time   int64         `json:"time"`
	Levels [][]bookLevel `json:"levels"`
}

// Exchange actions. Field order matters: the msgpack encoding of these
// structs feeds the action hash, and the exchange computes the same hash
// from its canonical field order.

type limitTif struct {
	Tif string `json:"tif" msgpack:"tif"`
}

type orderTypeWire struct {
	Limit *limitTif `json:"limit,omitempty" msgpack:"limit,omitempty"`
}

type orderWire struct {
	Asset      int           `json:"a" msgpack:"a"`
	IsBuy      bool          `json:"b" msgpack:"b"`
	LimitPx    string        `json:"p" msgpack:"p"`
	Sz         string        `json:"s" msgpack:"s"`
	ReduceOnly bool          `json:"r" msgpack:"r"`
	Type       orderTypeWire `json:"t" msgpack:"t"`
}

type orderAction struct {
	Type     string      `json:"type" msgpack:"type"`
	Orders   []orderWire `json:"orders" msgpack:"orders"`
	Grouping string      `json:"grouping" msgpack:"grouping"`
}

type cancelWire struct {
	Asset int    `json:"a" msgpack:"a"`
	Oid   uint64 `json:"o" msgpack:"o"`
}

type cancelAction struct {
	Type    string       `json:"type" msgpack:"type"`
	Cancels []cancelWire `json:"cancels" msgpack:"cancels"`
}

type exchangeRequest struct {
	Action       any       `json:"action"`
	Nonce        uint64    `json:"nonce"`
	Signature    signature `json:"signature"`
	VaultAddress *string   `json:"vaultAddress,omitempty"`
}

type orderStatus struct {
	Resting *struct {
		Oid uint64 `json:"oid"`
	} `json:"resting,omitempty"`
	Filled *struct {
		TotalSz string `json:"totalSz"`
		AvgPx   string `json:"avgPx"`
		Oid     uint64 `json:"oid"`
	} `json:"filled,omitempty"`
	Error string `json:"error,omitempty"`
}

func unmarshalStatus(raw json.RawMessage, out any) error {
	return json.Unmarshal(raw, out)
}

type exchangeResponse struct {
	Status   string `json:"status"`
	Response struct {
		Type string `json:"type"`
		Data struct {
			Statuses []json.RawMessage `json:"statuses"`
		} `json:"data"`
	} `json:"response"`
}
