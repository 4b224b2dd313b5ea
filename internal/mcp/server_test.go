package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"hyperliquid-mcp/internal/interfaces"
	"hyperliquid-mcp/internal/session"
	"hyperliquid-mcp/internal/tools"
	"hyperliquid-mcp/internal/types"
)

type stubExchange struct {
	address string
	canSign bool
}

func (s *stubExchange) Connect(ctx context.Context) error { return nil }
func (s *stubExchange) ActiveAddress() string             { return s.address }
func (s *stubExchange) CanSign() bool                     { return s.canSign }
func (s *stubExchange) PerpState(ctx context.Context, address string) (types.PerpState, error) {
	return types.PerpState{}, nil
}
func (s *stubExchange) SpotBalances(ctx context.Context, address string) ([]types.SpotBalance, error) {
	return nil, nil
}
func (s *stubExchange) SpotPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	return map[string]decimal.Decimal{}, nil
}
func (s *stubExchange) OrderBook(ctx context.Context, symbol string) (types.OrderBook, error) {
	return types.OrderBook{Symbol: symbol}, nil
}
func (s *stubExchange) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	return types.OrderResp{OrderID: "7", Status: "resting"}, nil
}
func (s *stubExchange) CancelOrder(ctx context.Context, symbol, orderID string) error { return nil }
func (s *stubExchange) Close() error                                                  { return nil }

var _ interfaces.Exchange = (*stubExchange)(nil)

// runServer feeds the given request lines through a server and returns
// the decoded responses in order.
func runServer(t *testing.T, sess *session.Session, lines ...string) []response {
	t.Helper()

	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer
	server := NewServer(sess, tools.NewRegistry(), in, &out)

	if err := server.Run(context.Background()); err != nil {
		t.Fatalf("Server run failed: %v", err)
	}

	var responses []response
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("Unparseable response line %q: %v", scanner.Text(), err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func newTestSession() *session.Session {
	return session.New(func(creds types.Credentials) (interfaces.Exchange, error) {
		return &stubExchange{address: creds.AccountAddress, canSign: creds.PrivateKey != ""}, nil
	}, types.Testnet)
}

// resultMap re-decodes a response result into a generic map.
func resultMap(t *testing.T, resp response) map[string]any {
	t.Helper()
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	return m
}

// toolText extracts the JSON text payload out of a tools/call result.
func toolText(t *testing.T, resp response) string {
	t.Helper()
	m := resultMap(t, resp)
	content := m["content"].([]any)
	block := content[0].(map[string]any)
	if block["type"] != "text" {
		t.Fatalf("Expected text content block, got %v", block["type"])
	}
	return block["text"].(string)
}

func TestInitialize(t *testing.T) {
	responses := runServer(t, newTestSession(),
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)

	if len(responses) != 1 {
		t.Fatalf("Expected 1 response, got %d", len(responses))
	}
	if responses[0].Error != nil {
		t.Fatalf("Unexpected error: %+v", responses[0].Error)
	}

	m := resultMap(t, responses[0])
	if m["protocolVersion"] != protocolVersion {
		t.Errorf("Expected protocol version %s, got %v", protocolVersion, m["protocolVersion"])
	}
	info := m["serverInfo"].(map[string]any)
	if info["name"] != "hyperliquid-mcp" {
		t.Errorf("Unexpected server name %v", info["name"])
	}
}

func TestPing(t *testing.T) {
	responses := runServer(t, newTestSession(),
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`)

	if len(responses) != 1 || responses[0].Error != nil {
		t.Fatalf("Expected one clean response, got %+v", responses)
	}
}

func TestToolsList(t *testing.T) {
	responses := runServer(t, newTestSession(),
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)

	m := resultMap(t, responses[0])
	list := m["tools"].([]any)
	if len(list) != 7 {
		t.Fatalf("Expected 7 tools, got %d", len(list))
	}
	first := list[0].(map[string]any)
	if first["name"] != "authenticate" {
		t.Errorf("Expected authenticate first, got %v", first["name"])
	}
	if _, ok := first["inputSchema"]; !ok {
		t.Error("Expected inputSchema on descriptors")
	}
}

func TestMethodNotFound(t *testing.T) {
	responses := runServer(t, newTestSession(),
		`{"jsonrpc":"2.0","id":1,"method":"bogus/method"}`)

	if responses[0].Error == nil {
		t.Fatal("Expected an error")
	}
	if responses[0].Error.Code != codeMethodNotFound {
		t.Errorf("Expected code %d, got %d", codeMethodNotFound, responses[0].Error.Code)
	}
}

func TestParseErrorRespondsWithNullID(t *testing.T) {
	responses := runServer(t, newTestSession(), `{not json`)

	if len(responses) != 1 {
		t.Fatalf("Expected 1 response, got %d", len(responses))
	}
	if responses[0].Error == nil || responses[0].Error.Code != codeParseError {
		t.Fatalf("Expected parse error, got %+v", responses[0])
	}
	if string(responses[0].ID) != "null" {
		t.Errorf("Expected null id, got %s", responses[0].ID)
	}
}

func TestNotificationsProduceNoResponse(t *testing.T) {
	responses := runServer(t, newTestSession(),
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`)

	if len(responses) != 1 {
		t.Fatalf("Expected only the ping response, got %d responses", len(responses))
	}
	if string(responses[0].ID) != "1" {
		t.Errorf("Expected response to id 1, got %s", responses[0].ID)
	}
}

func TestBlankLinesIgnored(t *testing.T) {
	responses := runServer(t, newTestSession(),
		``,
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		`   `)

	if len(responses) != 1 {
		t.Fatalf("Expected 1 response, got %d", len(responses))
	}
}

func TestToolCallErrorCodes(t *testing.T) {
	cases := []struct {
		name     string
		request  string
		wantCode int
	}{
		{
			"unknown tool",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"does_not_exist"}}`,
			codeNotFound,
		},
		{
			"missing tool name",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`,
			codeInvalidParams,
		},
		{
			"missing params",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call"}`,
			codeInvalidParams,
		},
		{
			"schema violation",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_market_data","arguments":{}}}`,
			codeInvalidParams,
		},
		{
			"semantic argument violation",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"place_order","arguments":{"symbol":"ETH","side":"buy","size":1,"orderType":"limit"}}}`,
			codeInvalidParams,
		},
		{
			"unknown resource scheme",
			`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"bogus://x"}}`,
			codeInvalidRequest,
		},
		{
			"unknown strategy resource",
			`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"strategy://strategy-0-ffffffff"}}`,
			codeNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			responses := runServer(t, newTestSession(), tc.request)
			if responses[0].Error == nil {
				t.Fatal("Expected an error response")
			}
			if responses[0].Error.Code != tc.wantCode {
				t.Errorf("Expected code %d, got %d (%s)",
					tc.wantCode, responses[0].Error.Code, responses[0].Error.Message)
			}
		})
	}
}

// toolError extracts the isError flag and failure text from a tools/call
// result.
func toolError(t *testing.T, resp response) (bool, string) {
	t.Helper()
	m := resultMap(t, resp)
	isError, _ := m["isError"].(bool)
	content := m["content"].([]any)
	block := content[0].(map[string]any)
	return isError, block["text"].(string)
}

func TestHandlerFailuresReturnToolError(t *testing.T) {
	// Failures inside a handler are tool results with isError set, not
	// protocol-level errors.
	responses := runServer(t, newTestSession(),
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_account_info","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"activate_strategy","arguments":{"strategyId":"strategy-0-ffffffff","active":true}}}`)

	if len(responses) != 2 {
		t.Fatalf("Expected 2 responses, got %d", len(responses))
	}

	for i, resp := range responses {
		if resp.Error != nil {
			t.Fatalf("Response %d: expected tool error result, got protocol error %+v", i, resp.Error)
		}
	}

	isError, text := toolError(t, responses[0])
	if !isError {
		t.Error("Expected isError on unauthenticated account fetch")
	}
	if !strings.Contains(text, "not authenticated") {
		t.Errorf("Expected failure text in content, got %q", text)
	}

	isError, text = toolError(t, responses[1])
	if !isError {
		t.Error("Expected isError on unknown strategy activation")
	}
	if !strings.Contains(text, "not found") {
		t.Errorf("Expected failure text in content, got %q", text)
	}
}

func TestSuccessfulToolCallHasNoErrorFlag(t *testing.T) {
	responses := runServer(t, newTestSession(),
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"create_strategy","arguments":{"name":"grid","description":"grid bot","config":{}}}}`)

	if responses[0].Error != nil {
		t.Fatalf("Unexpected protocol error %+v", responses[0].Error)
	}
	if isError, _ := toolError(t, responses[0]); isError {
		t.Error("Expected no isError flag on success")
	}
}

func TestOversizedFrameDoesNotStopLoop(t *testing.T) {
	huge := strings.Repeat("a", maxFrameSize+1)
	responses := runServer(t, newTestSession(),
		huge,
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`)

	if len(responses) != 2 {
		t.Fatalf("Expected 2 responses, got %d", len(responses))
	}
	if responses[0].Error == nil || responses[0].Error.Code != codeParseError {
		t.Fatalf("Expected parse error for oversized frame, got %+v", responses[0])
	}
	if string(responses[0].ID) != "null" {
		t.Errorf("Expected null id, got %s", responses[0].ID)
	}
	if responses[1].Error != nil {
		t.Errorf("Expected the loop to keep serving, got %+v", responses[1].Error)
	}
}

func TestStrategyRoundTripOverWire(t *testing.T) {
	sess := newTestSession()
	responses := runServer(t, sess,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"create_strategy","arguments":{"name":"grid","description":"grid bot","config":{"levels":10}}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/list"}`)

	if len(responses) != 2 {
		t.Fatalf("Expected 2 responses, got %d", len(responses))
	}
	if responses[0].Error != nil {
		t.Fatalf("create_strategy failed: %+v", responses[0].Error)
	}

	var record types.Strategy
	if err := json.Unmarshal([]byte(toolText(t, responses[0])), &record); err != nil {
		t.Fatal(err)
	}
	if record.ID == "" || record.Name != "grid" {
		t.Fatalf("Unexpected strategy payload %+v", record)
	}

	m := resultMap(t, responses[1])
	list := m["resources"].([]any)
	if len(list) != 1 {
		t.Fatalf("Expected 1 resource, got %d", len(list))
	}
	entry := list[0].(map[string]any)
	if entry["uri"] != tools.StrategyURI(record.ID) {
		t.Errorf("Expected resource uri for strategy, got %v", entry["uri"])
	}

	// The record read back via the resource must match what was created.
	payload, err := tools.ReadResource(context.Background(), sess, tools.StrategyURI(record.ID))
	if err != nil {
		t.Fatal(err)
	}
	stored := payload.(types.Strategy)
	if stored.ID != record.ID {
		t.Error("Expected resource read to return the created record")
	}
}

func TestAuthenticateThenTradeOverWire(t *testing.T) {
	key := "0x0000000000000000000000000000000000000000000000000000000000000001"
	responses := runServer(t, newTestSession(),
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"authenticate","arguments":{"privateKey":"`+key+`"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"place_order","arguments":{"symbol":"ETH","side":"buy","size":0.5,"orderType":"market"}}}`)

	if responses[0].Error != nil {
		t.Fatalf("authenticate failed: %+v", responses[0].Error)
	}
	if responses[1].Error != nil {
		t.Fatalf("place_order failed: %+v", responses[1].Error)
	}

	var resp types.OrderResp
	if err := json.Unmarshal([]byte(toolText(t, responses[1])), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.OrderID != "7" {
		t.Errorf("Expected order id 7, got %s", resp.OrderID)
	}
}

func TestErrorTaxonomyMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{types.InvalidParamsf("bad"), codeInvalidParams},
		{types.ErrNotAuthenticated, codeNotAuthenticated},
		{types.NotFoundf("missing"), codeNotFound},
		{types.ErrInvalidRequest, codeInvalidRequest},
		{types.Internal(errors.New("boom")), codeInternalError},
		{errors.New("unclassified"), codeInternalError},
		{&methodNotFoundError{method: "x"}, codeMethodNotFound},
	}
	for _, tc := range cases {
		if got := toRPCError(tc.err); got.Code != tc.code {
			t.Errorf("Error %v: expected code %d, got %d", tc.err, tc.code, got.Code)
		}
	}
}
