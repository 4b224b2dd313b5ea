package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"hyperliquid-mcp/internal/interfaces"
	"hyperliquid-mcp/internal/logger"
	"hyperliquid-mcp/internal/types"
)

// ClientFactory builds an exchange client from credentials. Injected so
// tests can substitute fakes for the HTTP client.
type ClientFactory func(creds types.Credentials) (interfaces.Exchange, error)

// Session is the single source of truth for who is connected and what
// strategies exist. One Session is owned by the server instance and
// passed into every handler; there is no package-level state.
type Session struct {
	mu             sync.Mutex
	creds          types.Credentials
	client         interfaces.Exchange
	factory        ClientFactory
	defaultNetwork types.Network
	strategies     map[string]*types.Strategy
	order          []string
}

// New creates an empty session. network is the configured default used
// until an authenticate call names one explicitly; empty falls back to
// testnet.
func New(factory ClientFactory, network types.Network) *Session {
	if network == "" {
		network = types.Testnet
	}
	return &Session{
		creds:          types.Credentials{Network: network},
		factory:        factory,
		defaultNetwork: network,
		strategies:     make(map[string]*types.Strategy),
	}
}

// DefaultNetwork returns the configured network default.
func (s *Session) DefaultNetwork() types.Network {
	return s.defaultNetwork
}

// SetCredentials replaces the stored credentials wholesale and drops any
// previously constructed client handle, forcing a reconnect on next use.
func (s *Session) SetCredentials(ctx context.Context, creds types.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Warn(ctx, "Failed to close previous exchange client", "error", err)
		}
		s.client = nil
	}
	s.creds = creds
}

// Credentials returns a copy of the current credentials.
func (s *Session) Credentials() types.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// Authenticated reports whether usable credentials are present.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Present()
}

// Client returns the exchange client handle, lazily constructing and
// connecting it from the stored credentials. The handle is reused across
// calls until SetCredentials replaces it.
func (s *Session) Client(ctx context.Context) (interfaces.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	if !s.creds.Present() {
		return nil, fmt.Errorf("%w: call authenticate first", types.ErrNotAuthenticated)
	}

	client, err := s.factory(s.creds)
	if err != nil {
		return nil, types.Internal(err)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, types.Internal(err)
	}

	s.client = client
	return client, nil
}

// CreateStrategy inserts a new inactive strategy record and returns it.
// The id combines the creation timestamp with a random tie-breaker so
// rapid successive calls still get distinct ids.
func (s *Session) CreateStrategy(name, description string, config map[string]any) types.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newStrategyID()
	for s.strategies[id] != nil {
		id = newStrategyID()
	}

	record := &types.Strategy{
		ID:          id,
		Name:        name,
		Description: description,
		Config:      config,
		Active:      false,
	}
	s.strategies[id] = record
	s.order = append(s.order, id)
	return *record
}

// SetStrategyActive flips the active flag on an existing record.
func (s *Session) SetStrategyActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.strategies[id]
	if !ok {
		return types.NotFoundf("strategy %s", id)
	}
	record.Active = active
	return nil
}

// ListStrategies returns all records in creation order.
func (s *Session) ListStrategies() []types.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Strategy, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.strategies[id])
	}
	return out
}

// GetStrategy returns the record for an id.
func (s *Session) GetStrategy(id string) (types.Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.strategies[id]
	if !ok {
		return types.Strategy{}, types.NotFoundf("strategy %s", id)
	}
	return *record, nil
}

func newStrategyID() string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("strategy-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}
