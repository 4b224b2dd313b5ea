package tools

import (
	"context"
	"fmt"
	"strings"

	"hyperliquid-mcp/internal/session"
	"hyperliquid-mcp/internal/types"
)

const (
	// AccountResourceURI addresses the live account snapshot.
	AccountResourceURI = "account://current"
	strategyScheme     = "strategy://"
)

// ResourceDescriptor is the static metadata of one addressable resource.
type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// StrategyURI builds the resource reference for a strategy id.
func StrategyURI(id string) string {
	return strategyScheme + id
}

// ListResources enumerates the account resource (only when credentials
// are present) plus one descriptor per stored strategy.
func ListResources(sess *session.Session) []ResourceDescriptor {
	var out []ResourceDescriptor

	if sess.Authenticated() {
		out = append(out, ResourceDescriptor{
			URI:         AccountResourceURI,
			Name:        "Account state",
			Description: "Live perpetual and spot account snapshot",
			MimeType:    "application/json",
		})
	}

	for _, s := range sess.ListStrategies() {
		out = append(out, ResourceDescriptor{
			URI:      StrategyURI(s.ID),
			Name:     s.Name,
			MimeType: "application/json",
		})
	}
	return out
}

// ReadResource resolves a resource reference to its payload.
func ReadResource(ctx context.Context, sess *session.Session, uri string) (any, error) {
	switch {
	case uri == AccountResourceURI:
		return buildAccountInfo(ctx, sess)
	case strings.HasPrefix(uri, strategyScheme):
		id := strings.TrimPrefix(uri, strategyScheme)
		return sess.GetStrategy(id)
	default:
		return nil, fmt.Errorf("%w: unknown resource %q", types.ErrInvalidRequest, uri)
	}
}
