package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"hyperliquid-mcp/internal/exchange/exchangeobs"
	"hyperliquid-mcp/internal/exchange/hyperliquid"
	"hyperliquid-mcp/internal/interfaces"
	"hyperliquid-mcp/internal/logger"
	"hyperliquid-mcp/internal/session"
	"hyperliquid-mcp/internal/store"
	"hyperliquid-mcp/internal/trace"
	"hyperliquid-mcp/internal/types"
)

// initializeSystem initializes environment, logger and tracer
func initializeSystem(cfg *store.Config) error {
	logConfig := logger.LoadConfigFromEnv()
	if os.Getenv("LOG_LEVEL") == "" {
		logConfig.Level = cfg.Log.Level
	}
	if os.Getenv("LOG_FORMAT") == "" {
		logConfig.Format = cfg.Log.Format
	}
	if os.Getenv("LOG_DETAILED") == "" {
		logConfig.DetailedLogging = cfg.Log.Detailed
	}
	if os.Getenv("LOG_TRACING_ENABLED") == "" {
		logConfig.TracingEnabled = cfg.Log.Tracing
	}
	if err := logger.InitWithConfig(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads the configuration, falling back to defaults when no
// config file is present
func loadConfig() (*store.Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("HL_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	return store.LoadConfig(path)
}

// newClientFactory builds exchange clients from session credentials,
// wrapped with observability middleware
func newClientFactory(cfg *store.Config) session.ClientFactory {
	return func(creds types.Credentials) (interfaces.Exchange, error) {
		client, err := hyperliquid.New(hyperliquid.Options{
			PrivateKey:        creds.PrivateKey,
			AccountAddress:    creds.AccountAddress,
			Network:           creds.Network,
			VaultAddress:      creds.VaultAddress,
			Streaming:         cfg.Streaming.Enabled,
			Timeout:           time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
			RetryAttempts:     cfg.HTTP.RetryAttempts,
			MarketSlippagePct: cfg.Order.MarketSlippagePct,
		})
		if err != nil {
			return nil, err
		}
		return exchangeobs.Wrap(client), nil
	}
}
