package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Network string `yaml:"network"`
	HTTP    struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
		RetryAttempts  int `yaml:"retry_attempts"`
	} `yaml:"http"`
	Streaming struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"streaming"`
	Order struct {
		// Aggression applied to the book mid when converting a market
		// order into an IOC limit, in percent.
		MarketSlippagePct float64 `yaml:"market_slippage_pct"`
	} `yaml:"order"`
	Log struct {
		Level    string `yaml:"level"`
		Format   string `yaml:"format"`
		Detailed bool   `yaml:"detailed"`
		Tracing  bool   `yaml:"tracing"`
	} `yaml:"log"`
}

func (c *Config) Validate() error {
	if c.Network != "testnet" && c.Network != "mainnet" {
		return fmt.Errorf("invalid network '%s': must be 'testnet' or 'mainnet'", c.Network)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be positive, got %d", c.HTTP.TimeoutSeconds)
	}
	if c.HTTP.RetryAttempts < 1 {
		return fmt.Errorf("http.retry_attempts must be at least 1, got %d", c.HTTP.RetryAttempts)
	}
	if c.Order.MarketSlippagePct <= 0 || c.Order.MarketSlippagePct > 50 {
		return fmt.Errorf("order.market_slippage_pct must be between 0-50, got %.2f", c.Order.MarketSlippagePct)
	}
	return nil
}

// DefaultConfig returns the configuration used when no config file exists.
// The server must come up with zero configuration.
func DefaultConfig() *Config {
	c := &Config{Network: "testnet"}
	applyDefaults(c)
	return c
}

func applyDefaults(c *Config) {
	if c.Network == "" {
		c.Network = "testnet"
	}
	if c.HTTP.TimeoutSeconds == 0 {
		c.HTTP.TimeoutSeconds = 30
	}
	if c.HTTP.RetryAttempts == 0 {
		c.HTTP.RetryAttempts = 3
	}
	if c.Order.MarketSlippagePct == 0 {
		c.Order.MarketSlippagePct = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "INFO"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func LoadConfig(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
		// Zero-config startup: defaults plus env overrides.
	default:
		return nil, err
	}

	applyDefaults(&c)

	// HL_NETWORK overrides the file (and the missing-file defaults) so
	// setup scripts can flip deployments without editing config.
	if v := os.Getenv("HL_NETWORK"); v != "" {
		c.Network = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
