package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	if c.Network != "testnet" {
		t.Errorf("Expected default network testnet, got %s", c.Network)
	}
	if c.HTTP.TimeoutSeconds != 30 {
		t.Errorf("Expected default timeout 30, got %d", c.HTTP.TimeoutSeconds)
	}
	if c.HTTP.RetryAttempts != 3 {
		t.Errorf("Expected default retries 3, got %d", c.HTTP.RetryAttempts)
	}
	if c.Order.MarketSlippagePct != 5 {
		t.Errorf("Expected default slippage 5, got %.2f", c.Order.MarketSlippagePct)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default config must validate, got %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Network != "testnet" {
		t.Errorf("Expected defaults for missing file, got network %s", c.Network)
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "network: mainnet\n")

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Network != "mainnet" {
		t.Errorf("Expected mainnet, got %s", c.Network)
	}
	if c.HTTP.TimeoutSeconds != 30 || c.HTTP.RetryAttempts != 3 {
		t.Error("Expected unset fields to fall back to defaults")
	}
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, `
network: testnet
http:
  timeout_seconds: 10
  retry_attempts: 2
streaming:
  enabled: true
order:
  market_slippage_pct: 1.5
log:
  level: DEBUG
  format: text
  tracing: true
`)

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.HTTP.TimeoutSeconds != 10 || c.HTTP.RetryAttempts != 2 {
		t.Errorf("Unexpected http config %+v", c.HTTP)
	}
	if !c.Streaming.Enabled {
		t.Error("Expected streaming enabled")
	}
	if c.Order.MarketSlippagePct != 1.5 {
		t.Errorf("Expected slippage 1.5, got %.2f", c.Order.MarketSlippagePct)
	}
	if c.Log.Level != "DEBUG" || c.Log.Format != "text" || !c.Log.Tracing {
		t.Errorf("Unexpected log config %+v", c.Log)
	}
}

func TestNetworkEnvOverride(t *testing.T) {
	path := writeConfig(t, "network: testnet\n")
	t.Setenv("HL_NETWORK", "mainnet")

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Network != "mainnet" {
		t.Errorf("Expected env override to mainnet, got %s", c.Network)
	}
}

func TestNetworkEnvOverrideWithoutFile(t *testing.T) {
	t.Setenv("HL_NETWORK", "mainnet")

	c, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Network != "mainnet" {
		t.Errorf("Expected env override on the zero-config path, got %s", c.Network)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"bad network", "network: devnet\n", "invalid network"},
		{"negative timeout", "http:\n  timeout_seconds: -1\n", "timeout_seconds"},
		{"excess slippage", "order:\n  market_slippage_pct: 90\n", "market_slippage_pct"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("Expected error mentioning %q, got %v", tc.wantMsg, err)
			}
		})
	}
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "network: [unterminated\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected parse error")
	}
}
