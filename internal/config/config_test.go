package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_ADDR", "DASHBOARD_TOKEN", "GATEWAY_TIMEOUT", "RATE_LIMIT", "DATABASE_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.ServerAddr != ":3000" {
		t.Errorf("ServerAddr = %q, want %q", cfg.ServerAddr, ":3000")
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled() = true with no DASHBOARD_TOKEN")
	}
	if cfg.GatewayTimeout != 5*time.Second {
		t.Errorf("GatewayTimeout = %v, want 5s", cfg.GatewayTimeout)
	}
	if cfg.RateLimit != 100 {
		t.Errorf("RateLimit = %d, want 100", cfg.RateLimit)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DASHBOARD_TOKEN", "secret")
	t.Setenv("GATEWAY_TIMEOUT", "2s")
	t.Setenv("GATEWAY_TOKEN", "gw")
	t.Setenv("RATE_LIMIT", "not-a-number")
	t.Setenv("SYNC_INTERVAL", "10m")

	cfg := Load()

	if !cfg.AuthEnabled() {
		t.Error("AuthEnabled() = false with DASHBOARD_TOKEN set")
	}
	if cfg.GatewayTimeout != 2*time.Second {
		t.Errorf("GatewayTimeout = %v, want 2s", cfg.GatewayTimeout)
	}
	if !cfg.GatewayEnabled() {
		t.Error("GatewayEnabled() = false with GATEWAY_TOKEN set")
	}
	if cfg.RateLimit != 100 {
		t.Errorf("RateLimit = %d, want fallback 100 for invalid value", cfg.RateLimit)
	}
	if cfg.SyncInterval != 10*time.Minute {
		t.Errorf("SyncInterval = %v, want 10m", cfg.SyncInterval)
	}
}

func TestLoadYAMLConfig_MissingFile(t *testing.T) {
	cfg, err := LoadYAMLConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadYAMLConfig() error = %v", err)
	}
	if cfg.GetAgent("devops") == nil {
		t.Error("default roster should contain devops")
	}
}

func TestLoadYAMLConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
agents:
  - id: video
    name: Dr. Strange
    emoji: "🎬"
    role: Video Production
wallet:
  tokens: []
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig() error = %v", err)
	}

	agent := cfg.GetAgent("video")
	if agent == nil || agent.Name != "Dr. Strange" {
		t.Fatalf("GetAgent(video) = %+v, want Dr. Strange", agent)
	}
	if cfg.GetAgent("devops") != nil {
		t.Error("roster from file should replace the defaults")
	}
	if len(cfg.Wallet.Tokens) != 0 {
		t.Errorf("Wallet.Tokens = %v, want explicit empty list kept", cfg.Wallet.Tokens)
	}
	if cfg.Wallet.NativeSymbol != "MATIC" {
		t.Errorf("NativeSymbol = %q, want default MATIC", cfg.Wallet.NativeSymbol)
	}
}

func TestYAMLConfig_GetAgentNil(t *testing.T) {
	var cfg *YAMLConfig
	if cfg.GetAgent("x") != nil {
		t.Error("GetAgent on nil config should return nil")
	}
}
