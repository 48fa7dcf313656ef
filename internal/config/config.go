package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env      string // "development", "production", etc.
	LogLevel string

	// Server
	ServerAddr  string
	BaseURL     string
	CORSOrigins string // Comma-separated allowed origins
	RateLimit   int    // Requests per minute per IP, 0 disables

	// TLS
	TLSCertFile string
	TLSKeyFile  string

	// Auth. An empty DashboardToken disables auth entirely (local dev).
	DashboardToken string
	CookieSecret   string // Used to derive the cookie encryption key

	// Hosted table backend. Empty disables the database tier.
	DatabaseURL string

	// Redis for the notification slot and rate limiter. Empty uses files/memory.
	RedisURL string

	// Filesystem tiers
	ReviewsDir string
	AgentsDir  string

	// Orchestration gateway
	GatewayURL     string
	GatewayToken   string
	GatewayTimeout time.Duration

	// Review workflow
	ReviewerName     string        // Actor recorded on decisions that don't name one
	ProbeTimeout     time.Duration // Reachability check for preview URLs
	AllowPrivateURLs bool          // Allow preview URLs on private networks

	// Deliverable approval webhook. Empty skips firing.
	ApprovalWebhookURL string

	// Wallet
	WalletAddress  string
	WalletRPCURL   string
	WalletPriceURL string

	// Background jobs. Zero disables.
	SyncInterval time.Duration

	// Optional YAML file with the agent roster and wallet tokens.
	ConfigFile string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".missioncontrol")

	return &Config{
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ServerAddr:  getEnv("SERVER_ADDR", ":3000"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:3000"),
		CORSOrigins: getEnv("CORS_ORIGINS", ""),
		RateLimit:   getEnvInt("RATE_LIMIT", 100),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		DashboardToken: getEnv("DASHBOARD_TOKEN", ""),
		CookieSecret:   getEnv("COOKIE_SECRET", "change-me-in-production-min-32-chars"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		ReviewsDir: getEnv("REVIEWS_DIR", filepath.Join(dataDir, "reviews")),
		AgentsDir:  getEnv("AGENTS_DIR", filepath.Join(dataDir, "agents")),

		GatewayURL:     getEnv("GATEWAY_URL", "http://localhost:4440"),
		GatewayToken:   getEnv("GATEWAY_TOKEN", ""),
		GatewayTimeout: getEnvDuration("GATEWAY_TIMEOUT", 5*time.Second),

		ReviewerName:     getEnv("REVIEWER_NAME", "reviewer"),
		ProbeTimeout:     getEnvDuration("PROBE_TIMEOUT", 5*time.Second),
		AllowPrivateURLs: getEnv("ALLOW_PRIVATE_URLS", "") != "",

		ApprovalWebhookURL: getEnv("APPROVAL_WEBHOOK_URL", ""),

		WalletAddress:  getEnv("WALLET_ADDRESS", ""),
		WalletRPCURL:   getEnv("WALLET_RPC_URL", "https://polygon-rpc.com"),
		WalletPriceURL: getEnv("WALLET_PRICE_URL", "https://api.coingecko.com/api/v3/simple/price?ids=matic-network&vs_currencies=usd"),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 0),

		ConfigFile: getEnv("CONFIG_FILE", "config.yaml"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// AuthEnabled returns true if a dashboard token is configured.
func (c *Config) AuthEnabled() bool {
	return c.DashboardToken != ""
}

// GatewayEnabled returns true if the orchestration gateway can be queried.
func (c *Config) GatewayEnabled() bool {
	return c.GatewayURL != "" && c.GatewayToken != ""
}

// TLSEnabled returns true if a certificate and key are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}
