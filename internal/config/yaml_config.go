package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the config.yaml file.
// The agent roster and token list are easier to manage in YAML than env vars.
type YAMLConfig struct {
	Agents []AgentConfig `yaml:"agents"`
	Wallet WalletConfig  `yaml:"wallet"`
}

// AgentConfig gives a workspace directory a display name, emoji and role.
type AgentConfig struct {
	ID    string `yaml:"id"` // Workspace directory name
	Name  string `yaml:"name"`
	Emoji string `yaml:"emoji"`
	Role  string `yaml:"role"`
}

// WalletConfig lists the ERC-20 tokens to report besides the native coin.
type WalletConfig struct {
	NativeSymbol string        `yaml:"native_symbol"`
	Tokens       []TokenConfig `yaml:"tokens"`
}

// TokenConfig defines one ERC-20 token contract.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals int    `yaml:"decimals"`
}

// DefaultYAMLConfig returns the built-in roster and token list used when no
// config file is present.
func DefaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Agents: []AgentConfig{
			{ID: "main", Name: "Captain", Emoji: "🎖️", Role: "Fleet Commander"},
			{ID: "devops", Name: "Forge", Emoji: "⚙️", Role: "CTO / DevOps"},
			{ID: "trading", Name: "Trading", Emoji: "📈", Role: "Financial Operations"},
			{ID: "research", Name: "Research", Emoji: "🔬", Role: "Research & Analysis"},
		},
		Wallet: WalletConfig{
			NativeSymbol: "MATIC",
			Tokens: []TokenConfig{
				{Symbol: "USDC", Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6},
				{Symbol: "USDC.e", Address: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", Decimals: 6},
			},
		},
	}
}

// LoadYAMLConfig loads the YAML configuration file at path.
// Returns the defaults without error if the file doesn't exist.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return DefaultYAMLConfig(), nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	defaults := DefaultYAMLConfig()
	if len(cfg.Agents) == 0 {
		cfg.Agents = defaults.Agents
	}
	if cfg.Wallet.NativeSymbol == "" {
		cfg.Wallet.NativeSymbol = defaults.Wallet.NativeSymbol
	}
	if cfg.Wallet.Tokens == nil {
		cfg.Wallet.Tokens = defaults.Wallet.Tokens
	}

	return &cfg, nil
}

// GetAgent finds an agent's roster entry by workspace directory name.
func (c *YAMLConfig) GetAgent(id string) *AgentConfig {
	if c == nil {
		return nil
	}
	for i := range c.Agents {
		if c.Agents[i].ID == id {
			return &c.Agents[i]
		}
	}
	return nil
}
