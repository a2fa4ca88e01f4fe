package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// NetworkConfig holds per-network settings for on-chain execution
type NetworkConfig struct {
	RPCUrl     string `mapstructure:"rpc_url"`
	PrivateKey string `mapstructure:"private_key"`
	ChainID    int64  `mapstructure:"chain_id"`
	GasLimit   *uint64 `mapstructure:"gas_limit"`
	GasPrice   *int64  `mapstructure:"gas_price"`
}

// VerifyConfig holds identity-verification settings
type VerifyConfig struct {
	ContractAddress string `mapstructure:"contract_address"`
	RPCUrl          string `mapstructure:"rpc_url"`
	AppName         string `mapstructure:"app_name"`
	Scope           string `mapstructure:"scope"`
	EndpointType    string `mapstructure:"endpoint_type"`
}

// Config holds the application configuration
type Config struct {
	OdosBaseURL        string
	ReferralCode       int64
	CoinrankingBaseURL string
	CoinrankingAPIKey  string
	MoralisBaseURL     string
	MoralisAPIKey      string
	SlippagePercent    float64
	WalletAddress      string
	CachePath          string

	Networks map[string]NetworkConfig
	Verify   VerifyConfig
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".nomis")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("odos_base_url", "https://api.odos.xyz")
	viper.SetDefault("referral_code", 0)
	viper.SetDefault("coinranking_base_url", "https://api.coinranking.com")
	viper.SetDefault("moralis_base_url", "https://deep-index.moralis.io")
	viper.SetDefault("slippage_percent", 0.5)
	viper.SetDefault("verify.rpc_url", "https://forno.celo-sepolia.celo-testnet.org")
	viper.SetDefault("verify.app_name", "Nomis Verify")
	viper.SetDefault("verify.scope", "proof-of-human-nomis")
	viper.SetDefault("verify.endpoint_type", "staging_celo")

	// Read from environment variables
	viper.SetEnvPrefix("NOMIS")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		OdosBaseURL:        viper.GetString("odos_base_url"),
		ReferralCode:       viper.GetInt64("referral_code"),
		CoinrankingBaseURL: viper.GetString("coinranking_base_url"),
		CoinrankingAPIKey:  viper.GetString("coinranking_api_key"),
		MoralisBaseURL:     viper.GetString("moralis_base_url"),
		MoralisAPIKey:      viper.GetString("moralis_api_key"),
		SlippagePercent:    viper.GetFloat64("slippage_percent"),
		WalletAddress:      viper.GetString("wallet_address"),
		CachePath:          viper.GetString("cache_path"),
	}

	if err := viper.UnmarshalKey("networks", &cfg.Networks); err != nil {
		return nil, fmt.Errorf("invalid networks configuration: %w", err)
	}
	if cfg.Networks == nil {
		cfg.Networks = make(map[string]NetworkConfig)
	}
	if err := viper.UnmarshalKey("verify", &cfg.Verify); err != nil {
		return nil, fmt.Errorf("invalid verify configuration: %w", err)
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}

// Network returns the configuration for a named network
func (c *Config) Network(name string) (NetworkConfig, error) {
	n, ok := c.Networks[name]
	if !ok {
		return NetworkConfig{}, fmt.Errorf("network %s not configured", name)
	}
	if n.RPCUrl == "" {
		return NetworkConfig{}, fmt.Errorf("RPC URL not configured for network %s", name)
	}
	return n, nil
}
