package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
)

// Config represents the bridge server configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Wallet     WalletConfig     `mapstructure:"wallet"`
	Bridge     BridgeConfig     `mapstructure:"bridge"`
	Kit        KitConfig        `mapstructure:"kit"`
	Chains     []ChainConfig    `mapstructure:"chains"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// AllowedOrigins restricts browser origins for WebSocket upgrades;
	// empty allows all.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// AuthConfig contains wallet-session authentication settings
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// WalletConfig names the environment variables holding the server's
// signing keys. Keys never live in the config file itself.
type WalletConfig struct {
	EVMKeyEnv    string `mapstructure:"evm_key_env"`
	SolanaKeyEnv string `mapstructure:"solana_key_env"`
}

// BridgeConfig contains bridge orchestration settings
type BridgeConfig struct {
	// HistoryCap is the maximum number of transactions kept per user;
	// older records are pruned.
	HistoryCap int `mapstructure:"history_cap"`
	// DefaultTransferMethod is used when a request omits one ("standard" or "fast").
	DefaultTransferMethod string `mapstructure:"default_transfer_method"`
}

// KitConfig locates the external CCTP transfer kit service.
type KitConfig struct {
	// BaseURL is the kit sidecar's HTTP endpoint.
	BaseURL string `mapstructure:"base_url"`
	// RequestTimeout bounds estimate and retry calls; bridge calls stream
	// and are bounded by the caller's context instead.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ChainConfig describes one supported chain
type ChainConfig struct {
	// ID is the chain identifier used in requests, e.g. "ethereum", "solana-devnet".
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	NetworkType string `mapstructure:"network_type" default:"evm"`
	Environment string `mapstructure:"environment" default:"mainnet"`
	// EVMChainID is the numeric chain id for EVM chains, 0 otherwise.
	EVMChainID int64  `mapstructure:"evm_chain_id"`
	RPCURL     string `mapstructure:"rpc_url"`
	// USDCAddress is the USDC token contract (EVM) or mint (Solana).
	USDCAddress string `mapstructure:"usdc_address"`
	// CCTPDomain is Circle's domain identifier for the chain.
	CCTPDomain uint32 `mapstructure:"cctp_domain"`
	// Attestation wall-clock estimates per transfer method.
	AttestationFast     time.Duration `mapstructure:"attestation_fast" default:"20s"`
	AttestationStandard time.Duration `mapstructure:"attestation_standard" default:"15m"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for i := range config.Chains {
		if err := defaults.Set(&config.Chains[i]); err != nil {
			return nil, fmt.Errorf("failed to apply chain defaults: %w", err)
		}
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	// Transfer responses stay open until the mint settles; no write cap.
	viper.SetDefault("server.write_timeout", "0")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "cctp_bridge")

	// Auth defaults
	viper.SetDefault("auth.session_ttl", "24h")

	// Wallet defaults
	viper.SetDefault("wallet.evm_key_env", "BRIDGE_EVM_PRIVATE_KEY")
	viper.SetDefault("wallet.solana_key_env", "BRIDGE_SOLANA_PRIVATE_KEY")

	// Bridge defaults
	viper.SetDefault("bridge.history_cap", 100)
	viper.SetDefault("bridge.default_transfer_method", "standard")

	// Kit defaults
	viper.SetDefault("kit.base_url", "http://localhost:8765")
	viper.SetDefault("kit.request_timeout", "30s")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(config.Chains) == 0 {
		return fmt.Errorf("at least one chain must be configured")
	}
	seen := make(map[string]bool, len(config.Chains))
	for _, chain := range config.Chains {
		if chain.ID == "" {
			return fmt.Errorf("chain id is required")
		}
		if seen[chain.ID] {
			return fmt.Errorf("duplicate chain id: %s", chain.ID)
		}
		seen[chain.ID] = true
		if chain.RPCURL == "" {
			return fmt.Errorf("chain %s: rpc_url is required", chain.ID)
		}
		if chain.Environment != "mainnet" && chain.Environment != "testnet" {
			return fmt.Errorf("chain %s: environment must be mainnet or testnet", chain.ID)
		}
	}
	return nil
}
