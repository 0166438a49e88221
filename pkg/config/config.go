package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Target network configuration
	Network types.NetworkDescriptor `mapstructure:"network"`

	// Ledger execution configuration
	Ledger LedgerConfig `mapstructure:"ledger"`

	// Development wallet provider configuration
	Wallet WalletConfig `mapstructure:"wallet"`

	// JWT configuration
	JWT JWTConfig `mapstructure:"jwt"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// LedgerConfig holds transaction execution configuration. Mode selects the
// ledger backend: "simulated" runs against the in-memory registry,
// "real" submits to the contract backend.
type LedgerConfig struct {
	Mode                string `mapstructure:"mode"`
	ConfirmTimeout      int    `mapstructure:"confirm_timeout"`
	RegisterLatencyMS   int    `mapstructure:"register_latency_ms"`
	GrantLatencyMS      int    `mapstructure:"grant_latency_ms"`
	RevokeLatencyMS     int    `mapstructure:"revoke_latency_ms"`
	ContractAddress     string `mapstructure:"contract_address"`
	SimulatedSubjectMax int64  `mapstructure:"simulated_subject_max"`
}

// WalletConfig holds the development provider configuration used when no
// browser-injected wallet is present (simulated deployments, tests)
type WalletConfig struct {
	DevAccounts []string `mapstructure:"dev_accounts"`
	DevChainID  int64    `mapstructure:"dev_chain_id"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SecretKey      string `mapstructure:"secret_key"`
	AccessTokenTTL int    `mapstructure:"access_token_ttl"`
	Issuer         string `mapstructure:"issuer"`
	Audience       string `mapstructure:"audience"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/vitaldocs")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Override with environment variables
	overrideWithEnv(&config)

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "vitaldocs")
	viper.SetDefault("database.user", "vitaldocs")
	viper.SetDefault("database.ssl_mode", "require")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	// Network defaults: Celo Alfajores testnet
	viper.SetDefault("network.chain_id", 44787)
	viper.SetDefault("network.name", "Celo Alfajores Testnet")
	viper.SetDefault("network.native_currency", "CELO")
	viper.SetDefault("network.rpc_url", "https://alfajores-forno.celo-testnet.org")
	viper.SetDefault("network.explorer_url", "https://alfajores.celoscan.io")

	// Ledger defaults
	viper.SetDefault("ledger.mode", "simulated")
	viper.SetDefault("ledger.confirm_timeout", 120)
	viper.SetDefault("ledger.register_latency_ms", 2000)
	viper.SetDefault("ledger.grant_latency_ms", 3000)
	viper.SetDefault("ledger.revoke_latency_ms", 1500)
	viper.SetDefault("ledger.simulated_subject_max", 1000000)

	// Wallet defaults
	viper.SetDefault("wallet.dev_chain_id", 44787)

	// JWT defaults
	viper.SetDefault("jwt.access_token_ttl", 3600) // 1 hour
	viper.SetDefault("jwt.issuer", "vital-docs-share")
	viper.SetDefault("jwt.audience", "vitaldocs-users")

	// Logging defaults
	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if jwtSecret := os.Getenv("JWT_SECRET_KEY"); jwtSecret != "" {
		config.JWT.SecretKey = jwtSecret
	}

	if mode := os.Getenv("LEDGER_MODE"); mode != "" {
		config.Ledger.Mode = mode
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.JWT.SecretKey == "" {
		return fmt.Errorf("JWT secret key is required")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Network.ChainID <= 0 {
		return fmt.Errorf("invalid target chain id: %d", config.Network.ChainID)
	}

	if config.Ledger.Mode != "simulated" && config.Ledger.Mode != "real" {
		return fmt.Errorf("invalid ledger mode: %s", config.Ledger.Mode)
	}

	if config.Ledger.Mode == "real" && config.Ledger.ContractAddress == "" {
		return fmt.Errorf("contract address is required in real ledger mode")
	}

	return nil
}
