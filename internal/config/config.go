package config

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"go.uber.org/zap/zapcore"
)

const (
	// DriverMemory keeps the ledger in process memory
	DriverMemory = "memory"
	// DriverPostgres keeps the ledger in PostgreSQL
	DriverPostgres = "postgres"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Market   MarketConfig   `json:"market"`
	Log      LogConfig      `json:"log"`
}

// ServerConfig contains server related configurations
type ServerConfig struct {
	Port           int      `json:"port" env:"SERVER_PORT"`
	AllowedOrigins []string `json:"allowed_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// DatabaseConfig contains database related configurations
type DatabaseConfig struct {
	Driver       string `json:"driver" env:"DB_DRIVER"`
	Host         string `json:"host" env:"DB_HOST"`
	Port         int    `json:"port" env:"DB_PORT"`
	User         string `json:"user" env:"DB_USER"`
	Password     string `json:"password" env:"DB_PASSWORD"`
	Name         string `json:"name" env:"DB_NAME"`
	SSLMode      string `json:"sslmode" env:"DB_SSLMODE"`
	MaxOpenConns int    `json:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
}

// AuthConfig contains authentication related configurations
type AuthConfig struct {
	JWTSecret           string `json:"jwt_secret" env:"JWT_SECRET"`
	JWTExpiration       int    `json:"jwt_expiration" env:"JWT_EXPIRATION"`             // in hours
	ChallengeExpiration int    `json:"challenge_expiration" env:"CHALLENGE_EXPIRATION"` // in minutes
}

// MarketConfig contains the marketplace parameters
type MarketConfig struct {
	Name          string `json:"name" env:"MARKET_NAME"`
	Symbol        string `json:"symbol" env:"MARKET_SYMBOL"`
	EscrowAddress string `json:"escrow_address" env:"MARKET_ESCROW_ADDRESS"`
	Operator      string `json:"operator" env:"MARKET_OPERATOR"`
	OwnerCut      uint16 `json:"owner_cut" env:"MARKET_OWNER_CUT"` // in basis points
	Decimals      int32  `json:"decimals" env:"MARKET_DECIMALS"`
}

// LogConfig contains logging configurations
type LogConfig struct {
	Level string `json:"level" env:"LOG_LEVEL"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:       DriverMemory,
			Host:         "localhost",
			Port:         5432,
			Name:         "artexchange",
			SSLMode:      "disable",
			MaxOpenConns: 25,
		},
		Auth: AuthConfig{
			JWTExpiration:       24,
			ChallengeExpiration: 15,
		},
		Market: MarketConfig{
			Name:          "UnknownUniqueArt",
			Symbol:        "UUA",
			EscrowAddress: "0x00000000000000000000000000000000000e5c70",
			OwnerCut:      500,
			Decimals:      18,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads the configuration from file and environment
func Load() (*Config, error) {
	cfg := Default()

	// Look for config file
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		// Use default config file path
		configFile = filepath.Join("configs", "config.json")
	}

	// Try to load config from file
	if _, err := os.Stat(configFile); err == nil {
		file, err := os.Open(configFile)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", configFile, err)
		}
	}

	// Override with environment variables if present
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		// Generate a random JWT secret if not provided
		randomBytes := make([]byte, 32)
		if _, err := rand.Read(randomBytes); err != nil {
			return nil, err
		}
		cfg.Auth.JWTSecret = base64.StdEncoding.EncodeToString(randomBytes)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Market.OwnerCut > 10000 {
		return fmt.Errorf("owner cut %d exceeds 10000 basis points", c.Market.OwnerCut)
	}
	if c.Market.EscrowAddress == "" {
		return fmt.Errorf("market escrow address is required")
	}
	if c.Market.Decimals < 0 {
		return fmt.Errorf("negative market decimals")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}
