package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// External service configurations
	Alpaca AlpacaConfig
	FMP    FMPConfig

	// Momentum calculation configuration
	Momentum MomentumConfig

	// Rebalance configuration
	Rebalance RebalanceConfig

	// HTTP configuration
	HTTP HTTPConfig

	// Production toggles JSON logging
	Production bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AlpacaConfig holds Alpaca brokerage API configuration
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

// FMPConfig holds Financial Modeling Prep market-data API configuration
type FMPConfig struct {
	APIKey string
}

// MomentumConfig holds momentum calculation configuration
type MomentumConfig struct {
	LookbackMonths int // distance of the far anchor price
	SkipMonths     int // most recent months excluded from the window
	ToleranceDays  int // anchor bar search window, +/- days
	BackfillDays   int // history depth for price backfill
}

// RebalanceConfig holds rebalance scheduling configuration
type RebalanceConfig struct {
	Frequency string // weekly or monthly
	CronSpec  string // when the cadence gate is evaluated
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ListenAddr         string
	CORSAllowedOrigins string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Alpaca: AlpacaConfig{
			APIKey:    os.Getenv("ALPACA_API_KEY"),
			APISecret: os.Getenv("ALPACA_API_SECRET"),
			BaseURL:   getEnvString("ALPACA_BASE_URL", "https://paper-api.alpaca.markets"),
		},
		FMP: FMPConfig{
			APIKey: os.Getenv("FMP_API_KEY"),
		},
		Momentum: MomentumConfig{
			LookbackMonths: getEnvInt("MOMENTUM_LOOKBACK_MONTHS", 12),
			SkipMonths:     getEnvInt("MOMENTUM_SKIP_MONTHS", 1),
			ToleranceDays:  getEnvInt("MOMENTUM_TOLERANCE_DAYS", 7),
			BackfillDays:   getEnvInt("MOMENTUM_BACKFILL_DAYS", 420),
		},
		Rebalance: RebalanceConfig{
			Frequency: getEnvString("REBALANCE_FREQUENCY", "weekly"),
			CronSpec:  getEnvString("REBALANCE_CRON", "0 30 9 * * 1-5"),
		},
		HTTP: HTTPConfig{
			ListenAddr:         getEnvString("HTTP_LISTEN_ADDR", ":8080"),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
		},
		Production: getEnvBool("PRODUCTION", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Momentum.LookbackMonths <= 0 {
		return fmt.Errorf("MOMENTUM_LOOKBACK_MONTHS must be positive, got %d", c.Momentum.LookbackMonths)
	}
	if c.Momentum.SkipMonths < 0 || c.Momentum.SkipMonths >= c.Momentum.LookbackMonths {
		return fmt.Errorf("MOMENTUM_SKIP_MONTHS must be in [0, lookback), got %d", c.Momentum.SkipMonths)
	}
	if c.Momentum.ToleranceDays <= 0 {
		return fmt.Errorf("MOMENTUM_TOLERANCE_DAYS must be positive, got %d", c.Momentum.ToleranceDays)
	}
	if c.Momentum.BackfillDays <= 0 {
		return fmt.Errorf("MOMENTUM_BACKFILL_DAYS must be positive, got %d", c.Momentum.BackfillDays)
	}
	switch c.Rebalance.Frequency {
	case "weekly", "monthly":
	default:
		// Unknown cadence never auto-rebalances; reject it at startup
		// instead of silently idling.
		return fmt.Errorf("REBALANCE_FREQUENCY must be weekly or monthly, got %q", c.Rebalance.Frequency)
	}
	return nil
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasAlpaca returns true if Alpaca credentials are available
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

// HasFMP returns true if the market-data API key is available
func (c *Config) HasFMP() bool {
	return c.FMP.APIKey != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL: "",
		},
		Alpaca: AlpacaConfig{
			APIKey:    "",
			APISecret: "",
			BaseURL:   "https://paper-api.alpaca.markets",
		},
		FMP: FMPConfig{
			APIKey: "",
		},
		Momentum: MomentumConfig{
			LookbackMonths: 12,
			SkipMonths:     1,
			ToleranceDays:  7,
			BackfillDays:   420,
		},
		Rebalance: RebalanceConfig{
			Frequency: "weekly",
			CronSpec:  "0 30 9 * * 1-5",
		},
		HTTP: HTTPConfig{
			ListenAddr:         ":8080",
			CORSAllowedOrigins: "*",
		},
	}
}
