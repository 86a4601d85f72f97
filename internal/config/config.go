package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DateLayout is the format of the date range settings
const DateLayout = "2006-01-02"

// Config holds all application configuration
type Config struct {
	// Alpaca market data
	AlpacaKeyID     string
	AlpacaSecretKey string
	AlpacaDataURL   string
	AlpacaFeed      string

	// Pair and date ranges
	TickerA    string
	TickerB    string
	Timeframe  string
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time

	// Environment
	InitialBalance  float64
	TransactionCost float64
	HoldingCost     float64
	DrawdownPenalty float64

	// Training
	TrainEpisodes int
	Seed          int64
	LearningRate  float64
	Discount      float64
	Epsilon       float64
	EpsilonDecay  float64
	PolicyPath    string

	// Risk Management
	RiskMaxDrawdownPercent float64
	RiskMinReturnPercent   float64

	// Performance
	CacheTTL    time.Duration
	HTTPTimeout time.Duration
}

var defaults = map[string]interface{}{
	"alpaca_key_id":     "",
	"alpaca_secret_key": "",
	"alpaca_data_url":   "https://data.alpaca.markets",
	"alpaca_feed":       "iex",

	"ticker_a":    "GLD",
	"ticker_b":    "GDX",
	"timeframe":   "1Day",
	"train_start": "2020-01-01",
	"train_end":   "2024-01-01",
	"test_start":  "2024-01-01",
	"test_end":    "2024-12-01",

	"initial_balance":  10000.0,
	"transaction_cost": 0.5,
	"holding_cost":     0.01,
	"drawdown_penalty": 0.1,

	"train_episodes": 200,
	"seed":           42,
	"learning_rate":  0.1,
	"discount":       0.95,
	"epsilon":        1.0,
	"epsilon_decay":  0.98,
	"policy_path":    "pairs_policy.json",

	"risk_max_drawdown_percent": 20.0,
	"risk_min_return_percent":   -10.0,

	"cache_ttl_ms":    300000,
	"http_timeout_ms": 10000,
}

// Load reads .env, then an optional config file, then the environment.
// Environment variables are the upper-case form of the keys and win over the file.
func Load(path string) (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		AlpacaKeyID:     v.GetString("alpaca_key_id"),
		AlpacaSecretKey: v.GetString("alpaca_secret_key"),
		AlpacaDataURL:   strings.TrimRight(v.GetString("alpaca_data_url"), "/"),
		AlpacaFeed:      v.GetString("alpaca_feed"),

		TickerA:   strings.ToUpper(v.GetString("ticker_a")),
		TickerB:   strings.ToUpper(v.GetString("ticker_b")),
		Timeframe: v.GetString("timeframe"),

		InitialBalance:  v.GetFloat64("initial_balance"),
		TransactionCost: v.GetFloat64("transaction_cost"),
		HoldingCost:     v.GetFloat64("holding_cost"),
		DrawdownPenalty: v.GetFloat64("drawdown_penalty"),

		TrainEpisodes: v.GetInt("train_episodes"),
		Seed:          v.GetInt64("seed"),
		LearningRate:  v.GetFloat64("learning_rate"),
		Discount:      v.GetFloat64("discount"),
		Epsilon:       v.GetFloat64("epsilon"),
		EpsilonDecay:  v.GetFloat64("epsilon_decay"),
		PolicyPath:    v.GetString("policy_path"),

		RiskMaxDrawdownPercent: v.GetFloat64("risk_max_drawdown_percent"),
		RiskMinReturnPercent:   v.GetFloat64("risk_min_return_percent"),

		CacheTTL:    time.Duration(v.GetInt64("cache_ttl_ms")) * time.Millisecond,
		HTTPTimeout: time.Duration(v.GetInt64("http_timeout_ms")) * time.Millisecond,
	}

	dates := []struct {
		key    string
		target *time.Time
	}{
		{"train_start", &cfg.TrainStart},
		{"train_end", &cfg.TrainEnd},
		{"test_start", &cfg.TestStart},
		{"test_end", &cfg.TestEnd},
	}
	for _, d := range dates {
		parsed, err := ParseDate(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strings.ToUpper(d.key), err)
		}
		*d.target = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Validate checks that the settings are usable
func (c *Config) Validate() error {
	if c.TickerA == "" || c.TickerB == "" {
		return fmt.Errorf("TICKER_A and TICKER_B must be set")
	}
	if c.TickerA == c.TickerB {
		return fmt.Errorf("TICKER_A and TICKER_B must differ, both are %s", c.TickerA)
	}
	if !c.TrainEnd.After(c.TrainStart) {
		return fmt.Errorf("TRAIN_END must be after TRAIN_START")
	}
	if !c.TestEnd.After(c.TestStart) {
		return fmt.Errorf("TEST_END must be after TEST_START")
	}
	if c.InitialBalance <= 0 {
		return fmt.Errorf("INITIAL_BALANCE must be positive, got %.2f", c.InitialBalance)
	}
	if c.TransactionCost < 0 || c.HoldingCost < 0 || c.DrawdownPenalty < 0 {
		return fmt.Errorf("reward costs must not be negative")
	}
	if c.TrainEpisodes <= 0 {
		return fmt.Errorf("TRAIN_EPISODES must be positive, got %d", c.TrainEpisodes)
	}
	if c.RiskMaxDrawdownPercent <= 0 || c.RiskMaxDrawdownPercent > 100 {
		return fmt.Errorf("RISK_MAX_DRAWDOWN_PERCENT must be in (0, 100], got %.2f", c.RiskMaxDrawdownPercent)
	}
	return nil
}

// RequireCredentials reports whether market data can be fetched
func (c *Config) RequireCredentials() error {
	if c.AlpacaKeyID == "" || c.AlpacaSecretKey == "" {
		return fmt.Errorf("ALPACA_KEY_ID and ALPACA_SECRET_KEY must be set")
	}
	return nil
}
