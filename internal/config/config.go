package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"CryptoScorer/internal/model"
	"CryptoScorer/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	AssetPair       string             `yaml:"asset_pair"`
	BaseAsset       string             `yaml:"base_asset"`
	QuoteAsset      string             `yaml:"quote_asset"`
	PeriodInterval  int                `yaml:"period_interval"` // minutes
	ChecksPerPeriod int                `yaml:"checks_per_period"`
	NumPeriods      int                `yaml:"num_periods"`
	Scoring         []model.ScoreEntry `yaml:"scoring"`
	Source          struct {
		Name        string `yaml:"name"` // yahoo, rest, alpaca, parquet, mock
		Symbol      string `yaml:"symbol"`
		BaseURL     string `yaml:"base_url"`
		APIKey      string `yaml:"api_key"`
		ParquetPath string `yaml:"parquet_path"`
	} `yaml:"source"`
	Exchange struct {
		Name           string  `yaml:"name"` // paper, alpaca
		ForceMaker     bool    `yaml:"force_maker"`
		BasePrecision  int32   `yaml:"base_precision"`
		QuotePrecision int32   `yaml:"quote_precision"`
		FeeRate        float64 `yaml:"fee_rate"`
		MinOrderVolume float64 `yaml:"min_order_volume"`
		StateFile      string  `yaml:"state_file"`
		InitialBase    float64 `yaml:"initial_base"`
		InitialQuote   float64 `yaml:"initial_quote"`
	} `yaml:"exchange"`
	Alpaca struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		BaseURL   string `yaml:"base_url"`
		DataURL   string `yaml:"data_url"`
	} `yaml:"alpaca"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Logging struct {
		LogHoldDecisions bool   `yaml:"log_hold_decisions"`
		ValueCurrency    string `yaml:"value_currency"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("SOURCE_API_KEY"); v != "" {
		cfg.Source.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("PERIOD_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PeriodInterval = n
		}
	}

	// Defaults
	if cfg.PeriodInterval == 0 {
		cfg.PeriodInterval = 60
	}
	if cfg.ChecksPerPeriod == 0 {
		cfg.ChecksPerPeriod = 1
	}
	if cfg.NumPeriods == 0 {
		cfg.NumPeriods = 100
	}
	if cfg.Source.Name == "" {
		cfg.Source.Name = "yahoo"
	}
	if cfg.Source.Symbol == "" {
		cfg.Source.Symbol = cfg.AssetPair
	}
	if cfg.Exchange.Name == "" {
		cfg.Exchange.Name = "paper"
	}
	if cfg.Exchange.BasePrecision == 0 {
		cfg.Exchange.BasePrecision = 8
	}
	if cfg.Exchange.QuotePrecision == 0 {
		cfg.Exchange.QuotePrecision = 2
	}
	if cfg.Exchange.StateFile == "" {
		cfg.Exchange.StateFile = "data/paper_state.json"
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "signals"
	}
	if cfg.Logging.ValueCurrency == "" {
		cfg.Logging.ValueCurrency = cfg.QuoteAsset
	}

	return cfg, nil
}

// Validate checks required fields and resolves the scoring entries, so an
// unknown score function is reported before the bot starts.
func (c *Config) Validate() error {
	if c.AssetPair == "" {
		return fmt.Errorf("asset_pair is required")
	}
	if c.BaseAsset == "" || c.QuoteAsset == "" {
		return fmt.Errorf("base_asset and quote_asset are required")
	}
	if c.PeriodInterval <= 0 {
		return fmt.Errorf("period_interval must be positive")
	}
	if c.ChecksPerPeriod <= 0 {
		return fmt.Errorf("checks_per_period must be positive")
	}
	if (c.PeriodInterval*60)%c.ChecksPerPeriod != 0 {
		return fmt.Errorf("checks_per_period must divide the period into whole seconds")
	}
	if c.NumPeriods <= 1 {
		return fmt.Errorf("num_periods must be greater than 1")
	}
	if len(c.Scoring) == 0 {
		return fmt.Errorf("scoring must list at least one score function")
	}
	if _, err := c.Composite(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	switch c.Source.Name {
	case "yahoo", "mock":
	case "rest":
		if c.Source.BaseURL == "" {
			return fmt.Errorf("source.base_url is required for the rest source")
		}
	case "parquet":
		if c.Source.ParquetPath == "" {
			return fmt.Errorf("source.parquet_path is required for the parquet source")
		}
	case "alpaca":
		if c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "" {
			return fmt.Errorf("alpaca.api_key and alpaca.api_secret are required for the alpaca source")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source.Name)
	}
	switch c.Exchange.Name {
	case "paper":
	case "alpaca":
		if c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "" {
			return fmt.Errorf("alpaca.api_key and alpaca.api_secret are required for the alpaca exchange")
		}
	default:
		return fmt.Errorf("unknown exchange %q", c.Exchange.Name)
	}
	if c.Exchange.FeeRate < 0 || c.Exchange.FeeRate >= 1 {
		return fmt.Errorf("exchange.fee_rate must be in [0, 1)")
	}
	return nil
}

// Composite builds the scoring composite from the default registry.
func (c *Config) Composite() (*strategy.Composite, error) {
	return strategy.Combine(strategy.DefaultRegistry(), c.Scoring)
}
