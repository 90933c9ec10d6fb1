package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"CryptoPulse/internal/chart"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		Timeout     time.Duration `yaml:"timeout"`
		MaxRetries  int           `yaml:"max_retries"`
		RetryBase   time.Duration `yaml:"retry_base"`
		CacheTTL    time.Duration `yaml:"cache_ttl"`
		CandleDays  int           `yaml:"candle_days"`
		DefaultCoin string        `yaml:"default_coin"`
		UseMock     bool          `yaml:"use_mock"`
	} `yaml:"data_source"`
	Schedule struct {
		MarketPollCron     string `yaml:"market_poll_cron"`
		PredictionTickCron string `yaml:"prediction_tick_cron"`
	} `yaml:"schedule"`
	Engine struct {
		HistoryCapacity int `yaml:"history_capacity"`
	} `yaml:"engine"`
	Chart struct {
		Width      int           `yaml:"width"`
		Height     int           `yaml:"height"`
		PixelRatio float64       `yaml:"pixel_ratio"`
		Padding    float64       `yaml:"padding"`
		Palette    chart.Palette `yaml:"palette"`
	} `yaml:"chart"`
	Wallet struct {
		InitialBalance float64 `yaml:"initial_balance"`
		StateFile      string  `yaml:"state_file"`
	} `yaml:"wallet"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
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

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CRON_MARKET_POLL"); v != "" {
		c.Schedule.MarketPollCron = v
	}
	if v := os.Getenv("CRON_PREDICTION_TICK"); v != "" {
		c.Schedule.PredictionTickCron = v
	}
	if v := os.Getenv("INITIAL_BALANCE"); v != "" {
		if balance, err := strconv.ParseFloat(v, 64); err == nil {
			c.Wallet.InitialBalance = balance
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DataSource.BaseURL == "" {
		c.DataSource.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 10 * time.Second
	}
	if c.DataSource.MaxRetries == 0 {
		c.DataSource.MaxRetries = 3
	}
	if c.DataSource.RetryBase == 0 {
		c.DataSource.RetryBase = time.Second
	}
	if c.DataSource.CacheTTL == 0 {
		c.DataSource.CacheTTL = 5 * time.Second
	}
	if c.DataSource.CandleDays == 0 {
		c.DataSource.CandleDays = 1
	}
	if c.DataSource.DefaultCoin == "" {
		c.DataSource.DefaultCoin = "bitcoin"
	}
	if c.Schedule.MarketPollCron == "" {
		c.Schedule.MarketPollCron = "@every 3s"
	}
	if c.Schedule.PredictionTickCron == "" {
		c.Schedule.PredictionTickCron = "@every 5s"
	}
	if c.Engine.HistoryCapacity == 0 {
		c.Engine.HistoryCapacity = 100
	}
	if c.Chart.Width == 0 {
		c.Chart.Width = chart.DefaultWidth
	}
	if c.Chart.Height == 0 {
		c.Chart.Height = chart.DefaultHeight
	}
	if c.Chart.PixelRatio == 0 {
		c.Chart.PixelRatio = 1
	}
	if c.Chart.Padding == 0 {
		c.Chart.Padding = chart.DefaultPadding
	}
	if c.Wallet.InitialBalance == 0 {
		c.Wallet.InitialBalance = 10000
	}
	if c.Wallet.StateFile == "" {
		c.Wallet.StateFile = "data/wallet_state.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/cryptopulse.db"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// TelegramEnabled reports whether both bot token and chat ID are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all required fields are set and in range.
func (c *Config) Validate() error {
	if c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required")
	}
	if c.DataSource.MaxRetries < 1 {
		return fmt.Errorf("data_source.max_retries must be at least 1")
	}
	if c.DataSource.CandleDays < 1 {
		return fmt.Errorf("data_source.candle_days must be at least 1")
	}
	if c.Engine.HistoryCapacity < 20 {
		return fmt.Errorf("engine.history_capacity must be at least 20")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be positive")
	}
	if c.Chart.PixelRatio <= 0 {
		return fmt.Errorf("chart.pixel_ratio must be positive")
	}
	if err := c.Chart.Palette.Validate(); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	if c.Wallet.InitialBalance <= 0 {
		return fmt.Errorf("wallet.initial_balance must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := strconv.ParseInt(c.Telegram.ChatID, 10, 64); c.Telegram.ChatID != "" && err != nil {
		return fmt.Errorf("telegram.chat_id must be numeric: %w", err)
	}
	return nil
}
