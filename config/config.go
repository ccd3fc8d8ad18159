package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"momentum-signalv1/internal/indicator"
	"momentum-signalv1/internal/strategy"
)

// Config holds all application configuration.
//
// Values come from environment variables (optionally seeded from a .env
// file) and may be overridden by a YAML file.
type Config struct {
	// Market
	Symbol      string `yaml:"symbol"`
	Interval    string `yaml:"interval"`
	CandleLimit int    `yaml:"candle_limit"`

	// Indicators
	MACD   indicator.MACDConfig   `yaml:"macd"`
	Volume indicator.VolumeConfig `yaml:"volume"`

	// Signal machine
	Policy          string `yaml:"policy"`
	BufferCap       int    `yaml:"buffer_cap"`
	TradeHistoryCap int    `yaml:"trade_history_cap"`
	// RestoreState resumes the policy from the last saved state instead of
	// starting flat.
	RestoreState bool `yaml:"restore_state"`

	// Scheduling
	PollInterval time.Duration `yaml:"poll_interval"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// Exchange
	BinanceBaseURL string `yaml:"binance_base_url"`

	// Sinks
	CSVPath       string `yaml:"csv_path"`
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"` // empty disables the redis publisher
	RedisPassword string `yaml:"redis_password"`

	// HTTP (api, websocket, metrics)
	HTTPAddr string `yaml:"http_addr"`

	// Notifications
	WebhookURL       string `yaml:"webhook_url"`
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`

	LogLevel string `yaml:"log_level"`

	// set when CandleLimit or PollInterval came from env or YAML
	limitSet bool
	pollSet  bool
}

// Per-policy defaults, used unless the value is set explicitly.
const (
	DefaultJerkCandleLimit        = 500
	DefaultDifferenceCandleLimit  = 101
	DefaultJerkPollInterval       = 5 * time.Second
	DefaultDifferencePollInterval = 60 * time.Second
)

// Binance kline intervals.
var validIntervals = map[string]bool{
	"1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
	"1d": true, "3d": true, "1w": true, "1M": true,
}

// maxCandleLimit is the largest page the klines endpoint returns.
const maxCandleLimit = 1000

// Load reads .env (if present), the environment and, when yamlPath is not
// empty, the YAML overlay. The result is validated.
func Load(yamlPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := FromEnv()

	if yamlPath != "" {
		if err := cfg.ApplyYAML(yamlPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() *Config {
	limit, limitSet := lookupEnvInt("CANDLE_LIMIT")
	poll, pollSet := lookupEnvDuration("POLL_INTERVAL")

	cfg := &Config{
		Symbol:      strings.ToUpper(getEnv("SYMBOL", "BTCUSDT")),
		Interval:    getEnv("INTERVAL", "4h"),
		CandleLimit: limit,

		MACD: indicator.MACDConfig{
			Fast:   getEnvInt("MACD_FAST", 12),
			Slow:   getEnvInt("MACD_SLOW", 26),
			Signal: getEnvInt("MACD_SIGNAL", 9),
		},
		Volume: indicator.VolumeConfig{
			Short: getEnvInt("VOLUME_SMA_SHORT", 7),
			Long:  getEnvInt("VOLUME_SMA_LONG", 20),
		},

		Policy:          getEnv("POLICY", strategy.PolicyJerk),
		BufferCap:       getEnvInt("BUFFER_CAP", strategy.DefaultBufferCap),
		TradeHistoryCap: getEnvInt("TRADE_HISTORY_CAP", strategy.DefaultHistoryCap),
		RestoreState:    getEnvBool("RESTORE_STATE", false),

		PollInterval: poll,
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 10*time.Second),

		BinanceBaseURL: getEnv("BINANCE_BASE_URL", "https://api.binance.com"),

		CSVPath:       getEnv("CSV_PATH", "data/indicators.csv"),
		SQLitePath:    getEnv("SQLITE_PATH", "data/signals.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		HTTPAddr: getEnv("HTTP_ADDR", ":9096"),

		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		limitSet: limitSet,
		pollSet:  pollSet,
	}
	cfg.applyPolicyDefaults()
	return cfg
}

// applyPolicyDefaults fills the candle limit and poll interval for the
// selected policy unless they were set explicitly.
func (c *Config) applyPolicyDefaults() {
	limit, poll := DefaultJerkCandleLimit, DefaultJerkPollInterval
	if c.Policy == strategy.PolicyDifference {
		limit, poll = DefaultDifferenceCandleLimit, DefaultDifferencePollInterval
	}
	if !c.limitSet {
		c.CandleLimit = limit
	}
	if !c.pollSet {
		c.PollInterval = poll
	}
}

// ApplyYAML overrides fields present in the YAML file at path.
func (c *Config) ApplyYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	var keys map[string]any
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if _, ok := keys["candle_limit"]; ok {
		c.limitSet = true
	}
	if _, ok := keys["poll_interval"]; ok {
		c.pollSet = true
	}
	c.Symbol = strings.ToUpper(c.Symbol)
	c.applyPolicyDefaults()
	return nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Symbol == "" {
		errs = append(errs, errors.New("symbol is required"))
	}
	if !validIntervals[c.Interval] {
		errs = append(errs, fmt.Errorf("unsupported interval %q", c.Interval))
	}
	if err := c.MACD.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Volume.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.CandleLimit < c.MACD.WarmUp() || c.CandleLimit > maxCandleLimit {
		errs = append(errs, fmt.Errorf("candle limit %d must be between %d and %d", c.CandleLimit, c.MACD.WarmUp(), maxCandleLimit))
	}
	if c.Policy != strategy.PolicyDifference && c.Policy != strategy.PolicyJerk {
		errs = append(errs, fmt.Errorf("unknown policy %q", c.Policy))
	}
	if c.BufferCap <= 0 {
		errs = append(errs, fmt.Errorf("buffer cap must be positive, got %d", c.BufferCap))
	}
	if c.TradeHistoryCap <= 0 {
		errs = append(errs, fmt.Errorf("trade history cap must be positive, got %d", c.TradeHistoryCap))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", c.PollInterval))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout))
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == "") {
		errs = append(errs, errors.New("telegram needs both bot token and chat id"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	if n, ok := lookupEnvInt(key); ok {
		return n
	}
	return fallback
}

// lookupEnvInt reports false when key is unset or not an integer.
func lookupEnvInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("config: invalid integer, using default", "key", key, "value", v)
		return 0, false
	}
	return n, true
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, ok := lookupEnvDuration(key); ok {
		return d
	}
	return fallback
}

func lookupEnvDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("config: invalid duration, using default", "key", key, "value", v)
		return 0, false
	}
	return d, true
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("config: invalid boolean, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}
