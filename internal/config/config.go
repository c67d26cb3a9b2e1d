package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Props file keys
const (
	KeyAPIKey         = "api-key"
	KeyAPISecret      = "api-sec"
	KeyBaseURL        = "base-api-url"
	KeyOpenOrdersPath = "open-orders-uri-path"
	KeyNonce          = "nonce"
	KeyTimeEndpoint   = "time-endpoint"
	KeyTickerEndpoint = "ticker-endpoint"
	KeyPair           = "pair"
	KeyTimeout        = "timeout"
	KeyLogLevel       = "log-level"
	KeyLogFormat      = "log-format"
	KeyLogFile        = "log-file"
	KeyLogMaxSize     = "log-max-size"
	KeyLogMaxBackups  = "log-max-backups"
	KeyLogMaxAge      = "log-max-age"
)

const (
	defaultTimePath   = "/0/public/Time"
	defaultTickerPath = "/0/public/Ticker"
)

// Config holds all configuration for the client
type Config struct {
	Exchange ExchangeConfig
	Logging  LoggingConfig
}

// ExchangeConfig holds endpoint and credential settings
type ExchangeConfig struct {
	APIKey         string
	APISecret      string // Base64
	BaseURL        string
	OpenOrdersPath string
	Nonce          string // optional override, used verbatim
	TimeEndpoint   string
	TickerEndpoint string
	Pair           string
	Timeout        time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // console or json
	File       string // empty logs to stderr
	MaxSize    int    // MB
	MaxBackups int
	MaxAge     int // days
}

// Load reads the props file at path and applies environment overrides
func Load(path string) (*Config, error) {
	props, err := LoadProps(path)
	if err != nil {
		return nil, err
	}
	return FromProps(props)
}

// FromProps builds a Config from parsed props. Environment variables
// (KAPI_API_KEY, KAPI_API_SEC, KAPI_BASE_API_URL, KAPI_NONCE, KAPI_LOG_LEVEL)
// take precedence over file values.
func FromProps(props Props) (*Config, error) {
	baseURL := strings.TrimRight(getEnv("KAPI_BASE_API_URL", props.Get(KeyBaseURL, "")), "/")

	timeout, err := parseDuration(KeyTimeout, props.Get(KeyTimeout, "30s"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Exchange: ExchangeConfig{
			APIKey:         getEnv("KAPI_API_KEY", props.Get(KeyAPIKey, "")),
			APISecret:      getEnv("KAPI_API_SEC", props.Get(KeyAPISecret, "")),
			BaseURL:        baseURL,
			OpenOrdersPath: props.Get(KeyOpenOrdersPath, ""),
			Nonce:          getEnv("KAPI_NONCE", props.Get(KeyNonce, "")),
			TimeEndpoint:   props.Get(KeyTimeEndpoint, withBase(baseURL, defaultTimePath)),
			TickerEndpoint: props.Get(KeyTickerEndpoint, withBase(baseURL, defaultTickerPath)),
			Pair:           props.Get(KeyPair, ""),
			Timeout:        timeout,
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(getEnv("KAPI_LOG_LEVEL", props.Get(KeyLogLevel, "info"))),
			Format: strings.ToLower(props.Get(KeyLogFormat, "console")),
			File:   props.Get(KeyLogFile, ""),
		},
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{KeyLogMaxSize, 100, &cfg.Logging.MaxSize},
		{KeyLogMaxBackups, 5, &cfg.Logging.MaxBackups},
		{KeyLogMaxAge, 30, &cfg.Logging.MaxAge},
	}
	for _, f := range ints {
		if *f.dst, err = parseInt(f.key, props.Get(f.key, strconv.Itoa(f.def))); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates settings that apply to every operation
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return &ConfigError{Key: KeyLogLevel, Reason: "invalid log level " + strconv.Quote(c.Logging.Level)}
	}

	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return &ConfigError{Key: KeyLogFormat, Reason: "must be console or json"}
	}

	if c.Exchange.Timeout <= 0 {
		return &ConfigError{Key: KeyTimeout, Reason: "must be positive"}
	}

	return nil
}

// RequireServerTime checks the keys needed to query the server clock
func (c *Config) RequireServerTime() error {
	if c.Exchange.TimeEndpoint == "" {
		return missing(KeyTimeEndpoint)
	}
	return nil
}

// RequireTicker checks the keys needed to query a ticker
func (c *Config) RequireTicker() error {
	if c.Exchange.TickerEndpoint == "" {
		return missing(KeyTickerEndpoint)
	}
	if c.Exchange.Pair == "" {
		return missing(KeyPair)
	}
	return nil
}

// RequireOpenOrders checks the keys needed for a signed open orders call
func (c *Config) RequireOpenOrders() error {
	required := []struct {
		key   string
		value string
	}{
		{KeyAPIKey, c.Exchange.APIKey},
		{KeyAPISecret, c.Exchange.APISecret},
		{KeyBaseURL, c.Exchange.BaseURL},
		{KeyOpenOrdersPath, c.Exchange.OpenOrdersPath},
	}

	for _, r := range required {
		if r.value == "" {
			return missing(r.key)
		}
	}
	return nil
}

// Helper functions for value parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func withBase(baseURL, path string) string {
	if baseURL == "" {
		return ""
	}
	return baseURL + path
}

// parseDuration accepts Go durations ("30s") or whole seconds ("30")
func parseDuration(key, value string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, &ConfigError{Key: key, Reason: "invalid duration", Err: err}
	}
	return d, nil
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ConfigError{Key: key, Reason: "invalid integer", Err: err}
	}
	return n, nil
}
